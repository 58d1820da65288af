package contentloader

// Status represents the lifecycle state of a content fetch.
//
// Status is a string type that can hold one of three predefined values:
// [StatusLoading], [StatusLoaded], or [StatusFailed]. Using a string type
// allows for easy JSON serialization and human-readable logging while
// maintaining type safety through the defined constants.
type Status string

const (
	// StatusLoading indicates the fetch has been dispatched and is in flight.
	StatusLoading Status = "loading"

	// StatusLoaded indicates the fetch completed with a 2xx response.
	StatusLoaded Status = "loaded"

	// StatusFailed indicates the fetch completed with a non-2xx response or
	// a network-level error (DNS failure, connection refused, offline).
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status is a final state ([StatusLoaded] or
// [StatusFailed]). Every dispatched fetch delivers exactly one terminal
// update unless it is superseded by a newer cycle.
func (s Status) Terminal() bool {
	return s == StatusLoaded || s == StatusFailed
}

// HTTPResponse carries the HTTP-level outcome of a completed fetch.
type HTTPResponse struct {
	// OK is true when the status code is in the 2xx range.
	OK bool `json:"ok"`

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	StatusCode int `json:"status_code"`
}

// StatusUpdate is delivered to a producer's status handler for every
// lifecycle event of a fetch the producer participates in.
//
// For a cycle in which a producer's assembler returned a request, the
// handler receives at least one [StatusLoading] update followed by exactly
// one terminal update — unless the cycle is superseded, in which case the
// terminal update is suppressed.
type StatusUpdate struct {
	// Status is the lifecycle state this update reports.
	Status Status `json:"status"`

	// URL is the exact URL string the producer's assembler returned.
	URL string `json:"url"`

	// Content is the response body as text, limited to 1MB.
	// Empty while Status is [StatusLoading]; best-effort (possibly empty)
	// on network-level failures.
	Content string `json:"content,omitempty"`

	// Response holds the HTTP outcome. Nil while Status is [StatusLoading]
	// and on network-level failures where no response was received.
	Response *HTTPResponse `json:"response,omitempty"`

	// Data is the auxiliary value the producer's assembler attached to its
	// [URLRequest], round-tripped unchanged. Nil if none was attached.
	Data any `json:"data,omitempty"`
}
