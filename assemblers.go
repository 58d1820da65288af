package contentloader

import (
	"bytes"
	"net/url"
	"text/template"
)

// Static returns an [AssembleFunc] that requests the same URL on every
// cycle, ignoring the request context.
//
// This is useful for content regions whose source does not depend on the
// triggering interaction, such as a sidebar that refreshes alongside
// filtered results.
//
// Example:
//
//	assemble := contentloader.Static("https://example.com/api/sidebar")
func Static(rawURL string) AssembleFunc {
	return func(RequestContext) *URLRequest {
		return &URLRequest{URL: rawURL}
	}
}

// BaseURL returns an [AssembleFunc] that merges the cycle's query
// parameters into a base URL.
//
// Parameters already present on the base URL are kept; cycle parameters are
// added to them. When the cycle carries the reset flag, the bare base URL
// is returned instead, restoring the unfiltered view.
//
// The merged query is encoded in sorted key order, so two cycles carrying
// the same parameter set assemble byte-identical URLs and deduplicate to a
// single fetch.
//
// Returns an error if the base URL cannot be parsed.
//
// Example:
//
//	assemble, err := contentloader.BaseURL("https://example.com/api/articles?lang=en")
//	// cycle params {page: 2} → https://example.com/api/articles?lang=en&page=2
func BaseURL(base string) (AssembleFunc, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	return func(rc RequestContext) *URLRequest {
		u := *parsed
		if rc.Reset {
			return &URLRequest{URL: u.String()}
		}
		q := u.Query()
		for key, values := range rc.Params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		return &URLRequest{URL: u.String()}
	}, nil
}

// MustBaseURL is like [BaseURL] but panics if the base URL is invalid.
//
// Use this for compile-time constant URLs where you want to fail fast.
// For runtime URLs, use [BaseURL] instead.
func MustBaseURL(base string) AssembleFunc {
	assemble, err := BaseURL(base)
	if err != nil {
		panic("contentloader: invalid base url: " + err.Error())
	}
	return assemble
}

// Template returns an [AssembleFunc] that renders a text/template into a
// URL for every cycle.
//
// The template executes against a flat map holding the first value of each
// query parameter plus all extra context fields, so {{.tag}} resolves the
// "tag" parameter. If the template references a value the cycle does not
// carry, the producer opts out of that cycle rather than fetching a
// half-assembled URL.
//
// Returns an error if the template cannot be parsed.
//
// Example:
//
//	assemble, err := contentloader.Template("https://example.com/api/teaser?tag={{.tag}}")
func Template(pattern string) (AssembleFunc, error) {
	tmpl, err := template.New("url").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return nil, err
	}

	return func(rc RequestContext) *URLRequest {
		data := make(map[string]any, len(rc.Params)+len(rc.Extra))
		for key, values := range rc.Params {
			if len(values) > 0 {
				data[key] = values[0]
			}
		}
		for key, v := range rc.Extra {
			data[key] = v
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			// missing value for this cycle: opt out
			return nil
		}
		return &URLRequest{URL: buf.String()}
	}, nil
}

// MustTemplate is like [Template] but panics if the pattern is invalid.
//
// Use this for compile-time constant patterns where you want to fail fast
// on invalid template syntax. For runtime patterns, use [Template] instead.
//
// Example:
//
//	var assemble = contentloader.MustTemplate("https://example.com/search?q={{.q}}")
func MustTemplate(pattern string) AssembleFunc {
	assemble, err := Template(pattern)
	if err != nil {
		panic("contentloader: invalid url template: " + err.Error())
	}
	return assemble
}

// SkipOnReset wraps an [AssembleFunc] so the producer opts out of cycles
// carrying the reset flag.
//
// Use this for producers that only participate in filtered views and have
// nothing to fetch when the host restores its default state.
//
// Example:
//
//	assemble := contentloader.SkipOnReset(contentloader.MustTemplate(pattern))
func SkipOnReset(next AssembleFunc) AssembleFunc {
	return func(rc RequestContext) *URLRequest {
		if rc.Reset {
			return nil
		}
		return next(rc)
	}
}

// Tagged wraps an [AssembleFunc] and attaches an auxiliary value to every
// request it produces, unless the inner assembler already attached one.
//
// The value is round-tripped unchanged onto every [StatusUpdate] delivered
// to the producer, which makes it the place to carry request intent across
// the async boundary.
//
// Example:
//
//	assemble := contentloader.Tagged(contentloader.MustBaseURL(base), "append")
func Tagged(next AssembleFunc, data any) AssembleFunc {
	return func(rc RequestContext) *URLRequest {
		req := next(rc)
		if req != nil && req.Data == nil {
			req.Data = data
		}
		return req
	}
}
