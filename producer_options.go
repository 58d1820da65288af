package contentloader

// producerConfig holds mutable state during producer construction.
type producerConfig struct {
	name string
}

// ProducerOption is a function that configures a [Producer] during
// construction via [NewProducer]. Options return an error if validation
// fails.
type ProducerOption func(*producerConfig) error

// WithName sets a display name for the producer, used in log attribution.
//
// Names are purely informational: duplicates are allowed and registration
// does not require one.
//
// Example:
//
//	p, err := contentloader.NewProducer(assemble, handle,
//	    contentloader.WithName("article-list"),
//	)
func WithName(name string) ProducerOption {
	return func(cfg *producerConfig) error {
		cfg.name = name
		return nil
	}
}
