package config

import (
	"fmt"

	"github.com/helga-agentur/contentloader"
)

// HandlerFactory returns the status handler for a named source.
//
// The CLI uses it to give every configured source a logging handler;
// embedders building producers from config can route updates wherever
// they need.
type HandlerFactory func(name string) contentloader.HandleFunc

// BuildProducers converts a validated [Config] into SDK producers.
//
// Each source selects its assembler from the configured fields, wrapped
// with [contentloader.SkipOnReset] and [contentloader.Tagged] as
// requested. Returns an error if a source's URL or template is rejected by
// the SDK or if the factory returns a nil handler.
func BuildProducers(cfg *Config, factory HandlerFactory) ([]contentloader.Producer, error) {
	if factory == nil {
		return nil, fmt.Errorf("handler factory must not be nil")
	}

	producers := make([]contentloader.Producer, 0, len(cfg.Sources))
	for i, src := range cfg.Sources {
		assemble, err := buildAssembler(src)
		if err != nil {
			return nil, fmt.Errorf("sources[%d] (%s): %w", i, src.Name, err)
		}

		if src.SkipOnReset {
			assemble = contentloader.SkipOnReset(assemble)
		}
		if src.Tag != "" {
			assemble = contentloader.Tagged(assemble, src.Tag)
		}

		producer, err := contentloader.NewProducer(assemble, factory(src.Name),
			contentloader.WithName(src.Name),
		)
		if err != nil {
			return nil, fmt.Errorf("sources[%d] (%s): %w", i, src.Name, err)
		}
		producers = append(producers, producer)
	}

	return producers, nil
}

// buildAssembler selects the assembler a source's fields describe.
func buildAssembler(src SourceConfig) (contentloader.AssembleFunc, error) {
	switch {
	case src.URL != "":
		return contentloader.Static(src.URL), nil
	case src.BaseURL != "":
		return contentloader.BaseURL(src.BaseURL)
	case src.Template != "":
		return contentloader.Template(src.Template)
	default:
		return nil, fmt.Errorf("exactly one of url, base_url, or template is required")
	}
}
