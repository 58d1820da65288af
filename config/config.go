// Package config provides YAML configuration parsing for the contentloader
// CLI.
//
// This package enables running the loader as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	max_concurrency: 8
//
//	sources:
//	  - name: article-list
//	    base_url: https://example.com/api/articles
//	  - name: teaser
//	    template: "https://example.com/api/teaser?tag={{.tag}}"
//	    skip_on_reset: true
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPort = 8080

// Config is the root configuration structure for the contentloader CLI.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// MaxConcurrency bounds fetches in flight at once. 0 means unlimited.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Sources defines the content producers registered with the pool.
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one content producer.
//
// Exactly one of URL, BaseURL, or Template must be set; it selects the
// assembler the producer uses:
//
//   - url: the same URL every cycle
//   - base_url: cycle parameters merged into the base URL's query
//   - template: a Go text/template rendered against cycle parameters
type SourceConfig struct {
	// Name is the display name used in logs.
	Name string `yaml:"name"`

	// URL is a fixed target fetched on every cycle.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}.
	URL string `yaml:"url"`

	// BaseURL is a target the cycle's query parameters are merged into.
	// Supports environment variable substitution.
	BaseURL string `yaml:"base_url"`

	// Template is a Go template for generating the target URL per cycle.
	// Cycle parameters and extra fields are available as variables:
	// {{.tag}}, {{.page}}. Supports environment variable substitution.
	Template string `yaml:"template"`

	// SkipOnReset opts this source out of cycles carrying the reset flag.
	SkipOnReset bool `yaml:"skip_on_reset"`

	// Tag is an auxiliary value attached to every request this source
	// produces and round-tripped onto its status updates.
	Tag string `yaml:"tag"`
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values. A reference to an unset variable without a default
// is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		value, exists := os.LookupEnv(name)
		if !exists {
			if hasDefault {
				return sub[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", name)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in source URLs and templates.
// The port defaults to 8080.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	if len(c.Sources) == 0 {
		return errors.New("at least one source must be defined")
	}

	for i := range c.Sources {
		src := &c.Sources[i]

		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}

		set := 0
		for _, v := range []string{src.URL, src.BaseURL, src.Template} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("sources[%d] (%s): exactly one of url, base_url, or template is required", i, src.Name)
		}

		switch {
		case src.URL != "":
			expanded, err := expandEnvVars(src.URL)
			if err != nil {
				return fmt.Errorf("sources[%d] (%s): url: %w", i, src.Name, err)
			}
			src.URL = expanded
			if err := validateTarget(src.URL); err != nil {
				return fmt.Errorf("sources[%d] (%s): url: %w", i, src.Name, err)
			}

		case src.BaseURL != "":
			expanded, err := expandEnvVars(src.BaseURL)
			if err != nil {
				return fmt.Errorf("sources[%d] (%s): base_url: %w", i, src.Name, err)
			}
			src.BaseURL = expanded
			if err := validateTarget(src.BaseURL); err != nil {
				return fmt.Errorf("sources[%d] (%s): base_url: %w", i, src.Name, err)
			}

		case src.Template != "":
			expanded, err := expandEnvVars(src.Template)
			if err != nil {
				return fmt.Errorf("sources[%d] (%s): template: %w", i, src.Name, err)
			}
			src.Template = expanded
			// fail fast before the SDK tries to use an invalid template
			if _, err := template.New("").Parse(src.Template); err != nil {
				return fmt.Errorf("sources[%d] (%s): invalid template: %w", i, src.Name, err)
			}
		}
	}

	return nil
}

// validateTarget checks that a configured URL is absolute http(s).
func validateTarget(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	return nil
}

// Kind returns which assembler a source selects: "url", "base_url", or
// "template". Only meaningful after validation.
func (s SourceConfig) Kind() string {
	switch {
	case s.URL != "":
		return "url"
	case s.BaseURL != "":
		return "base_url"
	case s.Template != "":
		return "template"
	default:
		return ""
	}
}
