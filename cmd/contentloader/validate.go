package main

import (
	"fmt"

	"github.com/helga-agentur/contentloader/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a contentloader configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  contentloader validate -c config.yaml
  contentloader validate --config /etc/contentloader/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	byKind := make(map[string]int)
	for _, src := range cfg.Sources {
		byKind[src.Kind()]++
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:            %d\n", cfg.Port)
	fmt.Printf("  Max concurrency: %d\n", cfg.MaxConcurrency)
	fmt.Printf("  Sources:         %d static + %d base-url + %d template = %d total\n",
		byKind["url"], byKind["base_url"], byKind["template"], len(cfg.Sources))

	return nil
}
