// Package main is the entry point for the contentloader CLI.
//
// The content loader can be embedded as a library (SDK) or run as a
// standalone binary with YAML configuration. This CLI provides the
// standalone binary approach, exposing the pool over HTTP for browser
// hosts and other out-of-process surfaces.
//
// Usage:
//
//	contentloader serve -c config.yaml    # Start the HTTP surface
//	contentloader validate -c config.yaml # Validate configuration
//	contentloader version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "contentloader",
	Short: "A request pool for dynamic content loading",
	Long: `Contentloader coordinates dynamic content fetches for independent
UI components: it deduplicates identical URLs into a single fetch, cancels
stale in-flight requests when a new interaction arrives, and fans status
updates back out to every interested component.

Quick start:
  1. Create a config file (contentloader.yaml)
  2. Run: contentloader serve -c contentloader.yaml
  3. POST load triggers to http://localhost:8080/api/load

Example config:
  port: 8080
  sources:
    - name: article-list
      base_url: https://example.com/api/articles
    - name: teaser
      template: "https://example.com/api/teaser?tag={{.tag}}"`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this contentloader binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("contentloader %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
