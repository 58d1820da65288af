package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/helga-agentur/contentloader"
	"github.com/helga-agentur/contentloader/config"
	"github.com/helga-agentur/contentloader/internal/server"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the contentloader HTTP surface.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface",
	Long: `Start the contentloader HTTP surface.

The server will:
  - Load configuration from the specified YAML file
  - Register every configured source as a producer
  - Accept load triggers on POST /api/load (JSON or msgpack)
  - Stream status updates on GET /api/sse

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  contentloader serve -c config.yaml
  contentloader serve --config /etc/contentloader/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"port", cfg.Port,
	)

	pool, err := contentloader.New(
		contentloader.WithLogger(logger),
		contentloader.WithMaxConcurrency(cfg.MaxConcurrency),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	defer pool.Close()

	producers, err := config.BuildProducers(cfg, func(name string) contentloader.HandleFunc {
		return func(u contentloader.StatusUpdate) {
			attrs := []any{
				"source", name,
				"status", u.Status,
				"url", u.URL,
			}
			if u.Status == contentloader.StatusFailed {
				logger.Warn("content fetch failed", attrs...)
			} else {
				logger.Debug("content status", attrs...)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to build producers: %w", err)
	}

	for _, producer := range producers {
		if err := pool.RegisterProducer(producer); err != nil {
			return fmt.Errorf("failed to register producer: %w", err)
		}
	}

	bridge, err := contentloader.NewBridge(pool, logger)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = bridge.Run(ctx)
	}()

	srv := server.NewServer(pool, bridge, cfg.Port, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	logger.Info("contentloader listening",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"producers", len(producers),
	)

	<-ctx.Done()
	logger.Info("shutdown complete")
	return nil
}
