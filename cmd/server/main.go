// Package main implements the entry point for the reportd server, which
// accepts research-report generation requests, runs them in the background
// and fires recurring submissions on cron schedules.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/platform/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root without a subcommand
// serves, so `reportd` and `reportd serve` are equivalent.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	serve := func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context(), config.Options{
			ConfigFile: configFile,
			Viper:      v,
			DotEnv:     true,
		})
	}

	root := &cobra.Command{
		Use:   "reportd",
		Short: "reportd - research report task orchestration service",
		Long: `reportd accepts report generation requests over HTTP, runs each one in the
background, tracks progress, and fires recurring submissions on cron schedules.

Examples:
  reportd                          # Serve with defaults and REPORTD_* environment
  reportd serve --port 9000        # Serve on another port
  reportd --config reportd.yaml    # Serve with a YAML config file`,
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().Int("port", 0, "HTTP listen port (overrides server.port)")
	_ = v.BindPFlag("server.port", root.PersistentFlags().Lookup("port"))

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and scheduler",
		RunE:  serve,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "reportd %s\n", version)
			return err
		},
	})

	return root
}

// runServer loads configuration, sets up logging, wires the application and
// blocks until ctx is cancelled and shutdown completes.
func runServer(ctx context.Context, opts config.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"max_concurrent", cfg.Task.MaxConcurrent,
		"generator", cfg.Generator.Kind)

	app, err := newApplication(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
