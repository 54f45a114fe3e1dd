package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coldbrew-labs/runlet/internal/config"
	"github.com/coldbrew-labs/runlet/internal/loader"
	"github.com/coldbrew-labs/runlet/internal/runtime"
	"github.com/coldbrew-labs/runlet/internal/server"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Runlet execution server",
	Long: `Start the HTTP server exposing POST /execute.

Examples:
  runlet serve
  runlet serve --listen 0.0.0.0:3000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listenFlag != "" {
		cfg.Server.Listen = listenFlag
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	exec := newExecutor(cfg, logger)
	srv := server.New(cfg, exec, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

func newExecutor(cfg *config.Config, logger *slog.Logger) *runtime.Executor {
	ld := loader.NewHTTP(loader.HTTPOptions{
		Timeout:  cfg.Loader.Timeout,
		MaxBytes: cfg.Loader.MaxBytes,
		Logger:   logger,
	})
	return runtime.NewExecutor(ld, runtime.Options{
		FetchTimeout: cfg.Bridge.FetchTimeout,
		Logger:       logger,
	})
}
