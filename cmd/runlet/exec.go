package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coldbrew-labs/runlet/internal/config"
	"github.com/coldbrew-labs/runlet/types"
)

var execCmd = &cobra.Command{
	Use:   "exec <url>",
	Short: "Execute a remote payload once and print the result envelope",
	Long: `Download and execute a .js or .wasm payload without starting the server.

Examples:
  runlet exec https://example.com/script.js
  runlet exec https://example.com/module.wasm`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	exec := newExecutor(cfg, logger)
	resp, execErr := exec.Execute(context.Background(), args[0])

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if execErr != nil {
		var app types.AppError
		if !errors.As(execErr, &app) {
			return execErr
		}
		if err := enc.Encode(types.ErrorResponse(app)); err != nil {
			return err
		}
		os.Exit(1)
	}
	return enc.Encode(resp)
}
