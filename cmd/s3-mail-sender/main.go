// Package main is the command-line entry point for the S3 mail sender.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shineum/s3-mail-sender/internal/app"
	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/logger"
	"github.com/shineum/s3-mail-sender/internal/mail"
)

var (
	configPath string
	envFile    string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:           "s3-mail-sender",
	Short:         "Send an S3 text object, with an optional audio attachment, by email",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "path to a .env file; ignored when missing")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the message instead of sending it")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Stdout carries the result JSON and the dry-run preview.
	logger.Setup(cfg.Logging.Level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	opts := []app.Option{
		app.WithLoader(func() (*config.Config, error) { return loadConfig(configPath) }),
	}
	if dryRun {
		opts = append(opts, app.WithMailOptions(mail.WithDryRun(true)))
	}

	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	result, err := a.Execute(ctx)
	if err != nil {
		slog.Error("mail flow failed", "error", err)
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// loadEnvFile populates unset environment variables from path.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
