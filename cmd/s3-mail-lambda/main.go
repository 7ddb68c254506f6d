// Package main is the AWS Lambda entry point for the S3 mail sender.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/shineum/s3-mail-sender/internal/app"
	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/function"
	"github.com/shineum/s3-mail-sender/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, os.Stdout)

	// The S3 client is built once per container and reused across invocations.
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}

	lambda.Start(function.NewHandler(a))
}
