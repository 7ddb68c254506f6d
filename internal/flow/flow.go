// Package flow runs one mail invocation: validate the configuration, fetch
// the text and optional audio objects, then send a single message.
package flow

import (
	"context"
	"log/slog"

	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/email"
	"github.com/shineum/s3-mail-sender/internal/storage"
)

// Fetcher retrieves objects from storage.
type Fetcher interface {
	FetchText(ctx context.Context, bucket, key string) (*storage.TextContent, error)
	FetchBinary(ctx context.Context, bucket, key string) (*storage.BinaryContent, error)
}

// Sender dispatches a composed message.
type Sender interface {
	Send(ctx context.Context, msg *email.Message) (*email.Result, error)
}

// Result is the outcome reported to the caller.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	DryRun    bool   `json:"dryRun"`
}

// Flow composes a fetcher and a sender.
type Flow struct {
	fetcher Fetcher
	sender  Sender
}

// New creates a Flow.
func New(fetcher Fetcher, sender Sender) *Flow {
	return &Flow{fetcher: fetcher, sender: sender}
}

// Run executes the flow once. Errors from the fetcher and sender are
// returned unchanged; a failed audio fetch aborts the send.
func (f *Flow) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return nil, err
	}

	bucket := cfg.Storage.Bucket
	recipients := cfg.Recipients()

	slog.Info("starting mail flow",
		"bucket", bucket,
		"text_key", cfg.Storage.TextKey,
		"audio_key", cfg.Storage.AudioKey,
		"recipients", len(recipients),
	)

	text, err := f.fetcher.FetchText(ctx, bucket, cfg.Storage.TextKey)
	if err != nil {
		return nil, err
	}

	msg := &email.Message{
		From:    cfg.Mail.From,
		To:      recipients,
		Subject: cfg.SubjectOrDefault(),
		Body:    text.Body,
		Format:  email.FormatFor(text.ContentType),
	}

	if key := cfg.Storage.AudioKey; key != "" {
		audio, err := f.fetcher.FetchBinary(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		msg.Attachment = &email.Attachment{
			Filename:    audio.Filename,
			ContentType: audio.ContentType,
			Content:     audio.Content,
		}
	}

	sent, err := f.sender.Send(ctx, msg)
	if err != nil {
		return nil, err
	}

	slog.Info("mail flow completed",
		"message_id", sent.MessageID,
		"dry_run", sent.DryRun,
	)

	return &Result{
		Success:   true,
		MessageID: sent.MessageID,
		DryRun:    sent.DryRun,
	}, nil
}
