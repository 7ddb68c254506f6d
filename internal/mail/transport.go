// Package mail dispatches a single email message, either through a live
// transport or as a logged dry-run.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/email"
	"github.com/shineum/s3-mail-sender/internal/mail/ses"
	"github.com/shineum/s3-mail-sender/internal/mail/smtp"
)

// Transport is the interface that mail delivery backends must implement.
type Transport interface {
	// Send submits the message and returns the identifier assigned to it.
	Send(ctx context.Context, msg *email.Message) (string, error)

	// Name returns the human-readable name of this transport.
	Name() string
}

// KnownTransport reports whether name selects a supported transport.
// An empty name selects SMTP.
func KnownTransport(name string) bool {
	switch name {
	case config.TransportSMTP, config.TransportSES, "":
		return true
	}
	return false
}

// NewTransport chooses the delivery backend named by cfg.Mail.Transport.
// Building a transport performs no network I/O.
func NewTransport(ctx context.Context, cfg *config.Config) (Transport, error) {
	switch cfg.Mail.Transport {
	case config.TransportSMTP, "":
		slog.Debug("using SMTP transport",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
			"secure", cfg.SMTP.Secure,
			"auth_enabled", cfg.AuthEnabled(),
		)
		return smtp.New(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		}), nil

	case config.TransportSES:
		region := cfg.SES.Region
		if region == "" {
			region = cfg.Storage.Region
		}
		slog.Debug("using AWS SES transport", "region", region)
		t, err := ses.New(ctx, ses.Config{
			Region:          region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES transport: %w", err)
		}
		return t, nil

	default:
		return nil, fmt.Errorf("%w: unknown mail transport %q", config.ErrConfiguration, cfg.Mail.Transport)
	}
}
