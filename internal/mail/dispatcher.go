package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/email"
)

// ErrDelivery reports that the transport rejected the message or could not be reached.
var ErrDelivery = errors.New("mail delivery failed")

// dryRunPrefix starts every synthetic dry-run message ID.
const dryRunPrefix = "dry-run-"

// Dispatcher validates a message, applies attachment defaults and either
// hands it to the transport or, in dry-run mode, only reports it.
type Dispatcher struct {
	transport Transport
	dryRun    bool
	preview   io.Writer
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDryRun enables or disables dry-run mode.
func WithDryRun(dryRun bool) Option {
	return func(d *Dispatcher) {
		d.dryRun = dryRun
	}
}

// WithPreviewWriter sets the destination of dry-run previews, os.Stdout by default.
func WithPreviewWriter(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.preview = w
	}
}

// WithClock overrides the time source used for dry-run message IDs.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a Dispatcher sending through transport.
// The transport may be nil when dry-run is enabled.
func New(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		preview:   os.Stdout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromConfig builds a Dispatcher for cfg. The transport is only built for
// live delivery; in dry-run mode the transport name is checked but no client
// is created.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Dispatcher, error) {
	opts = append([]Option{WithDryRun(cfg.Mail.DryRun)}, opts...)
	d := New(nil, opts...)

	if d.dryRun {
		if !KnownTransport(cfg.Mail.Transport) {
			return nil, fmt.Errorf("%w: unknown mail transport %q", config.ErrConfiguration, cfg.Mail.Transport)
		}
		return d, nil
	}

	transport, err := NewTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.transport = transport
	return d, nil
}

// DryRun reports whether the dispatcher simulates delivery.
func (d *Dispatcher) DryRun() bool {
	return d.dryRun
}

// Send delivers msg and returns the assigned message ID.
func (d *Dispatcher) Send(ctx context.Context, msg *email.Message) (*email.Result, error) {
	if err := validate(msg); err != nil {
		slog.Error("refusing to send email", "error", err)
		return nil, err
	}

	out := *msg
	out.To = recipients(msg.To)
	if msg.Attachment != nil {
		att := msg.Attachment.WithDefaults()
		out.Attachment = &att
	}

	if d.dryRun {
		return d.simulate(&out)
	}

	if d.transport == nil {
		return nil, fmt.Errorf("%w: no mail transport configured", config.ErrConfiguration)
	}

	id, err := d.transport.Send(ctx, &out)
	if err != nil {
		slog.Error("failed to send email",
			"transport", d.transport.Name(),
			"to", strings.Join(out.To, ", "),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrDelivery, d.transport.Name(), err)
	}

	slog.Info("email sent",
		"transport", d.transport.Name(),
		"message_id", id,
		"to", strings.Join(out.To, ", "),
	)

	return &email.Result{MessageID: id}, nil
}

// simulate logs the message instead of delivering it.
func (d *Dispatcher) simulate(msg *email.Message) (*email.Result, error) {
	attrs := []any{
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"body_type", msg.Format.String(),
		"body_preview", truncate(msg.Body, previewLimit),
	}
	if msg.Attachment != nil {
		attrs = append(attrs,
			"attachment", msg.Attachment.Filename,
			"attachment_size", len(msg.Attachment.Content),
		)
	}
	slog.Info("dry-run: email not sent", attrs...)

	if err := writePreview(d.preview, msg); err != nil {
		slog.Warn("failed to write dry-run preview", "error", err)
	}

	return &email.Result{
		MessageID: dryRunPrefix + strconv.FormatInt(d.now().UnixMilli(), 10),
		DryRun:    true,
	}, nil
}

// validate rejects messages that would go out with a blank envelope.
func validate(msg *email.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", config.ErrConfiguration)
	}
	if strings.TrimSpace(msg.From) == "" {
		return fmt.Errorf("%w: sender address is required", config.ErrConfiguration)
	}
	if len(recipients(msg.To)) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", config.ErrConfiguration)
	}
	return nil
}

// recipients returns the trimmed, non-blank addresses of to.
func recipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
