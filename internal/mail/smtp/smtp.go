// Package smtp implements a mail transport that submits messages over SMTP.
package smtp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/shineum/s3-mail-sender/internal/email"
)

// Config holds the SMTP connection parameters.
type Config struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS; otherwise STARTTLS is used when offered
	Username string
	Password string

	// RootCAs verifies the server certificate; the system pool is used when nil.
	RootCAs *x509.CertPool
}

// Dialer is the gomail operation used by Transport.
// Used for testing with mock implementations.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Transport sends one message per call through an SMTP server.
type Transport struct {
	dialer Dialer
}

// New creates a Transport for the given server.
// Credentials are only used when both username and password are set.
func New(cfg Config) *Transport {
	username, password := cfg.Username, cfg.Password
	if username == "" || password == "" {
		username, password = "", ""
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, username, password)
	dialer.SSL = cfg.Secure
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
		RootCAs:    cfg.RootCAs,
	}

	return &Transport{dialer: dialer}
}

// NewWithDialer creates a Transport with a custom dialer, used for testing.
func NewWithDialer(dialer Dialer) *Transport {
	return &Transport{dialer: dialer}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return "smtp"
}

// Send submits msg and returns the Message-ID header it was sent with.
// The dialer does not take a context, so cancellation is only checked
// before the connection is opened.
func (t *Transport) Send(ctx context.Context, msg *email.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m, id := buildMessage(msg)
	if err := t.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return id, nil
}

// buildMessage converts msg into a gomail message with one body part and
// at most one attachment.
func buildMessage(msg *email.Message) (*gomail.Message, string) {
	id := newMessageID(msg.From)

	m := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody(msg.Format.MediaType(), msg.Body)

	if att := msg.Attachment; att != nil {
		content := att.Content
		m.Attach(att.Filename,
			gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}

	return m, id
}

// newMessageID returns "<uuid@domain>" using the sender's domain.
func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.TrimRight(from[at+1:], ">")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
