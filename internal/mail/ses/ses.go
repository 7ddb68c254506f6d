// Package ses implements a mail transport that sends messages via AWS SES v2.
package ses

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/s3-mail-sender/internal/email"
)

const charset = "UTF-8"

// Config holds the configuration for creating a Transport.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport sends messages through the SES v2 API.
type Transport struct {
	client SendEmailAPI
}

// New creates a Transport. Static credentials are used when both keys are
// set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Transport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a Transport with a custom client, used for testing.
func NewWithClient(client SendEmailAPI) *Transport {
	return &Transport{client: client}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return "ses"
}

// Send delivers msg and returns the SES message ID.
// Messages with an attachment are sent as raw MIME, others use the simple format.
func (t *Transport) Send(ctx context.Context, msg *email.Message) (string, error) {
	var input *sesv2.SendEmailInput

	if msg.Attachment != nil {
		raw, err := buildRawMessage(msg)
		if err != nil {
			return "", fmt.Errorf("failed to build raw message: %w", err)
		}
		input = &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(msg.From),
			Destination:      &types.Destination{ToAddresses: msg.To},
			Content: &types.EmailContent{
				Raw: &types.RawMessage{Data: raw},
			},
		}
	} else {
		input = buildSimpleInput(msg)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("SES API request failed: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// buildSimpleInput creates a SendEmailInput carrying exactly one body.
func buildSimpleInput(msg *email.Message) *sesv2.SendEmailInput {
	content := &types.Content{
		Data:    aws.String(msg.Body),
		Charset: aws.String(charset),
	}

	body := &types.Body{}
	if msg.Format == email.HTML {
		body.Html = content
	} else {
		body.Text = content
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String(charset),
				},
				Body: body,
			},
		},
	}
}

// buildRawMessage constructs a multipart/mixed message with one body part
// and one attachment.
func buildRawMessage(msg *email.Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode(charset, msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := make(textproto.MIMEHeader)
	bodyHeader.Set("Content-Type", msg.Format.MediaType()+"; charset="+charset)
	bodyHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := part.Write([]byte(encodeBase64WithLineBreaks([]byte(msg.Body)))); err != nil {
		return nil, fmt.Errorf("failed to write body part: %w", err)
	}

	att := msg.Attachment
	attHeader := make(textproto.MIMEHeader)
	attHeader.Set("Content-Type", att.ContentType)
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))

	part, err = writer.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := part.Write([]byte(encodeBase64WithLineBreaks(att.Content))); err != nil {
		return nil, fmt.Errorf("failed to write attachment part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeBase64WithLineBreaks encodes bytes to base64 with 76-character line breaks per RFC 2045.
func encodeBase64WithLineBreaks(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := min(i+76, len(encoded))
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}
