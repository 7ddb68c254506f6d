// Package parser decodes RFC 5322 messages with MIME multipart support.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/shineum/s3-mail-sender/internal/email"
)

// Message is a decoded email with its bodies and attachments.
type Message struct {
	From        string
	To          []string
	Subject     string
	MessageID   string
	TextBody    string
	HTMLBody    string
	Attachments []email.Attachment
	Header      mail.Header
}

var headerDecoder = new(mime.WordDecoder)

// Parse decodes a raw message. Transfer encodings are removed from the
// top-level body and from every part.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	result := &Message{
		Header:    msg.Header,
		From:      decodeHeader(msg.Header.Get("From")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		MessageID: msg.Header.Get("Message-Id"),
		To:        parseAddressList(msg.Header.Get("To")),
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content type %q: %w", contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return result, nil
	}

	body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	if mediaType == "text/html" {
		result.HTMLBody = string(body)
	} else {
		result.TextBody = string(body)
	}

	return result, nil
}

// parseMultipart processes a multipart body, extracting text/plain and
// text/html parts and attachments.
func parseMultipart(body io.Reader, boundary string, result *Message) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			if err := parseMultipart(part, params["boundary"], result); err != nil {
				return err
			}
			continue
		}

		// multipart.Reader already strips quoted-printable.
		content, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return fmt.Errorf("failed to read %s part: %w", mediaType, err)
		}

		isAttachment := strings.HasPrefix(part.Header.Get("Content-Disposition"), "attachment")
		switch {
		case isAttachment || (mediaType != "text/plain" && mediaType != "text/html"):
			result.Attachments = append(result.Attachments, email.Attachment{
				Filename:    extractFilename(part, params),
				ContentType: mediaType,
				Content:     content,
			})
		case mediaType == "text/html" && result.HTMLBody == "":
			result.HTMLBody = string(content)
		case mediaType == "text/plain" && result.TextBody == "":
			result.TextBody = string(content)
		}
	}
}

// decodeBody reads r and removes the named Content-Transfer-Encoding.
func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		return base64.StdEncoding.DecodeString(cleaned)
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

// extractFilename returns the Content-Disposition filename or the
// Content-Type "name" parameter.
func extractFilename(part *multipart.Part, params map[string]string) string {
	if fn := part.FileName(); fn != "" {
		return fn
	}
	return params["name"]
}

func decodeHeader(v string) string {
	decoded, err := headerDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// parseAddressList splits an address header into bare addresses.
func parseAddressList(raw string) []string {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		parts := strings.Split(raw, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, addr.Address)
	}
	return result
}
