// Package email defines the core email data model shared by the flow and the dispatcher.
package email

import "strings"

// Attachment defaults applied when an attachment carries no type or name.
const (
	DefaultAttachmentType = "audio/mpeg"
	DefaultAttachmentName = "audio.mp3"
)

// BodyFormat selects how the message body is rendered.
type BodyFormat int

const (
	PlainText BodyFormat = iota
	HTML
)

// FormatFor returns HTML when contentType contains the literal substring "html",
// PlainText otherwise. The check is case-sensitive.
func FormatFor(contentType string) BodyFormat {
	if strings.Contains(contentType, "html") {
		return HTML
	}
	return PlainText
}

// MediaType returns the MIME type used for a body of this format.
func (f BodyFormat) MediaType() string {
	if f == HTML {
		return "text/html"
	}
	return "text/plain"
}

func (f BodyFormat) String() string {
	return f.MediaType()
}

// Message is a single outbound email with one body part and at most one attachment.
type Message struct {
	From       string
	To         []string
	Subject    string
	Body       string
	Format     BodyFormat
	Attachment *Attachment
}

// Attachment represents a file attached to an email message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// WithDefaults returns a copy of the attachment with empty fields
// replaced by DefaultAttachmentType and DefaultAttachmentName.
func (a Attachment) WithDefaults() Attachment {
	if a.ContentType == "" {
		a.ContentType = DefaultAttachmentType
	}
	if a.Filename == "" {
		a.Filename = DefaultAttachmentName
	}
	return a
}

// Result is the outcome of dispatching a Message.
type Result struct {
	MessageID string
	DryRun    bool
}
