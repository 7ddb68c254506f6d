package mail

import (
	"fmt"
	"io"
	"strings"

	"github.com/shineum/s3-mail-sender/internal/email"
)

// previewLimit is the number of body characters shown in a dry-run preview.
const previewLimit = 500

const separator = "============================================================\n"

// writePreview prints the message in a human-readable block.
func writePreview(w io.Writer, msg *email.Message) error {
	var b strings.Builder

	b.WriteString(separator)
	b.WriteString("[MAIL DRY-RUN] simulating mail delivery\n")
	b.WriteString(separator)
	fmt.Fprintf(&b, "From:       %s\n", msg.From)
	fmt.Fprintf(&b, "To:         %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject:    %s\n", msg.Subject)
	fmt.Fprintf(&b, "Body Type:  %s\n", msg.Format)

	if msg.Attachment != nil {
		fmt.Fprintf(&b, "Attachment: %s (%s)\n", msg.Attachment.Filename, formatSize(len(msg.Attachment.Content)))
	} else {
		b.WriteString("Attachment: none\n")
	}

	b.WriteString(strings.Repeat("-", len(separator)-1) + "\n")
	b.WriteString(truncate(msg.Body, previewLimit) + "\n")
	b.WriteString(separator)

	_, err := io.WriteString(w, b.String())
	return err
}

// truncate shortens s to limit characters, appending "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
