// Package stdout implements a Provider that prints emails to standard
// output instead of delivering them. Useful for local development and
// dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// Provider prints email messages in a human-readable format.
type Provider struct {
	writer io.Writer
}

// New creates a stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// Send prints the message in a readable format. The message still goes
// through the full build, so validation failures surface the same way the
// real providers report them. Printing always succeeds.
func (p *Provider) Send(_ context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.Build()
	if err != nil {
		return provider.Fail(), err
	}

	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("From: %s\n", snap.From.String()))
	b.WriteString(fmt.Sprintf("To: %s\n", snap.AddressList(email.To)))

	if cc := snap.AddressList(email.Cc); cc != "" {
		b.WriteString(fmt.Sprintf("Cc: %s\n", cc))
	}
	if bcc := snap.AddressList(email.Bcc); bcc != "" {
		b.WriteString(fmt.Sprintf("Bcc: %s\n", bcc))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", snap.Subject))

	if !snap.SendAt.IsZero() {
		b.WriteString(fmt.Sprintf("Send at: %s\n", snap.SendAt))
	}

	b.WriteString("Body:\n")
	body := snap.Text
	if body == "" {
		body = snap.HTML
	}
	b.WriteString(body + "\n")

	if len(snap.Attachments) > 0 {
		attachments := make([]string, 0, len(snap.Attachments))
		for _, att := range snap.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.FileName, formatSize(len(att.Content))))
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(attachments, ", ")))
	}

	b.WriteString("========================================\n")

	fmt.Fprint(p.writer, b.String())
	return provider.OK(), nil
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
