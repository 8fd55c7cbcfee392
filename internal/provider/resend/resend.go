// Package resend implements a Provider that sends emails via the Resend
// API using the official Go SDK.
package resend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// Config holds the configuration for creating a Resend Provider.
type Config struct {
	APIKey      string
	DefaultFrom string
	DefaultName string
}

// emailsAPI is the slice of the Resend client the provider needs. Used for
// testing with mock implementations.
type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Provider sends emails via the Resend API.
type Provider struct {
	cfg    Config
	emails emailsAPI
}

// New creates a Resend Provider. The API key is required.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing resend api key", email.ErrInvalidArgument)
	}
	return &Provider{
		cfg:    cfg,
		emails: resend.NewClient(cfg.APIKey).Emails,
	}, nil
}

// NewWithClient creates a Provider with a custom emails API, used for
// testing.
func NewWithClient(cfg Config, emails emailsAPI) *Provider {
	return &Provider{cfg: cfg, emails: emails}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "resend"
}

// Send delivers an email message via the Resend API. SDK-level failures
// come back as an unsuccessful Result with a nil error.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.DefaultFrom(p.cfg.DefaultFrom, p.cfg.DefaultName).Build()
	if err != nil {
		return provider.Fail(), err
	}

	sent, err := p.emails.SendWithContext(ctx, buildRequest(snap))
	if err != nil {
		slog.Warn("resend request failed", "error", err)
		return provider.FailWithMessage(err.Error()), nil
	}

	return provider.Result{
		Status:    http.StatusOK,
		MessageID: sent.Id,
	}, nil
}

// buildRequest maps a snapshot onto the Resend SDK request. Addresses use
// the "Name <email>" display form the API accepts.
func buildRequest(snap *email.Snapshot) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    snap.From.String(),
		To:      displayList(snap.To),
		Cc:      displayList(snap.Cc),
		Bcc:     displayList(snap.Bcc),
		Subject: snap.Subject,
		Text:    snap.Text,
		Html:    snap.HTML,
		Headers: snap.Headers,
	}

	for _, att := range snap.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    att.FileName,
			Content:     att.Content,
			ContentType: att.MimeType,
		})
	}

	if !snap.SendAt.IsZero() {
		req.ScheduledAt = snap.SendAt.Format(time.RFC3339)
	}

	return req
}

func displayList(list []email.Address) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.String())
	}
	return out
}
