// Package mailgun implements a Provider that sends emails via the MailGun
// messages API using its form-encoded wire format.
package mailgun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// defaultBaseURL is the production MailGun API root.
const defaultBaseURL = "https://api.mailgun.net/v3"

// maxDeliveryDelay is how far into the future MailGun accepts a scheduled
// delivery time. Anything later is sent immediately instead.
const maxDeliveryDelay = 72 * time.Hour

// Config holds the configuration for creating a MailGun Provider.
type Config struct {
	APIKey      string
	Domain      string
	DefaultFrom string
	DefaultName string
}

// Provider sends emails via the MailGun messages API.
type Provider struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// New creates a MailGun Provider. API key and sending domain are required.
func New(cfg Config) (*Provider, error) {
	return newWithOverrides(cfg, defaultBaseURL, &http.Client{Timeout: 30 * time.Second})
}

// newWithOverrides creates a Provider with a custom API root and HTTP
// client, used for testing.
func newWithOverrides(cfg Config, baseURL string, client *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing mailgun api key", email.ErrInvalidArgument)
	}
	if cfg.Domain == "" {
		return nil, fmt.Errorf("%w: missing mailgun domain", email.ErrInvalidArgument)
	}
	return &Provider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailgun"
}

// Send delivers an email message via the MailGun messages API. The request
// authenticates with HTTP Basic auth using the literal user "api".
func (p *Provider) Send(ctx context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.DefaultFrom(p.cfg.DefaultFrom, p.cfg.DefaultName).Build()
	if err != nil {
		return provider.Fail(), err
	}

	form := buildForm(snap, time.Now())

	endpoint := fmt.Sprintf("%s/%s/messages", p.baseURL, p.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return provider.Fail(), fmt.Errorf("%w: create request: %v", email.ErrBuildFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.Warn("mailgun request failed", "error", err)
		return provider.FailWithMessage(err.Error()), nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		slog.Warn("mailgun rejected message",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return provider.FailWithStatus(resp.StatusCode, string(body)), nil
	}

	// MailGun answers 200 with {"id": "...", "message": "Queued. ..."}.
	// An unparseable body still counts as delivered: the API already
	// accepted the message.
	var parsed struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Debug("mailgun response body not parseable", "error", err)
		return provider.OK(), nil
	}
	return provider.Result{
		Status:    resp.StatusCode,
		MessageID: parsed.ID,
		Message:   parsed.Message,
	}, nil
}

// buildForm maps a snapshot onto MailGun's form fields. Recipient lists are
// comma-joined display strings; a scheduled delivery time becomes
// o:deliverytime in RFC 2822 format when it falls within the 72 hour
// window MailGun accepts.
func buildForm(snap *email.Snapshot, now time.Time) url.Values {
	form := url.Values{}

	// the sender stays a bare address unless a display name was given
	form.Set("from", snap.From.String())
	form.Set("to", snap.AddressList(email.To))
	if cc := snap.AddressList(email.Cc); cc != "" {
		form.Set("cc", cc)
	}
	if bcc := snap.AddressList(email.Bcc); bcc != "" {
		form.Set("bcc", bcc)
	}
	form.Set("subject", snap.Subject)

	if snap.Text != "" {
		form.Set("text", snap.Text)
	}
	if snap.HTML != "" {
		form.Set("html", snap.HTML)
	}

	for name, value := range snap.Headers {
		form.Set("h:"+name, value)
	}

	if !snap.SendAt.IsZero() && snap.SendAt.Sub(now) <= maxDeliveryDelay {
		form.Set("o:deliverytime", snap.SendAt.Format(time.RFC1123Z))
	}

	return form
}
