// Package sendgrid implements a Provider that sends emails via the
// SendGrid v3 mail send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// defaultURL is the production mail send endpoint.
const defaultURL = "https://api.sendgrid.com/v3/mail/send"

// forbiddenContentPattern matches anything shaped like a SendGrid API key,
// "SG.<key id>.<key secret>". A body that contains one is almost certainly
// leaking a credential, so the send is refused before any network call.
var forbiddenContentPattern = regexp.MustCompile(`SG\.[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`)

// Config holds the configuration for creating a SendGrid Provider.
type Config struct {
	APIKey      string
	DefaultFrom string
	DefaultName string
}

// Provider sends emails via the SendGrid v3 API.
type Provider struct {
	cfg        Config
	url        string
	httpClient *http.Client
}

// New creates a SendGrid Provider. The API key is required.
func New(cfg Config) (*Provider, error) {
	return newWithOverrides(cfg, defaultURL, &http.Client{Timeout: 30 * time.Second})
}

// newWithOverrides creates a Provider with a custom endpoint and HTTP
// client, used for testing.
func newWithOverrides(cfg Config, url string, client *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing sendgrid api key", email.ErrInvalidArgument)
	}
	return &Provider{
		cfg:        cfg,
		url:        url,
		httpClient: client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sendgrid"
}

// Send delivers an email message via the SendGrid v3 mail send API.
// Builder and render faults surface as errors; API rejections come back as
// an unsuccessful Result with a nil error.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.DefaultFrom(p.cfg.DefaultFrom, p.cfg.DefaultName).Build()
	if err != nil {
		return provider.Fail(), err
	}

	if forbiddenContentPattern.MatchString(snap.Text) || forbiddenContentPattern.MatchString(snap.HTML) {
		return provider.Fail(), fmt.Errorf("%w: found a forbidden pattern in the content of the email", email.ErrInvalidArgument)
	}

	body, err := json.Marshal(buildSendRequest(snap))
	if err != nil {
		return provider.Fail(), fmt.Errorf("%w: encode request: %v", email.ErrBuildFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return provider.Fail(), fmt.Errorf("%w: create request: %v", email.ErrBuildFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.Warn("sendgrid request failed", "error", err)
		return provider.FailWithMessage(err.Error()), nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return provider.Result{
			Status:    resp.StatusCode,
			MessageID: resp.Header.Get("X-Message-Id"),
		}, nil
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Warn("sendgrid rejected message",
			"status", resp.StatusCode,
			"body", string(detail),
		)
		return provider.FailWithStatus(resp.StatusCode, string(detail)), nil
	}
}

// buildSendRequest maps a snapshot onto the SendGrid v3 request shape. The
// content array carries at most one entry: plain text wins over HTML when
// both bodies are set, since SendGrid generates the alternative itself.
func buildSendRequest(snap *email.Snapshot) *sendRequest {
	req := &sendRequest{
		From:    toAddress(snap.From),
		Subject: snap.Subject,
		Headers: snap.Headers,
	}

	pers := personalization{
		To:  toAddresses(snap.To),
		Cc:  toAddresses(snap.Cc),
		Bcc: toAddresses(snap.Bcc),
	}
	if !snap.SendAt.IsZero() {
		pers.SendAt = snap.SendAt.Unix()
	}
	req.Personalizations = []personalization{pers}

	if snap.Text != "" {
		req.Content = []content{{Type: "text/plain", Value: snap.Text}}
	} else {
		req.Content = []content{{Type: "text/html", Value: snap.HTML}}
	}

	for _, att := range snap.Attachments {
		req.Attachments = append(req.Attachments, attachment{
			Content:     base64.StdEncoding.EncodeToString(att.Content),
			Type:        att.MimeType,
			Filename:    att.FileName,
			Disposition: "attachment",
		})
	}

	return req
}

func toAddress(a email.Address) apiAddress {
	out := apiAddress{Email: a.Email}
	if a.Name != "" {
		out.Name = a.Name
	}
	return out
}

func toAddresses(list []email.Address) []apiAddress {
	if len(list) == 0 {
		return nil
	}
	out := make([]apiAddress, 0, len(list))
	for _, a := range list {
		out = append(out, toAddress(a))
	}
	return out
}
