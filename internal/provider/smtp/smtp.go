// Package smtp implements a Provider that relays rendered MIME messages to
// an SMTP server.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// Config holds the configuration for creating an SMTP Provider.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	DefaultFrom string
	DefaultName string
}

// sendFunc performs one SMTP transaction. Matches the signature of
// gosmtp.SendMail; replaced in tests.
type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Provider relays email messages to an SMTP server. The envelope recipient
// list covers to, cc and bcc; bcc addresses appear in the envelope but the
// rendered message keeps their header, matching how a submission agent
// strips it downstream.
type Provider struct {
	cfg  Config
	send sendFunc
}

// New creates an SMTP Provider. Host and port are required; credentials
// are optional for relays that accept unauthenticated submission.
func New(cfg Config) (*Provider, error) {
	return newWithSender(cfg, gosmtp.SendMail)
}

// newWithSender creates a Provider with a custom transaction function,
// used for testing.
func newWithSender(cfg Config, send sendFunc) (*Provider, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: missing smtp host", email.ErrInvalidArgument)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("%w: missing smtp port", email.ErrInvalidArgument)
	}
	return &Provider{cfg: cfg, send: send}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// Send renders the message to MIME and relays it in a single SMTP
// transaction. Transport failures come back as an unsuccessful Result with
// a nil error; only builder and render faults are Go errors. SMTP has no
// scheduling, so a requested delivery time is ignored.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.DefaultFrom(p.cfg.DefaultFrom, p.cfg.DefaultName).Build()
	if err != nil {
		return provider.Fail(), err
	}

	raw, err := snap.MIME()
	if err != nil {
		return provider.Fail(), err
	}

	var auth sasl.Client
	if p.cfg.Username != "" {
		auth = sasl.NewPlainClient("", p.cfg.Username, p.cfg.Password)
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	rcpts := snap.Envelope()

	type sent struct{ err error }
	done := make(chan sent, 1)
	go func() {
		done <- sent{p.send(addr, auth, snap.From.Email, rcpts, bytes.NewReader(raw))}
	}()

	select {
	case <-ctx.Done():
		return provider.FailWithMessage(ctx.Err().Error()), nil
	case res := <-done:
		if res.err != nil {
			slog.Warn("smtp delivery failed",
				"server", addr,
				"recipients", len(rcpts),
				"error", res.err,
			)
			return provider.FailWithMessage(res.err.Error()), nil
		}
	}

	slog.Debug("smtp delivery accepted", "server", addr, "recipients", len(rcpts))
	return provider.OK(), nil
}
