// Package main is the entry point for the mailout CLI: it builds one email
// message from flags and delivers it through the configured provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shineum/mailout/internal/config"
	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
	"github.com/shineum/mailout/internal/provider/mailgun"
	"github.com/shineum/mailout/internal/provider/resend"
	"github.com/shineum/mailout/internal/provider/sendgrid"
	"github.com/shineum/mailout/internal/provider/ses"
	"github.com/shineum/mailout/internal/provider/smtp"
	"github.com/shineum/mailout/internal/provider/stdout"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	from := flag.String("from", "", "sender address (overrides configured default)")
	fromName := flag.String("from-name", "", "sender display name")
	subject := flag.String("subject", "", "message subject")
	text := flag.String("text", "", "plain-text body")
	html := flag.String("html", "", "HTML body")
	sendAt := flag.String("send-at", "", "scheduled delivery time (RFC 3339, optional)")

	msg := email.New()
	flag.Func("to", "recipient address (repeatable)", func(v string) error {
		msg.To(v)
		return nil
	})
	flag.Func("cc", "carbon-copy address (repeatable)", func(v string) error {
		msg.Cc(v)
		return nil
	})
	flag.Func("bcc", "blind-carbon-copy address (repeatable)", func(v string) error {
		msg.Bcc(v)
		return nil
	})
	flag.Func("exclude", "address that must not receive the message (repeatable)", func(v string) error {
		msg.Exclude(v)
		return nil
	})
	flag.Func("header", "custom header as Name=Value (repeatable)", func(v string) error {
		name, value, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("header must be Name=Value, got %q", v)
		}
		msg.Header(name, value)
		return nil
	})
	flag.Func("attach", "file to attach (repeatable)", func(path string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		msg.AddAttachments(email.Attachment{
			MimeType: mimeTypeFor(path),
			Content:  content,
			FileName: filepath.Base(path),
		})
		return nil
	})
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	setupLogger(cfg.Logging.Level)

	if *from != "" {
		msg.FromNamed(*from, *fromName)
	} else if *fromName != "" {
		msg.SetFromName(*fromName)
	}
	msg.Subject(*subject).Text(*text).HTML(*html)

	if *sendAt != "" {
		at, err := time.Parse(time.RFC3339, *sendAt)
		if err != nil {
			slog.Error("invalid send-at time", "value", *sendAt, "error", err)
			os.Exit(2)
		}
		msg.SetSendAt(at)
	}

	// the configured fallback sender also covers providers that carry no
	// default of their own, like stdout
	msg.DefaultFrom(cfg.From.Email, cfg.From.Name)

	prov := selectProvider(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := prov.Send(ctx, msg)
	if err != nil {
		slog.Error("message rejected before delivery", "provider", prov.Name(), "error", err)
		os.Exit(2)
	}
	if !res.Successful() {
		slog.Error("delivery failed",
			"provider", prov.Name(),
			"status", res.Status,
			"detail", res.Message,
		)
		os.Exit(1)
	}

	slog.Info("message delivered",
		"provider", prov.Name(),
		"status", res.Status,
		"message_id", res.MessageID,
	)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery backend based on configuration. An
// explicit provider name must be fully configured; with the default
// ("stdout") the message is printed instead of delivered.
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "smtp":
		if !cfg.SMTPConfigured() {
			slog.Error("smtp provider selected but SMTP_HOST is required")
			os.Exit(2)
		}
		p, err := smtp.New(smtp.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			DefaultFrom: cfg.From.Email,
			DefaultName: cfg.From.Name,
		})
		if err != nil {
			slog.Error("failed to create smtp provider", "error", err)
			os.Exit(2)
		}
		slog.Info("using smtp provider", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return p

	case "sendgrid":
		if !cfg.SendGridConfigured() {
			slog.Error("sendgrid provider selected but SENDGRID_API_KEY is required")
			os.Exit(2)
		}
		p, err := sendgrid.New(sendgrid.Config{
			APIKey:      cfg.SendGrid.APIKey,
			DefaultFrom: cfg.From.Email,
			DefaultName: cfg.From.Name,
		})
		if err != nil {
			slog.Error("failed to create sendgrid provider", "error", err)
			os.Exit(2)
		}
		slog.Info("using sendgrid provider")
		return p

	case "mailgun":
		if !cfg.MailGunConfigured() {
			slog.Error("mailgun provider selected but MAILGUN_API_KEY and MAILGUN_DOMAIN are required")
			os.Exit(2)
		}
		p, err := mailgun.New(mailgun.Config{
			APIKey:      cfg.MailGun.APIKey,
			Domain:      cfg.MailGun.Domain,
			DefaultFrom: cfg.From.Email,
			DefaultName: cfg.From.Name,
		})
		if err != nil {
			slog.Error("failed to create mailgun provider", "error", err)
			os.Exit(2)
		}
		slog.Info("using mailgun provider", "domain", cfg.MailGun.Domain)
		return p

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("ses provider selected but SES_REGION is required")
			os.Exit(2)
		}
		p, err := ses.New(context.Background(), ses.Config{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			DefaultFrom:     cfg.From.Email,
			DefaultName:     cfg.From.Name,
		})
		if err != nil {
			slog.Error("failed to create ses provider", "error", err)
			os.Exit(2)
		}
		slog.Info("using ses provider", "region", cfg.SES.Region)
		return p

	case "resend":
		if !cfg.ResendConfigured() {
			slog.Error("resend provider selected but RESEND_API_KEY is required")
			os.Exit(2)
		}
		p, err := resend.New(resend.Config{
			APIKey:      cfg.Resend.APIKey,
			DefaultFrom: cfg.From.Email,
			DefaultName: cfg.From.Name,
		})
		if err != nil {
			slog.Error("failed to create resend provider", "error", err)
			os.Exit(2)
		}
		slog.Info("using resend provider")
		return p

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(2)
		return nil
	}
}

// mimeTypeFor guesses a content type from the file extension, falling back
// to a generic binary type.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
