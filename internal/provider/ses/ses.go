// Package ses implements a Provider that sends emails via AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mailout/internal/email"
	"github.com/shineum/mailout/internal/provider"
)

// Config holds the configuration for creating an SES Provider.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	DefaultFrom     string
	DefaultName     string
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Provider sends emails via the AWS SES v2 API.
type Provider struct {
	cfg    Config
	client SendEmailAPI
}

// New creates an SES Provider. When static credentials are absent the
// default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Provider, error) {
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

	return &Provider{
		cfg:    cfg,
		client: sesv2.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClient creates a Provider with a custom client, used for testing.
func NewWithClient(cfg Config, client SendEmailAPI) *Provider {
	return &Provider{cfg: cfg, client: client}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ses"
}

// Send delivers an email message via AWS SES v2. Messages with attachments
// go out as raw MIME; everything else uses the simple email shape, which
// carries both body kinds when present. SES has no scheduling, so a
// requested delivery time is ignored. API failures come back as an
// unsuccessful Result with a nil error.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (provider.Result, error) {
	snap, err := msg.DefaultFrom(p.cfg.DefaultFrom, p.cfg.DefaultName).Build()
	if err != nil {
		return provider.Fail(), err
	}

	var input *sesv2.SendEmailInput
	if len(snap.Attachments) > 0 {
		raw, err := snap.MIME()
		if err != nil {
			return provider.Fail(), err
		}
		input = &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(snap.From.String()),
			Destination:      buildDestination(snap),
			Content: &types.EmailContent{
				Raw: &types.RawMessage{Data: raw},
			},
		}
	} else {
		input = buildSimpleInput(snap)
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		slog.Warn("ses request failed", "error", err)
		return provider.FailWithMessage(err.Error()), nil
	}

	res := provider.Result{Status: http.StatusOK}
	if out.MessageId != nil {
		res.MessageID = *out.MessageId
	}
	return res, nil
}

// buildSimpleInput maps a snapshot onto the SES simple email shape.
func buildSimpleInput(snap *email.Snapshot) *sesv2.SendEmailInput {
	body := &types.Body{}
	if snap.HTML != "" {
		body.Html = &types.Content{
			Data:    aws.String(snap.HTML),
			Charset: aws.String("UTF-8"),
		}
	}
	if snap.Text != "" {
		body.Text = &types.Content{
			Data:    aws.String(snap.Text),
			Charset: aws.String("UTF-8"),
		}
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(snap.From.String()),
		Destination:      buildDestination(snap),
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(snap.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}
}

func buildDestination(snap *email.Snapshot) *types.Destination {
	return &types.Destination{
		ToAddresses:  bareList(snap.To),
		CcAddresses:  bareList(snap.Cc),
		BccAddresses: bareList(snap.Bcc),
	}
}

func bareList(list []email.Address) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Email)
	}
	return out
}
