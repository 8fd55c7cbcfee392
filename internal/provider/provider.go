// Package provider defines the interface for email delivery backends and
// the normalized result of a send attempt.
package provider

import (
	"context"
	"fmt"

	"github.com/shineum/mailout/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Send performs exactly one blocking delivery attempt: it builds a snapshot
// from the message, renders it into the backend's wire format, invokes the
// transport, and normalizes the response.
//
// The error return is reserved for caller bugs (invalid arguments recorded
// on the builder, missing required data, MIME assembly failures). Transport
// and provider failures never come back as errors; they come back as
// unsuccessful Results. Callers check Result.Successful for delivery and
// errors.Is for misuse. There is no retry at this layer.
type Provider interface {
	Send(ctx context.Context, msg *email.Message) (Result, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// Result is the normalized outcome of one send attempt.
type Result struct {
	// Status is an HTTP-style status code; any value in [200,300) means
	// the provider accepted the message.
	Status int

	// MessageID is the provider-assigned id for tracking, when the
	// backend exposes one. SMTP has none.
	MessageID string

	// Message carries the provider's response body or error text on
	// failure, for logging and diagnostics.
	Message string
}

// OK returns a successful result without a message id.
func OK() Result {
	return Result{Status: 200}
}

// OKWithID returns a successful result carrying the provider message id.
func OKWithID(id string) Result {
	return Result{Status: 200, MessageID: id}
}

// Fail returns a generic failed result.
func Fail() Result {
	return Result{Status: 400}
}

// FailWithMessage returns a failed result carrying diagnostic text.
func FailWithMessage(msg string) Result {
	return Result{Status: 400, Message: msg}
}

// FailWithStatus returns a failed result with the provider's own status
// code and response body.
func FailWithStatus(status int, msg string) Result {
	return Result{Status: status, Message: msg}
}

// Successful reports whether the provider accepted the message.
func (r Result) Successful() bool {
	return r.Status >= 200 && r.Status < 300
}

// String formats the result for logs.
func (r Result) String() string {
	return fmt.Sprintf("%d [%s]", r.Status, r.MessageID)
}
