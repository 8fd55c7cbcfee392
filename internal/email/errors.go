package email

import "errors"

// Errors raised by the builder and renderer. They mark caller bugs and are
// returned as errors; delivery failures never use them and are reported
// through the provider result instead.
var (
	// ErrInvalidArgument marks malformed caller input: bad address syntax,
	// blank required fields, mismatched list lengths, forbidden content.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingData marks a structurally required field that is absent at
	// build time: no recipients, no sender, no subject, no content.
	ErrMissingData = errors.New("missing data")

	// ErrBuildFailed wraps a MIME assembly failure on otherwise valid input.
	ErrBuildFailed = errors.New("message build failed")
)
