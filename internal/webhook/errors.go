package webhook

import "errors"

// Handler failures are classified so the endpoint can decide how to answer
// the provider. Stripe redelivers on any non-2xx response, so every handler
// error maps to a 400 and the mutators stay safe to replay.
var (
	// ErrMissingField marks an event payload without a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrUserNotFound marks a customer id with no matching user, which
	// means user provisioning upstream has fallen behind.
	ErrUserNotFound = errors.New("user not found")
)
