package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	// ErrInvalidKind rejects movement kinds outside inflow/outflow.
	ErrInvalidKind = errors.New("invalid_kind")
	// ErrInvalidAmount rejects amounts below one minor unit (zero, negative).
	ErrInvalidAmount = errors.New("invalid_amount")
	// ErrInvalidDescription rejects empty movement descriptions.
	ErrInvalidDescription = errors.New("invalid_description")
	// ErrUnauthorized indicates a missing or unresolvable API token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadCredentials indicates a failed email/password check on login.
	ErrBadCredentials = errors.New("bad_credentials")
	// ErrEmailTaken indicates a registration attempt with an existing email.
	ErrEmailTaken = errors.New("email_taken")
)
