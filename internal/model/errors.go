package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLinkExpired is returned when a capability link is past its expiry time.
	ErrLinkExpired = errors.New("link has expired")
	// ErrLinkMaxUses is returned when a redemption would exceed the link's use budget.
	ErrLinkMaxUses = errors.New("link has reached maximum uses")
	// ErrLinkUsed is returned when a link has already been terminally consumed.
	ErrLinkUsed = errors.New("link has already been used")

	// ErrInvalidCredentials is returned on password or second-factor mismatch.
	// The message is deliberately generic.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTwoFactorRequired is returned when the account has TOTP enabled and
	// no code was supplied with the login attempt.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrPermissionDenied is returned when the caller is authenticated but not
	// allowed to act on the entity.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoCredentials is returned when a passkey ceremony is requested for an
	// account with no registered credentials.
	ErrNoCredentials = errors.New("no registered credentials")
	// ErrDuplicateCredential is returned when a credential ID is already
	// registered anywhere in the system.
	ErrDuplicateCredential = errors.New("credential already registered")
	// ErrVerificationFailed is returned when a WebAuthn response does not
	// verify against the expected challenge, origin or relying party.
	ErrVerificationFailed = errors.New("ceremony verification failed")
	// ErrPossibleClone is returned when an authenticator reports a signature
	// counter lower than or equal to the stored one. Stored state must not be
	// updated on this path.
	ErrPossibleClone = errors.New("signature counter regressed, possible cloned authenticator")
)

// ValidationError marks malformed input rejected before any cryptographic or
// storage work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
