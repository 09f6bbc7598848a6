// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrFeatureLocked     = errors.New("feature requires an active subscription")
	ErrDuplicateEntry    = errors.New("duplicate entry") // Registering an email that already has an account
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNoActiveSession   = errors.New("no active session")
	ErrCorruptState      = errors.New("corrupt persisted state")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
