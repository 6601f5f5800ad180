package service

import "errors"

// Sign-in failure taxonomy. Only ErrSecondFactorRequired and
// ErrStoreUnavailable are allowed to surface distinctly at the HTTP
// boundary; everything else collapses into a generic denial so response
// content cannot distinguish unknown emails from wrong passwords.
var (
	// ErrUserNotFound is returned when an identifier resolves to no user
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredential is returned on password mismatch
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNoCredential is returned when an OAuth-only account attempts password login
	ErrNoCredential = errors.New("account has no password credential")

	// ErrEmailUnverified is returned when a credentials sign-in lacks email verification
	ErrEmailUnverified = errors.New("email not verified")

	// ErrSecondFactorRequired is returned when two-factor is enabled and no confirmation exists
	ErrSecondFactorRequired = errors.New("second factor required")

	// ErrStoreUnavailable is returned on transient identity store failures; callers may retry
	ErrStoreUnavailable = errors.New("identity store unavailable")
)

// storeFailure tags a repository error as a retryable infrastructure
// failure while preserving the underlying cause.
func storeFailure(err error) error {
	return errors.Join(ErrStoreUnavailable, err)
}
