package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateLinkedAccount is returned when trying to link an already-linked provider identity
	ErrDuplicateLinkedAccount = errors.New("linked account already exists")

	// ErrDuplicateConfirmation is returned when a user already has a pending two-factor confirmation
	ErrDuplicateConfirmation = errors.New("two-factor confirmation already exists for this user")
)
