package domain

import "time"

// UserRole enumerates the roles a user can hold
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents an identity record in the system.
// PasswordHash is nil for OAuth-only accounts; EmailVerifiedAt is nil
// until mailbox ownership has been proven.
type User struct {
	ID                 string     `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Email              *string    `json:"email" db:"email"`
	EmailVerifiedAt    *time.Time `json:"email_verified_at" db:"email_verified_at"`
	PasswordHash       *string    `json:"-" db:"password_hash"`
	Role               UserRole   `json:"role" db:"role"`
	IsTwoFactorEnabled bool       `json:"is_two_factor_enabled" db:"is_two_factor_enabled"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// IsEmailVerified reports whether the user has a verified email
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// HasPassword reports whether the user can sign in with credentials
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// LinkedAccount represents one external-provider identity bound to a user.
// UserID is a weak reference used for lookup; the account never owns the user.
type LinkedAccount struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	Provider          string    `json:"provider" db:"provider"` // google, github, ...
	ProviderAccountID string    `json:"provider_account_id" db:"provider_account_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// TwoFactorConfirmation is a single-use proof that the user completed an
// out-of-band second factor for the current sign-in attempt. At most one
// exists per user; the gate destroys it on consumption.
type TwoFactorConfirmation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired checks if the confirmation has outlived its validity window
func (c TwoFactorConfirmation) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
