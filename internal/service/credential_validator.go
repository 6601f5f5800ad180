package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/repository"
	"github.com/idworks/signin-service/internal/utils"
)

// CredentialValidator checks a presented password against the stored
// credential hash. Lookup only, no counters or lockouts.
type CredentialValidator struct {
	users repository.UserRepository
}

// NewCredentialValidator creates a new credential validator
func NewCredentialValidator(users repository.UserRepository) *CredentialValidator {
	return &CredentialValidator{users: users}
}

// Validate looks up the user by email and compares the presented password
// against the stored bcrypt hash. The comparison is constant-time.
func (v *CredentialValidator) Validate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := v.users.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no user for identifier: %w", ErrUserNotFound)
		}
		return nil, storeFailure(err)
	}

	if !user.HasPassword() {
		return nil, fmt.Errorf("oauth-only account: %w", ErrNoCredential)
	}

	if !utils.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, fmt.Errorf("password mismatch: %w", ErrInvalidCredential)
	}

	return user, nil
}
