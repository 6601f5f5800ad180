package repository

import (
	"context"
	"time"

	"github.com/idworks/signin-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateEmailVerified(ctx context.Context, userID string, verifiedAt time.Time) error
}

// LinkedAccountRepository defines methods for external-provider account links
type LinkedAccountRepository interface {
	Create(ctx context.Context, account *domain.LinkedAccount) error
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error)
	GetByUserID(ctx context.Context, userID string) (*domain.LinkedAccount, error)
	Delete(ctx context.Context, accountID string) error
}

// TwoFactorRepository defines methods for pending two-factor confirmations
type TwoFactorRepository interface {
	Create(ctx context.Context, confirmation *domain.TwoFactorConfirmation) error
	GetByUserID(ctx context.Context, userID string) (*domain.TwoFactorConfirmation, error)
	// Delete removes the confirmation with the given id. It returns
	// ErrNotFound if the record no longer exists, so concurrent callers
	// racing on the same confirmation observe exactly one winner.
	Delete(ctx context.Context, confirmationID string) error
	DeleteExpired(ctx context.Context) error
}
