package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/pkg/database"
	"github.com/lib/pq"
)

// linkedAccountRepository implements LinkedAccountRepository interface
type linkedAccountRepository struct {
	db *database.Postgres
}

// NewLinkedAccountRepository creates a new linked account repository
func NewLinkedAccountRepository(db *database.Postgres) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

// Create creates a new linked account record
func (r *linkedAccountRepository) Create(ctx context.Context, account *domain.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (id, user_id, provider, provider_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Generate UUID if not provided
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Provider,
		account.ProviderAccountID,
		account.CreatedAt,
	)

	if err != nil {
		// Check for unique constraint violation (duplicate provider + provider_account_id)
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("linked account already exists: %w", ErrDuplicateLinkedAccount)
			}
		}
		return fmt.Errorf("failed to create linked account: %w", err)
	}

	return nil
}

// GetByProvider retrieves a linked account by provider and provider account ID
func (r *linkedAccountRepository) GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, created_at
		FROM linked_accounts
		WHERE provider = $1 AND provider_account_id = $2
	`

	return r.scanAccount(r.db.DB.QueryRowContext(ctx, query, provider, providerAccountID))
}

// GetByUserID retrieves the most recently linked account for a user.
// Callers use presence alone to derive the OAuth-origin flag.
func (r *linkedAccountRepository) GetByUserID(ctx context.Context, userID string) (*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, created_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanAccount(r.db.DB.QueryRowContext(ctx, query, userID))
}

func (r *linkedAccountRepository) scanAccount(row *sql.Row) (*domain.LinkedAccount, error) {
	account := &domain.LinkedAccount{}

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ProviderAccountID,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("linked account not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}

	return account, nil
}

// Delete deletes a linked account by ID
func (r *linkedAccountRepository) Delete(ctx context.Context, accountID string) error {
	query := `DELETE FROM linked_accounts WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("linked account with id %s not found: %w", accountID, ErrNotFound)
	}

	return nil
}
