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

// twoFactorRepository implements TwoFactorRepository interface
type twoFactorRepository struct {
	db *database.Postgres
}

// NewTwoFactorRepository creates a new two-factor confirmation repository
func NewTwoFactorRepository(db *database.Postgres) TwoFactorRepository {
	return &twoFactorRepository{db: db}
}

// Create creates a pending two-factor confirmation for a user
func (r *twoFactorRepository) Create(ctx context.Context, confirmation *domain.TwoFactorConfirmation) error {
	query := `
		INSERT INTO two_factor_confirmations (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	// Generate UUID if not provided
	if confirmation.ID == "" {
		confirmation.ID = uuid.New().String()
	}

	if confirmation.CreatedAt.IsZero() {
		confirmation.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		confirmation.ID,
		confirmation.UserID,
		confirmation.CreatedAt,
		confirmation.ExpiresAt,
	)

	if err != nil {
		// Check for unique constraint violation (one confirmation per user)
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("confirmation already pending: %w", ErrDuplicateConfirmation)
			}
		}
		return fmt.Errorf("failed to create two-factor confirmation: %w", err)
	}

	return nil
}

// GetByUserID retrieves the pending confirmation for a user
func (r *twoFactorRepository) GetByUserID(ctx context.Context, userID string) (*domain.TwoFactorConfirmation, error) {
	query := `
		SELECT id, user_id, created_at, expires_at
		FROM two_factor_confirmations
		WHERE user_id = $1
	`

	confirmation := &domain.TwoFactorConfirmation{}

	err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(
		&confirmation.ID,
		&confirmation.UserID,
		&confirmation.CreatedAt,
		&confirmation.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("two-factor confirmation not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get two-factor confirmation: %w", err)
	}

	return confirmation, nil
}

// Delete deletes a confirmation by ID. The DELETE is a single atomic
// statement: of N concurrent callers racing on the same id, exactly one
// observes an affected row; the rest get ErrNotFound.
func (r *twoFactorRepository) Delete(ctx context.Context, confirmationID string) error {
	query := `DELETE FROM two_factor_confirmations WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, confirmationID)
	if err != nil {
		return fmt.Errorf("failed to delete two-factor confirmation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("two-factor confirmation with id %s not found: %w", confirmationID, ErrNotFound)
	}

	return nil
}

// DeleteExpired deletes all expired confirmations
func (r *twoFactorRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM two_factor_confirmations WHERE expires_at < $1`

	_, err := r.db.DB.ExecContext(ctx, query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired confirmations: %w", err)
	}

	return nil
}
