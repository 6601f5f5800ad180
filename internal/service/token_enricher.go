package service

import (
	"context"
	"errors"

	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/repository"
)

// TokenEnricher rebuilds session token claims from current store state and
// projects claims into the externally visible session object. Claims are
// value objects: Enrich takes a copy and returns a new one, no shared
// mutable token crosses concurrent requests.
type TokenEnricher struct {
	users    repository.UserRepository
	accounts repository.LinkedAccountRepository
}

// NewTokenEnricher creates a new token enricher
func NewTokenEnricher(users repository.UserRepository, accounts repository.LinkedAccountRepository) *TokenEnricher {
	return &TokenEnricher{
		users:    users,
		accounts: accounts,
	}
}

// Enrich recomputes the identity claims from the user's current stored
// state. It runs on every refresh, not only at mint, so out-of-band role
// and flag changes propagate into issued sessions within one refresh
// cycle. Anonymous claims and stale subjects are returned unchanged.
// IssuedAt and ExpiresAt are never touched; the absolute lifetime set at
// mint holds.
func (e *TokenEnricher) Enrich(ctx context.Context, claims domain.SessionClaims, subjectID string) (domain.SessionClaims, error) {
	if subjectID == "" {
		return claims, nil
	}

	user, err := e.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Stale subject: hand the claims back untouched, the caller
			// treats the session as unauthenticated on next projection
			return claims, nil
		}
		return claims, storeFailure(err)
	}

	isOAuth := true
	if _, err := e.accounts.GetByUserID(ctx, user.ID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return claims, storeFailure(err)
		}
		isOAuth = false
	}

	claims.SubjectID = user.ID
	claims.Role = user.Role
	claims.Name = user.Name
	claims.IsOAuth = isOAuth
	claims.IsTwoFactorEnabled = user.IsTwoFactorEnabled
	if user.Email != nil {
		claims.Email = *user.Email
	} else {
		claims.Email = ""
	}

	return claims, nil
}

// Project copies the token claims into a session object. Pure, no lookups;
// per-request session reads never hit the identity store.
func (e *TokenEnricher) Project(claims domain.SessionClaims) domain.Session {
	return domain.Session{
		UserID:             claims.SubjectID,
		Role:               claims.Role,
		Name:               claims.Name,
		Email:              claims.Email,
		IsOAuth:            claims.IsOAuth,
		IsTwoFactorEnabled: claims.IsTwoFactorEnabled,
		ExpiresAt:          claims.ExpiryTime(),
	}
}
