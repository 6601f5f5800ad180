package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/idworks/signin-service/pkg/database"
)

// RevocationStore defines methods for session token revocation
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// SessionRevocationStore marks signed-out session tokens as revoked in
// Redis until their absolute expiry. Only the token hash is stored.
type SessionRevocationStore struct {
	redis *database.Redis
}

var _ RevocationStore = &SessionRevocationStore{}

// NewSessionRevocationStore creates a new revocation store
func NewSessionRevocationStore(redis *database.Redis) *SessionRevocationStore {
	return &SessionRevocationStore{redis: redis}
}

// Revoke marks a session token as revoked for the remainder of its lifetime
func (s *SessionRevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past absolute expiry, nothing to revoke
		return nil
	}

	err := s.redis.Client.Set(ctx, s.key(token), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsRevoked checks whether a session token has been revoked
func (s *SessionRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := s.redis.Client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return exists > 0, nil
}

func (s *SessionRevocationStore) key(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("revoked:session:%s", hex.EncodeToString(hash[:]))
}
