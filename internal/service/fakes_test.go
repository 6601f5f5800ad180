package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/repository"
)

// fakeStore is an in-memory identity store shared by the fake
// repositories. All operations are atomic under a single mutex, matching
// the atomic single-record semantics the orchestrator requires.
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	accounts      map[string]*domain.LinkedAccount
	confirmations map[string]*domain.TwoFactorConfirmation // keyed by user id
	nextID        int
	unavailable   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]*domain.User),
		accounts:      make(map[string]*domain.LinkedAccount),
		confirmations: make(map[string]*domain.TwoFactorConfirmation),
	}
}

func (s *fakeStore) genID() string {
	s.nextID++
	return fmt.Sprintf("id-%d", s.nextID)
}

func (s *fakeStore) addUser(u domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.genID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	copied := u
	s.users[u.ID] = &copied
	return &u
}

func (s *fakeStore) addAccount(a domain.LinkedAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.genID()
	}
	copied := a
	s.accounts[a.Provider+"/"+a.ProviderAccountID] = &copied
}

func (s *fakeStore) addConfirmation(c domain.TwoFactorConfirmation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.genID()
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = time.Now().Add(5 * time.Minute)
	}
	copied := c
	s.confirmations[c.UserID] = &copied
}

func (s *fakeStore) hasConfirmation(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.confirmations[userID]
	return ok
}

func (s *fakeStore) user(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied
	}
	return nil
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.unavailable {
		return fmt.Errorf("connection refused")
	}
	if user.ID == "" {
		user.ID = r.store.genID()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Email != nil {
		for _, existing := range r.store.users {
			if existing.Email != nil && *existing.Email == *user.Email {
				return repository.ErrDuplicateEmail
			}
		}
	}
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.unavailable {
		return nil, fmt.Errorf("connection refused")
	}
	for _, u := range r.store.users {
		if u.Email != nil && *u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.unavailable {
		return nil, fmt.Errorf("connection refused")
	}
	if u, ok := r.store.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdateEmailVerified(_ context.Context, userID string, verifiedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerifiedAt = &verifiedAt
	return nil
}

type fakeAccountRepo struct{ store *fakeStore }

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.LinkedAccount) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := account.Provider + "/" + account.ProviderAccountID
	if _, ok := r.store.accounts[key]; ok {
		return repository.ErrDuplicateLinkedAccount
	}
	if account.ID == "" {
		account.ID = r.store.genID()
	}
	copied := *account
	r.store.accounts[key] = &copied
	return nil
}

func (r *fakeAccountRepo) GetByProvider(_ context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.accounts[provider+"/"+providerAccountID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByUserID(_ context.Context, userID string) (*domain.LinkedAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.accounts {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) Delete(_ context.Context, accountID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key, a := range r.store.accounts {
		if a.ID == accountID {
			delete(r.store.accounts, key)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeTwoFactorRepo struct{ store *fakeStore }

func (r *fakeTwoFactorRepo) Create(_ context.Context, confirmation *domain.TwoFactorConfirmation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.confirmations[confirmation.UserID]; ok {
		return repository.ErrDuplicateConfirmation
	}
	if confirmation.ID == "" {
		confirmation.ID = r.store.genID()
	}
	copied := *confirmation
	r.store.confirmations[confirmation.UserID] = &copied
	return nil
}

func (r *fakeTwoFactorRepo) GetByUserID(_ context.Context, userID string) (*domain.TwoFactorConfirmation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.confirmations[userID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

// Delete is atomic: of N concurrent callers only the one that still finds
// the record succeeds, mirroring the SQL DELETE RowsAffected contract.
func (r *fakeTwoFactorRepo) Delete(_ context.Context, confirmationID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for userID, c := range r.store.confirmations {
		if c.ID == confirmationID {
			delete(r.store.confirmations, userID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTwoFactorRepo) DeleteExpired(_ context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for userID, c := range r.store.confirmations {
		if c.IsExpired() {
			delete(r.store.confirmations, userID)
		}
	}
	return nil
}

// fakeRevocations is an in-memory RevocationStore
type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]bool)}
}

func (f *fakeRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ttl > 0 {
		f.revoked[token] = true
	}
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[token], nil
}

func fakeRepositories(store *fakeStore) *repository.Repositories {
	return &repository.Repositories{
		User:          &fakeUserRepo{store: store},
		LinkedAccount: &fakeAccountRepo{store: store},
		TwoFactor:     &fakeTwoFactorRepo{store: store},
	}
}
