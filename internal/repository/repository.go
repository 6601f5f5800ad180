package repository

import (
	"github.com/idworks/signin-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	LinkedAccount LinkedAccountRepository
	TwoFactor     TwoFactorRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		LinkedAccount: NewLinkedAccountRepository(db),
		TwoFactor:     NewTwoFactorRepository(db),
	}
}
