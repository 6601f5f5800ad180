package service

import (
	"context"

	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/dto"
)

// Orchestrator sequences credential validation, email-verification and
// second-factor gating on every sign-in, and re-derives session token
// claims on every refresh.
type Orchestrator interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	PasswordSignIn(ctx context.Context, req *dto.SignInRequest) (*SignInResult, error)
	OAuthSignIn(ctx context.Context, req *dto.OAuthCallbackRequest) (*SignInResult, error)
	EvaluateSignIn(ctx context.Context, user *domain.User, origin domain.Origin) (Decision, error)
	RefreshToken(ctx context.Context, tokenString string) (*SignInResult, error)
	ValidateToken(ctx context.Context, tokenString string) (domain.SessionClaims, error)
	ProjectSession(claims domain.SessionClaims) domain.Session
	OnAccountLinked(ctx context.Context, userID string) error
	SignOut(ctx context.Context, tokenString string) error
}
