package dto

import "github.com/idworks/signin-service/internal/domain"

// RegisterRequest represents a password sign-up request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" validate:"required"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

// SignInRequest represents a password sign-in request
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// OAuthCallbackRequest carries the provider-verified identity delivered at
// the end of an external OAuth handshake. The handshake itself happens
// upstream; this service only receives its outcome.
type OAuthCallbackRequest struct {
	Provider          string `json:"provider" binding:"required" validate:"required"`
	ProviderAccountID string `json:"provider_account_id" binding:"required" validate:"required"`
	Email             string `json:"email" binding:"omitempty,email"`
	Name              string `json:"name"`
}

// SignInResponse represents a successful sign-in or refresh
type SignInResponse struct {
	SessionToken string         `json:"session_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	RefreshIn    int            `json:"refresh_in"`
	Session      domain.Session `json:"session"`
}

// TwoFactorRequiredResponse signals that the caller must complete the
// second factor and retry. This is the single rejection the boundary is
// allowed to distinguish from a generic denial.
type TwoFactorRequiredResponse struct {
	TwoFactorRequired bool `json:"two_factor_required"`
}

// UserResponse represents a registered user
type UserResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	Role            string  `json:"role"`
	IsEmailVerified bool    `json:"is_email_verified"`
	CreatedAt       string  `json:"created_at"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
