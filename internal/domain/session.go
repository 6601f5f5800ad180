package domain

import "time"

// Origin identifies the authentication channel used for a sign-in attempt
type Origin string

// OriginCredentials marks password-based sign-in; any other value is the
// name of an OAuth provider.
const OriginCredentials Origin = "credentials"

// IsOAuth reports whether the origin is an external OAuth provider
func (o Origin) IsOAuth() bool {
	return o != OriginCredentials && o != ""
}

// SessionClaims is the claim set embedded in the session token. It is a
// value object: refresh re-derives a new value from current store state
// instead of mutating a shared token in place. IssuedAt and ExpiresAt are
// fixed at mint time; refresh never extends the absolute lifetime.
type SessionClaims struct {
	SubjectID          string   `json:"subjectId"`
	Role               UserRole `json:"role"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	IsOAuth            bool     `json:"isOAuth"`
	IsTwoFactorEnabled bool     `json:"isTwoFactorEnabled"`
	IssuedAt           int64    `json:"iat"`
	ExpiresAt          int64    `json:"exp"`
}

// IsAnonymous reports whether the claims carry no subject
func (c SessionClaims) IsAnonymous() bool {
	return c.SubjectID == ""
}

// IsExpired checks if the claims are past their absolute expiry
func (c SessionClaims) IsExpired() bool {
	return time.Now().Unix() > c.ExpiresAt
}

// ExpiryTime returns the absolute expiry as a time.Time
func (c SessionClaims) ExpiryTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Session is the externally visible session object projected from the
// token claims. Pure copy, never hits the store.
type Session struct {
	UserID             string    `json:"user_id"`
	Role               UserRole  `json:"role"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	IsOAuth            bool      `json:"is_oauth"`
	IsTwoFactorEnabled bool      `json:"is_two_factor_enabled"`
	ExpiresAt          time.Time `json:"expires_at"`
}
