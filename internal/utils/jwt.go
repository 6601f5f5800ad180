package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/idworks/signin-service/internal/domain"
)

// SessionTokenManager signs and parses session tokens. The claim shape
// {subjectId, role, name, email, isOAuth, isTwoFactorEnabled, iat, exp}
// is an external wire contract and stays bit-stable across refreshes.
type SessionTokenManager struct {
	secret []byte
	maxAge time.Duration
}

// NewSessionTokenManager creates a new session token manager
func NewSessionTokenManager(secret string, maxAge time.Duration) *SessionTokenManager {
	return &SessionTokenManager{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// NewClaims builds the initial claim set for a freshly authenticated user.
// IssuedAt and ExpiresAt are fixed here; refresh never moves them.
func (m *SessionTokenManager) NewClaims(user *domain.User) domain.SessionClaims {
	now := time.Now()

	claims := domain.SessionClaims{
		SubjectID:          user.ID,
		Role:               user.Role,
		Name:               user.Name,
		IsTwoFactorEnabled: user.IsTwoFactorEnabled,
		IssuedAt:           now.Unix(),
		ExpiresAt:          now.Add(m.maxAge).Unix(),
	}
	if user.Email != nil {
		claims.Email = *user.Email
	}

	return claims
}

// Sign serializes the claims into a signed session token
func (m *SessionTokenManager) Sign(claims domain.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"subjectId":          claims.SubjectID,
		"role":               string(claims.Role),
		"name":               claims.Name,
		"email":              claims.Email,
		"isOAuth":            claims.IsOAuth,
		"isTwoFactorEnabled": claims.IsTwoFactorEnabled,
		"iat":                claims.IssuedAt,
		"exp":                claims.ExpiresAt,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Parse validates a session token and returns its claims
func (m *SessionTokenManager) Parse(tokenString string) (domain.SessionClaims, error) {
	var claims domain.SessionClaims

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return claims, fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid {
		return claims, fmt.Errorf("invalid session token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return claims, fmt.Errorf("invalid session token claims")
	}

	subjectID, ok := mapClaims["subjectId"].(string)
	if !ok {
		return claims, fmt.Errorf("invalid subjectId in session token")
	}

	role, ok := mapClaims["role"].(string)
	if !ok {
		return claims, fmt.Errorf("invalid role in session token")
	}

	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return claims, fmt.Errorf("invalid exp in session token")
	}

	iat, ok := mapClaims["iat"].(float64)
	if !ok {
		return claims, fmt.Errorf("invalid iat in session token")
	}

	name, _ := mapClaims["name"].(string)
	email, _ := mapClaims["email"].(string)
	isOAuth, _ := mapClaims["isOAuth"].(bool)
	isTwoFactorEnabled, _ := mapClaims["isTwoFactorEnabled"].(bool)

	claims = domain.SessionClaims{
		SubjectID:          subjectID,
		Role:               domain.UserRole(role),
		Name:               name,
		Email:              email,
		IsOAuth:            isOAuth,
		IsTwoFactorEnabled: isTwoFactorEnabled,
		IssuedAt:           int64(iat),
		ExpiresAt:          int64(exp),
	}

	if claims.IsExpired() {
		return claims, fmt.Errorf("session token is expired")
	}

	return claims, nil
}

// MaxAge returns the absolute session lifetime
func (m *SessionTokenManager) MaxAge() time.Duration {
	return m.maxAge
}
