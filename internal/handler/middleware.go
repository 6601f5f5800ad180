package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/dto"
	"github.com/idworks/signin-service/internal/service"
)

const claimsContextKey = "session_claims"

// AuthMiddleware validates the session token and adds its claims to the
// request context. The token comes from the Authorization header or the
// session cookie.
func AuthMiddleware(orchestrator service.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(sessionCookie)
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Session token is required",
			})
			c.Abort()
			return
		}

		claims, err := orchestrator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired session token",
			})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Set("user_id", claims.SubjectID)

		c.Next()
	}
}

// GetClaims extracts the session claims placed by AuthMiddleware
func GetClaims(c *gin.Context) (domain.SessionClaims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return domain.SessionClaims{}, false
	}
	claims, ok := value.(domain.SessionClaims)
	return claims, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
