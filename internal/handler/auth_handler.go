package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/idworks/signin-service/internal/dto"
	"github.com/idworks/signin-service/internal/repository"
	"github.com/idworks/signin-service/internal/service"
)

const sessionCookie = "session_token"

// AuthHandler handles authentication requests
type AuthHandler struct {
	orchestrator service.Orchestrator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(orchestrator service.Orchestrator) *AuthHandler {
	return &AuthHandler{
		orchestrator: orchestrator,
	}
}

// Register handles password sign-up
// @Summary Register a new user
// @Description Create a password-based account with an unverified email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	user, err := h.orchestrator.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrStoreUnavailable) {
			storeUnavailable(c)
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            string(user.Role),
		IsEmailVerified: user.IsEmailVerified(),
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
	})
}

// Login handles password sign-in
// @Summary Sign in with credentials
// @Description Run the sign-in evaluation for a password attempt
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Sign-in request"
// @Success 200 {object} dto.SignInResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orchestrator.PasswordSignIn(c.Request.Context(), &req)
	if err != nil {
		// The single deliberate distinct outcome: the caller must render
		// a second-factor prompt, not a generic error
		if errors.Is(err, service.ErrSecondFactorRequired) {
			c.JSON(http.StatusOK, dto.TwoFactorRequiredResponse{TwoFactorRequired: true})
			return
		}
		if errors.Is(err, service.ErrStoreUnavailable) {
			storeUnavailable(c)
			return
		}
		// Every other rejection collapses into one undifferentiated denial
		genericDenial(c)
		return
	}

	h.writeSignInResult(c, result)
}

// OAuthCallback completes an external-provider sign-in
// @Summary Complete an OAuth sign-in
// @Description Admit a provider-verified identity, linking the account on first sight
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.OAuthCallbackRequest true "Provider identity"
// @Success 200 {object} dto.SignInResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/oauth/callback [post]
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	var req dto.OAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orchestrator.OAuthSignIn(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			storeUnavailable(c)
			return
		}
		genericDenial(c)
		return
	}

	h.writeSignInResult(c, result)
}

// Refresh re-derives the session token claims from current store state
// @Summary Refresh the session token
// @Description Re-enrich and re-sign the presented session token
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SignInResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: "Session token not found in cookie",
		})
		return
	}

	result, err := h.orchestrator.RefreshToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			storeUnavailable(c)
			return
		}
		genericDenial(c)
		return
	}

	h.writeSignInResult(c, result)
}

// Session projects the authenticated token claims into a session object
// @Summary Get the current session
// @Description Project the session token claims; never hits the identity store
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Session
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Session claims not found in context",
		})
		return
	}

	c.JSON(http.StatusOK, h.orchestrator.ProjectSession(claims))
}

// Logout revokes the presented session token
// @Summary Sign out
// @Description Revoke the session token for the remainder of its lifetime
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(sessionCookie)
	if token == "" {
		token = bearerToken(c)
	}

	if token != "" {
		if err := h.orchestrator.SignOut(c.Request.Context(), token); err != nil {
			if errors.Is(err, service.ErrStoreUnavailable) {
				storeUnavailable(c)
				return
			}
		}
	}

	// Clear session cookie
	c.SetCookie(sessionCookie, "", -1, "/", "", true, true)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Signed out successfully",
	})
}

func (h *AuthHandler) writeSignInResult(c *gin.Context, result *service.SignInResult) {
	// Session token travels in an httpOnly cookie
	c.SetCookie(sessionCookie, result.Token, result.ExpiresIn, "/", "", true, true)

	c.JSON(http.StatusOK, dto.SignInResponse{
		SessionToken: result.Token,
		TokenType:    "Bearer",
		ExpiresIn:    result.ExpiresIn,
		RefreshIn:    result.RefreshIn,
		Session:      h.orchestrator.ProjectSession(result.Claims),
	})
}

func genericDenial(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "Unauthorized",
		Message: "invalid email or password",
	})
}

func storeUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
		Error:   "Service unavailable",
		Message: "temporary failure, please retry",
	})
}
