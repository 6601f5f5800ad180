package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/idworks/signin-service/internal/dto"
)

func (s *Suite) register(name, email, password string) *http.Response {
	body, _ := json.Marshal(dto.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) login(email, password string) *http.Response {
	body, _ := json.Marshal(dto.SignInRequest{
		Email:    email,
		Password: password,
	})
	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	return resp
}

// registerVerified registers a user, stamps the verification timestamp and
// signs in, returning the sign-in response body.
func (s *Suite) registerVerified(email, password string) dto.SignInResponse {
	resp := s.register("Test User", email, password)
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	s.markEmailVerified(email)

	loginResp := s.login(email, password)
	defer loginResp.Body.Close()
	s.Require().Equal(http.StatusOK, loginResp.StatusCode)

	var signInResp dto.SignInResponse
	s.Require().NoError(json.NewDecoder(loginResp.Body).Decode(&signInResp))
	return signInResp
}

func (s *Suite) TestRegister_Success() {
	resp := s.register("New User", "test@example.com", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var userResp dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&userResp))

	s.NotEmpty(userResp.ID)
	s.Equal("New User", userResp.Name)
	s.Require().NotNil(userResp.Email)
	s.Equal("test@example.com", *userResp.Email)
	s.Equal("user", userResp.Role)
	s.False(userResp.IsEmailVerified, "registration must not verify the mailbox")
}

func (s *Suite) TestRegister_DuplicateEmail() {
	resp1 := s.register("First", "duplicate@example.com", "Password123")
	resp1.Body.Close()
	s.Equal(http.StatusCreated, resp1.StatusCode)

	resp2 := s.register("Second", "duplicate@example.com", "Password123")
	defer resp2.Body.Close()

	s.Equal(http.StatusConflict, resp2.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp2.Body).Decode(&errResp)
	s.Equal("Conflict", errResp.Error)
}

func (s *Suite) TestRegister_InvalidEmail() {
	resp := s.register("Bad Email", "invalid-email", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_WeakPassword() {
	resp := s.register("Weak", "weak@example.com", "alllowercase")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_UnverifiedEmailRejected() {
	resp := s.register("Unverified", "unverified@example.com", "Password123")
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	loginResp := s.login("unverified@example.com", "Password123")
	defer loginResp.Body.Close()

	s.Equal(http.StatusUnauthorized, loginResp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	signInResp := s.registerVerified("login@example.com", "Password123")

	s.NotEmpty(signInResp.SessionToken)
	s.Equal("Bearer", signInResp.TokenType)
	s.NotZero(signInResp.ExpiresIn)
	s.NotZero(signInResp.RefreshIn)
	s.Equal("login@example.com", signInResp.Session.Email)
	s.False(signInResp.Session.IsOAuth)
	s.False(signInResp.Session.IsTwoFactorEnabled)
}

func (s *Suite) TestLogin_RejectionsAreIndistinguishable() {
	resp := s.register("Collapse", "collapse@example.com", "Password123")
	resp.Body.Close()
	s.markEmailVerified("collapse@example.com")

	wrongPassword := s.login("collapse@example.com", "WrongPassword123")
	defer wrongPassword.Body.Close()
	unknownUser := s.login("nobody@example.com", "Password123")
	defer unknownUser.Body.Close()

	s.Equal(http.StatusUnauthorized, wrongPassword.StatusCode)
	s.Equal(http.StatusUnauthorized, unknownUser.StatusCode)

	var body1, body2 dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(wrongPassword.Body).Decode(&body1))
	s.Require().NoError(json.NewDecoder(unknownUser.Body).Decode(&body2))
	s.Equal(body1, body2, "denial responses must not leak which check failed")
}

func (s *Suite) TestLogin_TwoFactorRequired() {
	resp := s.register("TwoFactor", "twofactor@example.com", "Password123")
	resp.Body.Close()
	s.markEmailVerified("twofactor@example.com")

	_, err := s.Postgres.DB.Exec(
		"UPDATE users SET is_two_factor_enabled = TRUE WHERE email = $1",
		"twofactor@example.com",
	)
	s.Require().NoError(err)

	loginResp := s.login("twofactor@example.com", "Password123")
	defer loginResp.Body.Close()

	s.Equal(http.StatusOK, loginResp.StatusCode)

	var tfResp dto.TwoFactorRequiredResponse
	s.Require().NoError(json.NewDecoder(loginResp.Body).Decode(&tfResp))
	s.True(tfResp.TwoFactorRequired)
}

func (s *Suite) TestLogin_TwoFactorConfirmationConsumedOnce() {
	resp := s.register("TwoFactor", "consume@example.com", "Password123")
	resp.Body.Close()
	s.markEmailVerified("consume@example.com")

	var userID string
	s.Require().NoError(s.Postgres.DB.QueryRow(
		"UPDATE users SET is_two_factor_enabled = TRUE WHERE email = $1 RETURNING id",
		"consume@example.com",
	).Scan(&userID))

	_, err := s.Postgres.DB.Exec(
		"INSERT INTO two_factor_confirmations (id, user_id, expires_at) VALUES ($1, $2, $3)",
		uuid.New().String(), userID, time.Now().Add(5*time.Minute),
	)
	s.Require().NoError(err)

	first := s.login("consume@example.com", "Password123")
	defer first.Body.Close()
	s.Equal(http.StatusOK, first.StatusCode)

	var signInResp dto.SignInResponse
	s.Require().NoError(json.NewDecoder(first.Body).Decode(&signInResp))
	s.NotEmpty(signInResp.SessionToken)
	s.True(signInResp.Session.IsTwoFactorEnabled)

	// The confirmation was destroyed; the next attempt needs a new one
	second := s.login("consume@example.com", "Password123")
	defer second.Body.Close()
	s.Equal(http.StatusOK, second.StatusCode)

	var tfResp dto.TwoFactorRequiredResponse
	s.Require().NoError(json.NewDecoder(second.Body).Decode(&tfResp))
	s.True(tfResp.TwoFactorRequired)
}

func (s *Suite) TestOAuthCallback_FirstSignIn() {
	body, _ := json.Marshal(dto.OAuthCallbackRequest{
		Provider:          "google",
		ProviderAccountID: "google-account-1",
		Email:             "oauth@example.com",
		Name:              "OAuth User",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/oauth/callback",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var signInResp dto.SignInResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&signInResp))
	s.NotEmpty(signInResp.SessionToken)
	s.True(signInResp.Session.IsOAuth)
	s.Equal("oauth@example.com", signInResp.Session.Email)

	// Linking stamps email verification
	var verified bool
	s.Require().NoError(s.Postgres.DB.QueryRow(
		"SELECT email_verified_at IS NOT NULL FROM users WHERE email = $1",
		"oauth@example.com",
	).Scan(&verified))
	s.True(verified)
}

func (s *Suite) TestSession_Success() {
	signInResp := s.registerVerified("session@example.com", "Password123")

	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/session", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", signInResp.SessionToken))

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var session struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&session))
	s.NotEmpty(session.UserID)
	s.Equal("session@example.com", session.Email)
	s.Equal("user", session.Role)
}

func (s *Suite) TestSession_NoToken() {
	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/session", nil)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_Success() {
	signInResp := s.registerVerified("refresh@example.com", "Password123")

	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: signInResp.SessionToken})

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var refreshed dto.SignInResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&refreshed))
	s.NotEmpty(refreshed.SessionToken)
	s.Equal("Bearer", refreshed.TokenType)
}

func (s *Suite) TestRefresh_ReflectsRoleChange() {
	signInResp := s.registerVerified("promote@example.com", "Password123")
	s.Equal("user", string(signInResp.Session.Role))

	_, err := s.Postgres.DB.Exec(
		"UPDATE users SET role = 'admin' WHERE email = $1",
		"promote@example.com",
	)
	s.Require().NoError(err)

	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: signInResp.SessionToken})

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var refreshed dto.SignInResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&refreshed))
	s.Equal("admin", string(refreshed.Session.Role))
}

func (s *Suite) TestRefresh_NoCookie() {
	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogout_RevokesSession() {
	signInResp := s.registerVerified("logout@example.com", "Password123")

	logoutReq, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/logout", nil)
	logoutReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", signInResp.SessionToken))

	logoutResp, err := http.DefaultClient.Do(logoutReq)
	s.Require().NoError(err)
	defer logoutResp.Body.Close()
	s.Equal(http.StatusOK, logoutResp.StatusCode)

	// The revoked token no longer authenticates
	sessionReq, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/session", nil)
	sessionReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", signInResp.SessionToken))

	sessionResp, err := http.DefaultClient.Do(sessionReq)
	s.Require().NoError(err)
	defer sessionResp.Body.Close()
	s.Equal(http.StatusUnauthorized, sessionResp.StatusCode)
}

func (s *Suite) TestCompleteFlow() {
	email := "complete@example.com"
	password := "Password123"

	signInResp := s.registerVerified(email, password)
	token := signInResp.SessionToken

	sessionReq, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/session", nil)
	sessionReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	sessionResp, err := http.DefaultClient.Do(sessionReq)
	s.Require().NoError(err)
	defer sessionResp.Body.Close()
	s.Equal(http.StatusOK, sessionResp.StatusCode)

	refreshReq, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	refreshReq.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	refreshResp, err := http.DefaultClient.Do(refreshReq)
	s.Require().NoError(err)
	defer refreshResp.Body.Close()
	s.Equal(http.StatusOK, refreshResp.StatusCode)

	var refreshed dto.SignInResponse
	s.Require().NoError(json.NewDecoder(refreshResp.Body).Decode(&refreshed))
	newToken := refreshed.SessionToken

	logoutReq, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/logout", nil)
	logoutReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", newToken))
	logoutResp, err := http.DefaultClient.Do(logoutReq)
	s.Require().NoError(err)
	defer logoutResp.Body.Close()
	s.Equal(http.StatusOK, logoutResp.StatusCode)

	sessionReq2, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/session", nil)
	sessionReq2.Header.Set("Authorization", fmt.Sprintf("Bearer %s", newToken))
	sessionResp2, err := http.DefaultClient.Do(sessionReq2)
	s.Require().NoError(err)
	defer sessionResp2.Body.Close()
	s.Equal(http.StatusUnauthorized, sessionResp2.StatusCode)
}
