package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idworks/signin-service/internal/domain"
	"github.com/idworks/signin-service/internal/dto"
	"github.com/idworks/signin-service/internal/repository"
	"github.com/idworks/signin-service/internal/utils"
	"github.com/idworks/signin-service/pkg/observability"
	"go.uber.org/zap"
)

// SignInResult carries the minted or refreshed session token
type SignInResult struct {
	Token     string
	Claims    domain.SessionClaims
	ExpiresIn int // seconds until absolute expiry
	RefreshIn int // suggested re-derivation cadence in seconds
}

// orchestrator implements the Orchestrator interface
type orchestrator struct {
	users           repository.UserRepository
	accounts        repository.LinkedAccountRepository
	validator       *CredentialValidator
	gate            *SecondFactorGate
	enricher        *TokenEnricher
	tokens          *utils.SessionTokenManager
	revocations     RevocationStore
	logger          *zap.Logger
	metrics         *observability.SignInMetrics
	bcryptCost      int
	refreshInterval time.Duration
}

// NewOrchestrator creates the authentication orchestrator. All state lives
// behind the injected repositories; the orchestrator holds no locks and
// caches nothing across requests.
func NewOrchestrator(
	repos *repository.Repositories,
	tokens *utils.SessionTokenManager,
	revocations RevocationStore,
	logger *zap.Logger,
	metrics *observability.SignInMetrics,
	bcryptCost int,
	refreshInterval time.Duration,
) Orchestrator {
	return &orchestrator{
		users:           repos.User,
		accounts:        repos.LinkedAccount,
		validator:       NewCredentialValidator(repos.User),
		gate:            NewSecondFactorGate(repos.TwoFactor),
		enricher:        NewTokenEnricher(repos.User, repos.LinkedAccount),
		tokens:          tokens,
		revocations:     revocations,
		logger:          logger,
		metrics:         metrics,
		bcryptCost:      bcryptCost,
		refreshInterval: refreshInterval,
	}
}

// Register creates a new password-based user. The account starts with an
// unverified email; mailbox proof happens out-of-band.
func (o *orchestrator) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, fmt.Errorf("invalid email format")
	}

	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	email := utils.SanitizeEmail(req.Email)

	_, err := o.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("user with email %s already exists: %w", email, repository.ErrDuplicateEmail)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeFailure(err)
	}

	passwordHash, err := utils.HashPassword(req.Password, o.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        &email,
		PasswordHash: &passwordHash,
		Role:         domain.RoleUser,
	}

	if err := o.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, storeFailure(err)
	}

	o.logger.Info("user registered", zap.String("user_id", user.ID))

	return user, nil
}

// PasswordSignIn runs the credentials path: validate the password, walk
// the sign-in state machine, mint a session token on admission.
func (o *orchestrator) PasswordSignIn(ctx context.Context, req *dto.SignInRequest) (*SignInResult, error) {
	user, err := o.validator.Validate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		o.recordRejection(ctx, domain.OriginCredentials, validatorReason(err))
		return nil, err
	}

	decision, err := o.EvaluateSignIn(ctx, user, domain.OriginCredentials)
	if err != nil {
		return nil, err
	}

	if decision.Outcome == OutcomeRejected {
		return nil, rejectionError(decision.Reason)
	}

	return o.mint(ctx, user)
}

// OAuthSignIn completes an external-provider sign-in. The provider's
// identity proof substitutes for local email verification; first sight of
// a (provider, provider account id) pair creates the link and fires the
// account-linking event.
func (o *orchestrator) OAuthSignIn(ctx context.Context, req *dto.OAuthCallbackRequest) (*SignInResult, error) {
	origin := domain.Origin(req.Provider)
	if !origin.IsOAuth() {
		return nil, fmt.Errorf("invalid oauth provider %q", req.Provider)
	}

	user, linked, err := o.resolveOAuthUser(ctx, req)
	if err != nil {
		return nil, err
	}

	decision, err := o.EvaluateSignIn(ctx, user, origin)
	if err != nil {
		return nil, err
	}
	if decision.Outcome == OutcomeRejected {
		return nil, rejectionError(decision.Reason)
	}

	if linked {
		if err := o.OnAccountLinked(ctx, user.ID); err != nil {
			return nil, err
		}
		// Re-load so the minted claims see the verification stamp
		user, err = o.users.GetByID(ctx, user.ID)
		if err != nil {
			return nil, storeFailure(err)
		}
	}

	return o.mint(ctx, user)
}

// resolveOAuthUser finds the user behind a provider identity, creating the
// user and the linked account record on first sign-in. Returns whether a
// new link was created.
func (o *orchestrator) resolveOAuthUser(ctx context.Context, req *dto.OAuthCallbackRequest) (*domain.User, bool, error) {
	account, err := o.accounts.GetByProvider(ctx, req.Provider, req.ProviderAccountID)
	if err == nil {
		user, err := o.users.GetByID(ctx, account.UserID)
		if err != nil {
			return nil, false, storeFailure(err)
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeFailure(err)
	}

	user, err := o.findOrCreateOAuthUser(ctx, req)
	if err != nil {
		return nil, false, err
	}

	link := &domain.LinkedAccount{
		UserID:            user.ID,
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
	}
	if err := o.accounts.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateLinkedAccount) {
			// Lost a race with a concurrent first sign-in; the link exists
			return user, false, nil
		}
		return nil, false, storeFailure(err)
	}

	return user, true, nil
}

func (o *orchestrator) findOrCreateOAuthUser(ctx context.Context, req *dto.OAuthCallbackRequest) (*domain.User, error) {
	if req.Email != "" {
		user, err := o.users.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, storeFailure(err)
		}
	}

	user := &domain.User{
		Name: req.Name,
		Role: domain.RoleUser,
	}
	if req.Email != "" {
		email := utils.SanitizeEmail(req.Email)
		user.Email = &email
	}

	if err := o.users.Create(ctx, user); err != nil {
		return nil, storeFailure(err)
	}

	return user, nil
}

// EvaluateSignIn is the sign-in state machine. Single pass, no retries;
// steps run strictly in order and the gate's delete-then-return ordering
// is preserved.
func (o *orchestrator) EvaluateSignIn(ctx context.Context, user *domain.User, origin domain.Origin) (Decision, error) {
	// OAuth identity proof from the provider substitutes for local email
	// verification
	if origin.IsOAuth() {
		o.recordAdmission(ctx, origin, user)
		return Admitted(), nil
	}

	if user == nil || user.ID == "" {
		o.recordRejection(ctx, origin, ReasonMissingIdentity)
		return Rejected(ReasonMissingIdentity), nil
	}

	existing, err := o.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			o.recordRejection(ctx, origin, ReasonMissingIdentity)
			return Rejected(ReasonMissingIdentity), nil
		}
		return Decision{}, storeFailure(err)
	}

	if !existing.IsEmailVerified() {
		o.recordRejection(ctx, origin, ReasonEmailUnverified)
		return Rejected(ReasonEmailUnverified), nil
	}

	if existing.IsTwoFactorEnabled {
		result, err := o.gate.Consume(ctx, existing.ID)
		if err != nil {
			return Decision{}, err
		}
		if result == GateNoConfirmation {
			o.recordRejection(ctx, origin, ReasonSecondFactorRequired)
			return Rejected(ReasonSecondFactorRequired), nil
		}
	}

	o.recordAdmission(ctx, origin, existing)
	return Admitted(), nil
}

// mint builds the initial claim set, enriches it from current store state
// and signs the session token.
func (o *orchestrator) mint(ctx context.Context, user *domain.User) (*SignInResult, error) {
	claims := o.tokens.NewClaims(user)

	claims, err := o.enricher.Enrich(ctx, claims, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := o.tokens.Sign(claims)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		Token:     token,
		Claims:    claims,
		ExpiresIn: int(time.Until(claims.ExpiryTime()).Seconds()),
		RefreshIn: int(o.refreshInterval.Seconds()),
	}, nil
}

// RefreshToken re-derives the claim set from current store state and
// re-signs the token. The absolute expiry fixed at mint is never extended.
func (o *orchestrator) RefreshToken(ctx context.Context, tokenString string) (*SignInResult, error) {
	claims, err := o.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	enriched, err := o.enricher.Enrich(ctx, claims, claims.SubjectID)
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRefresh(ctx, enriched == claims)

	token, err := o.tokens.Sign(enriched)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		Token:     token,
		Claims:    enriched,
		ExpiresIn: int(time.Until(enriched.ExpiryTime()).Seconds()),
		RefreshIn: int(o.refreshInterval.Seconds()),
	}, nil
}

// ValidateToken parses a session token and checks it against the
// revocation store.
func (o *orchestrator) ValidateToken(ctx context.Context, tokenString string) (domain.SessionClaims, error) {
	revoked, err := o.revocations.IsRevoked(ctx, tokenString)
	if err != nil {
		return domain.SessionClaims{}, storeFailure(err)
	}
	if revoked {
		return domain.SessionClaims{}, fmt.Errorf("session token is revoked")
	}

	claims, err := o.tokens.Parse(tokenString)
	if err != nil {
		return domain.SessionClaims{}, fmt.Errorf("invalid session token: %w", err)
	}

	return claims, nil
}

// ProjectSession copies token claims into the externally visible session
// object. Pure, no store access.
func (o *orchestrator) ProjectSession(claims domain.SessionClaims) domain.Session {
	return o.enricher.Project(claims)
}

// OnAccountLinked stamps the user's email verification timestamp: linking
// a verified external identity is proof of email ownership. Idempotent in
// observable outcome.
func (o *orchestrator) OnAccountLinked(ctx context.Context, userID string) error {
	if err := o.users.UpdateEmailVerified(ctx, userID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return storeFailure(err)
	}

	o.logger.Info("account linked, email verification stamped", zap.String("user_id", userID))
	return nil
}

// SignOut revokes the presented session token for the remainder of its
// lifetime. An already-expired token is a no-op.
func (o *orchestrator) SignOut(ctx context.Context, tokenString string) error {
	claims, err := o.tokens.Parse(tokenString)
	if err != nil {
		return nil
	}

	if err := o.revocations.Revoke(ctx, tokenString, time.Until(claims.ExpiryTime())); err != nil {
		return storeFailure(err)
	}

	o.logger.Info("session revoked", zap.String("user_id", claims.SubjectID))
	return nil
}

func (o *orchestrator) recordAdmission(ctx context.Context, origin domain.Origin, user *domain.User) {
	userID := ""
	if user != nil {
		userID = user.ID
	}
	o.logger.Info("sign-in admitted",
		zap.String("origin", string(origin)),
		zap.String("user_id", userID),
	)
	o.metrics.RecordDecision(ctx, string(origin), string(OutcomeAdmitted), string(ReasonNone))
}

func (o *orchestrator) recordRejection(ctx context.Context, origin domain.Origin, reason RejectReason) {
	o.logger.Info("sign-in rejected",
		zap.String("origin", string(origin)),
		zap.String("reason", string(reason)),
	)
	o.metrics.RecordDecision(ctx, string(origin), string(OutcomeRejected), string(reason))
}

// rejectionError maps an internal rejection reason to the service error
// the boundary layer collapses.
func rejectionError(reason RejectReason) error {
	switch reason {
	case ReasonSecondFactorRequired:
		return ErrSecondFactorRequired
	case ReasonEmailUnverified:
		return ErrEmailUnverified
	default:
		return fmt.Errorf("sign-in rejected: %w", ErrUserNotFound)
	}
}

// validatorReason maps credential validator failures onto internal
// rejection reasons for telemetry.
func validatorReason(err error) RejectReason {
	switch {
	case errors.Is(err, ErrNoCredential):
		return ReasonNoCredential
	case errors.Is(err, ErrInvalidCredential):
		return ReasonInvalidCredential
	default:
		return ReasonUnknownIdentifier
	}
}
