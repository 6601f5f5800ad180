package service

import (
	"context"
	"errors"

	"github.com/idworks/signin-service/internal/repository"
)

// GateResult is the outcome of a second-factor consumption attempt
type GateResult int

const (
	// GateNoConfirmation means no usable confirmation existed; the attempt is rejected
	GateNoConfirmation GateResult = iota
	// GateConsumed means a confirmation existed and was destroyed for this admission
	GateConsumed
)

// SecondFactorGate consumes a user's pending two-factor confirmation
// exactly once. The confirmation is deleted before success is reported:
// a crash between deletion and admission forces re-verification instead
// of leaving a replayable confirmation.
type SecondFactorGate struct {
	confirmations repository.TwoFactorRepository
}

// NewSecondFactorGate creates a new second-factor gate
func NewSecondFactorGate(confirmations repository.TwoFactorRepository) *SecondFactorGate {
	return &SecondFactorGate{confirmations: confirmations}
}

// Consume looks up the pending confirmation for userID and destroys it.
// Under concurrent attempts for the same user the store-level delete is
// atomic, so only the first caller receives GateConsumed.
func (g *SecondFactorGate) Consume(ctx context.Context, userID string) (GateResult, error) {
	confirmation, err := g.confirmations.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return GateNoConfirmation, nil
		}
		return GateNoConfirmation, storeFailure(err)
	}

	// Delete first, report after
	if err := g.confirmations.Delete(ctx, confirmation.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Another attempt consumed it between lookup and delete
			return GateNoConfirmation, nil
		}
		return GateNoConfirmation, storeFailure(err)
	}

	if confirmation.IsExpired() {
		return GateNoConfirmation, nil
	}

	return GateConsumed, nil
}
