package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SignInMetrics records sign-in evaluation outcomes. Rejection reasons are
// telemetry-only; they never reach the HTTP response body.
type SignInMetrics struct {
	attempts  metric.Int64Counter
	refreshes metric.Int64Counter
}

// NewSignInMetrics creates counters on the global meter provider
func NewSignInMetrics() (*SignInMetrics, error) {
	meter := otel.Meter("signin-service")

	attempts, err := meter.Int64Counter(
		"signin_attempts_total",
		metric.WithDescription("Sign-in evaluations by origin, outcome and internal reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create signin attempts counter: %w", err)
	}

	refreshes, err := meter.Int64Counter(
		"session_refreshes_total",
		metric.WithDescription("Session token refresh operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session refreshes counter: %w", err)
	}

	return &SignInMetrics{
		attempts:  attempts,
		refreshes: refreshes,
	}, nil
}

// RecordDecision records one terminal sign-in evaluation
func (m *SignInMetrics) RecordDecision(ctx context.Context, origin, outcome, reason string) {
	m.attempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("origin", origin),
			attribute.String("outcome", outcome),
			attribute.String("reason", reason),
		),
	)
}

// RecordRefresh records one token refresh
func (m *SignInMetrics) RecordRefresh(ctx context.Context, stale bool) {
	m.refreshes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Bool("stale_subject", stale),
		),
	)
}
