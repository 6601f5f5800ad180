package service

// Outcome is the terminal result of one sign-in evaluation
type Outcome string

const (
	OutcomeAdmitted Outcome = "admitted"
	OutcomeRejected Outcome = "rejected"
)

// RejectReason is the internal reason for a rejection. Reasons feed
// logging and metrics only; the HTTP boundary collapses them into a
// generic denial, with second_factor_required as the single deliberate
// exception.
type RejectReason string

const (
	ReasonNone                 RejectReason = ""
	ReasonMissingIdentity      RejectReason = "missing_identity"
	ReasonEmailUnverified      RejectReason = "email_unverified"
	ReasonSecondFactorRequired RejectReason = "second_factor_required"
	ReasonNoCredential         RejectReason = "no_credential"
	ReasonInvalidCredential    RejectReason = "invalid_credential"
	ReasonUnknownIdentifier    RejectReason = "unknown_identifier"
)

// Decision is the terminal state of the sign-in state machine
type Decision struct {
	Outcome Outcome
	Reason  RejectReason
}

// Admitted builds an admitting decision
func Admitted() Decision {
	return Decision{Outcome: OutcomeAdmitted}
}

// Rejected builds a rejecting decision with an internal reason
func Rejected(reason RejectReason) Decision {
	return Decision{Outcome: OutcomeRejected, Reason: reason}
}
