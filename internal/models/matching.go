package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MatchAutoMatched  = "auto_matched"
	MatchManualReview = "manual_review"
	MatchVerified     = "verified"
	MatchRejected     = "rejected"
)

// MatchDetails explains how a score was computed.
type MatchDetails struct {
	VAMatch            bool
	AmountMatch        bool
	DateProximityHours float64
}

// MatchingResult pairs one webreport with one bank statement.
// At most one non-rejected result may exist per webreport and per statement;
// rejecting a result releases both records back to pending.
type MatchingResult struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	ModifiedAt      time.Time
	WebreportID     uuid.UUID
	BankStatementID uuid.UUID
	MatchScore      int
	MatchDetails    MatchDetails
	Status          string
	VerifiedBy      string
	VerifiedAt      *time.Time
	Notes           string
}

// Resolved reports whether the result reached a terminal state.
func (m MatchingResult) Resolved() bool {
	return m.Status == MatchVerified || m.Status == MatchRejected
}
