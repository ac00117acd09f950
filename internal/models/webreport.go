package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WebreportPending  = "pending"
	WebreportMatched  = "matched"
	WebreportVerified = "verified"
	WebreportRejected = "rejected"
)

// Webreport is a customer's self-reported transfer claim.
// Records are never deleted; the lifecycle lives in Status.
type Webreport struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	ModifiedAt     time.Time
	CustomerID     uuid.UUID
	VirtualAccount string
	Amount         decimal.Decimal
	TransferDate   time.Time
	BankSender     string
	Notes          string
	Status         string

	// Statement the report was paired with, set when a MatchingResult is created
	MatchedStatementID *uuid.UUID
}
