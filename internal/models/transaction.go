package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionPending = "pending"
	TransactionSuccess = "success"
	TransactionFailed  = "failed"
)

// Transaction is the balance-affecting record. It is produced either by
// settling a verified match or by a direct top-up awaiting confirmation.
// Success and failed are terminal.
type Transaction struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	ModifiedAt time.Time
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Status     string
	BankCode   string

	// Set for match-settled transactions only; unique per match
	MatchingResultID *uuid.UUID

	// Payment deadline, meaningful only while pending
	ExpiresAt *time.Time
}

// Final reports whether the transaction reached a terminal state.
func (t Transaction) Final() bool {
	return t.Status == TransactionSuccess || t.Status == TransactionFailed
}
