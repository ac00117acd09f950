package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatementSourceAPI        = "api"
	StatementSourceFileImport = "file_import"
)

const (
	StatementPending   = "pending"
	StatementMatched   = "matched"
	StatementProcessed = "processed"
)

// BankStatement is a bank-sourced record of money actually received,
// ingested either from a webhook push or a batch file import.
type BankStatement struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	ModifiedAt      time.Time
	Source          string
	BankCode        string
	AccountNumber   string
	VirtualAccount  string
	Amount          decimal.Decimal
	TransactionDate time.Time
	SenderName      string
	Reference       string
	Status          string

	MatchedWebreportID *uuid.UUID
}
