package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/models"
)

type CreateCustomerParams struct {
	Name           string
	VirtualAccount string
}

// Customer repository interface
type CustomerRepo interface {
	// Create customer with zero balance
	// If the virtual account is taken already has to return apperrors.ErrCustomerAlreadyExists
	Create(ctx context.Context, arg CreateCustomerParams) (models.Customer, error)

	// If customer not found must return apperrors.ErrCustomerNotFound
	Get(ctx context.Context, id uuid.UUID) (models.Customer, error)

	// AddBalance credits the customer balance by amount.
	// The implementation must serialize concurrent credits per customer.
	AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (models.Customer, error)
}

type CreateWebreportParams struct {
	CustomerID     uuid.UUID
	VirtualAccount string
	Amount         decimal.Decimal
	TransferDate   time.Time
	BankSender     string
	Notes          string
}

type ListWebreportsOpts struct {
	Statuses   []string
	CustomerID *uuid.UUID
}

// Webreport repository interface
//
// Status transitions are compare-and-set: the update applies only when the
// record is still in the expected state, otherwise apperrors.ErrStatusConflict.
type WebreportRepo interface {
	Create(ctx context.Context, arg CreateWebreportParams) (models.Webreport, error)
	Get(ctx context.Context, id uuid.UUID) (models.Webreport, error)

	// List in creation order, oldest first. Matching depends on this order.
	List(ctx context.Context, opts ListWebreportsOpts) ([]models.Webreport, error)

	// pending -> matched, linking the statement
	MarkMatched(ctx context.Context, id uuid.UUID, statementID uuid.UUID) (models.Webreport, error)

	// matched -> verified
	MarkVerified(ctx context.Context, id uuid.UUID) (models.Webreport, error)

	// matched -> pending, dropping the statement link
	Release(ctx context.Context, id uuid.UUID) (models.Webreport, error)
}

type CreateStatementParams struct {
	Source          string
	BankCode        string
	AccountNumber   string
	VirtualAccount  string
	Amount          decimal.Decimal
	TransactionDate time.Time
	SenderName      string
	Reference       string
}

type ListStatementsOpts struct {
	Statuses []string
	Source   string
	BankCode string
}

// BankStatement repository interface, same CAS rules as WebreportRepo
type StatementRepo interface {
	Create(ctx context.Context, arg CreateStatementParams) (models.BankStatement, error)
	CreateBatch(ctx context.Context, args []CreateStatementParams) ([]models.BankStatement, error)
	Get(ctx context.Context, id uuid.UUID) (models.BankStatement, error)

	// List in creation order, oldest first
	List(ctx context.Context, opts ListStatementsOpts) ([]models.BankStatement, error)

	// pending -> matched, linking the webreport
	MarkMatched(ctx context.Context, id uuid.UUID, webreportID uuid.UUID) (models.BankStatement, error)

	// matched -> processed
	MarkProcessed(ctx context.Context, id uuid.UUID) (models.BankStatement, error)

	// matched -> pending, dropping the webreport link
	Release(ctx context.Context, id uuid.UUID) (models.BankStatement, error)
}

type CreateMatchParams struct {
	WebreportID     uuid.UUID
	BankStatementID uuid.UUID
	MatchScore      int
	MatchDetails    models.MatchDetails
	Status          string
}

type ListMatchesOpts struct {
	Statuses []string
}

// MatchingResult repository interface
type MatchRepo interface {
	Create(ctx context.Context, arg CreateMatchParams) (models.MatchingResult, error)
	Get(ctx context.Context, id uuid.UUID) (models.MatchingResult, error)

	// List newest first (review queues want fresh matches on top)
	List(ctx context.Context, opts ListMatchesOpts) ([]models.MatchingResult, error)

	// Resolve moves a live result to a terminal status (verified or rejected).
	// If the result is terminal already must return apperrors.ErrMatchAlreadyResolved.
	Resolve(ctx context.Context, id uuid.UUID, status string, verifiedBy string, notes string) (models.MatchingResult, error)
}

type CreateTransactionParams struct {
	CustomerID       uuid.UUID
	Amount           decimal.Decimal
	Status           string
	BankCode         string
	MatchingResultID *uuid.UUID
	ExpiresAt        *time.Time
}

type ListTransactionsOpts struct {
	Statuses   []string
	CustomerID *uuid.UUID
}

// Transaction repository interface
type TransactionRepo interface {
	// Create transaction
	// A second transaction for the same matching result must fail with
	// apperrors.ErrMatchAlreadySettled. That uniqueness is the settlement
	// idempotency guard.
	Create(ctx context.Context, arg CreateTransactionParams) (models.Transaction, error)

	Get(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	List(ctx context.Context, opts ListTransactionsOpts) ([]models.Transaction, error)

	// MarkSuccess does CAS pending -> success.
	// If the transaction is terminal already it returns the current row along
	// with apperrors.ErrTransactionFinal, so callers can tell a duplicate
	// confirm from a confirm after expiry.
	MarkSuccess(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// SweepExpired fails every pending transaction whose deadline passed
	// and returns the transitioned rows.
	SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error)
}

// Storage aggregates the repositories over one database handle.
type Storage interface {
	Customer() CustomerRepo
	Webreport() WebreportRepo
	Statement() StatementRepo
	Match() MatchRepo
	Transaction() TransactionRepo

	// InTx runs fn with a Storage bound to a single database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
