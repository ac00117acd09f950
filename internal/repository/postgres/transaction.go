package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, created_at, modified_at, customer_id, amount, status, bank_code, matching_result_id, expires_at`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, modified_at, customer_id, amount, status, bank_code, matching_result_id, expires_at)
VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + transactionColumns

func (r *TransactionRepo) Create(ctx context.Context, arg repository.CreateTransactionParams) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		uuid.New(), time.Now(), arg.CustomerID, arg.Amount, arg.Status, arg.BankCode,
		arg.MatchingResultID, arg.ExpiresAt,
	)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// transactions.matching_result_id is unique, a second settlement
			// attempt for the same match lands here
			return transaction, apperrors.ErrMatchAlreadySettled
		}

		return transaction, fmt.Errorf("db error: %w", err)
	}

	return transaction, nil
}

const getTransaction = `-- name: GetTransaction
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = $1
`

func (r *TransactionRepo) Get(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, pgx.ErrNoRows):
		return transaction, apperrors.ErrTransactionNotFound
	default:
		return transaction, fmt.Errorf("db error: %w", err)
	}
}

const listTransactions = `-- name: ListTransactions
SELECT ` + transactionColumns + ` FROM transactions
WHERE ($1::text[] IS NULL OR status = ANY($1))
  AND ($2::uuid IS NULL OR customer_id = $2)
ORDER BY created_at DESC
`

func (r *TransactionRepo) List(ctx context.Context, opts repository.ListTransactionsOpts) ([]models.Transaction, error) {
	var statuses []string
	if len(opts.Statuses) > 0 {
		statuses = opts.Statuses
	}

	rows, _ := r.DB.Query(ctx, listTransactions, statuses, opts.CustomerID)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

const markTransactionSuccess = `-- name: MarkTransactionSuccess
UPDATE transactions
SET status = 'success', modified_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + transactionColumns

func (r *TransactionRepo) MarkSuccess(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, markTransactionSuccess, id)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the CAS: either unknown id or already terminal.
		// Return the current row so the caller can tell the cases apart.
		transaction, getErr := r.Get(ctx, id)
		if getErr != nil {
			return transaction, getErr
		}
		return transaction, apperrors.ErrTransactionFinal
	default:
		return transaction, fmt.Errorf("db error: %w", err)
	}
}

const sweepExpired = `-- name: SweepExpired
UPDATE transactions
SET status = 'failed', modified_at = now()
WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1
RETURNING ` + transactionColumns

func (r *TransactionRepo) SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, sweepExpired, now)
	expired, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return expired, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.ModifiedAt, &t.CustomerID, &t.Amount, &t.Status,
		&t.BankCode, &t.MatchingResultID, &t.ExpiresAt,
	)
	return t, err
}
