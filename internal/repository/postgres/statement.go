package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type StatementRepo struct {
	DB DBTX
}

const statementColumns = `id, created_at, modified_at, source, bank_code, account_number, virtual_account, amount, transaction_date, sender_name, reference, status, matched_webreport_id`

const createStatement = `-- name: CreateStatement
INSERT INTO bank_statements (id, created_at, modified_at, source, bank_code, account_number, virtual_account, amount, transaction_date, sender_name, reference, status)
VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
RETURNING ` + statementColumns

func (r *StatementRepo) Create(ctx context.Context, arg repository.CreateStatementParams) (models.BankStatement, error) {
	rows, _ := r.DB.Query(ctx, createStatement,
		uuid.New(), time.Now(), arg.Source, arg.BankCode, arg.AccountNumber,
		arg.VirtualAccount, arg.Amount, arg.TransactionDate, arg.SenderName, arg.Reference,
	)
	statement, err := pgx.CollectOneRow(rows, rowToStatement)
	if err != nil {
		return statement, fmt.Errorf("db error: %w", err)
	}

	return statement, nil
}

func (r *StatementRepo) CreateBatch(ctx context.Context, args []repository.CreateStatementParams) ([]models.BankStatement, error) {
	statements := make([]models.BankStatement, 0, len(args))

	for _, arg := range args {
		statement, err := r.Create(ctx, arg)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}

	return statements, nil
}

const getStatement = `-- name: GetStatement
SELECT ` + statementColumns + ` FROM bank_statements
WHERE id = $1
`

func (r *StatementRepo) Get(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	rows, _ := r.DB.Query(ctx, getStatement, id)
	statement, err := pgx.CollectOneRow(rows, rowToStatement)

	switch {
	case err == nil:
		return statement, nil
	case errors.Is(err, pgx.ErrNoRows):
		return statement, apperrors.ErrStatementNotFound
	default:
		return statement, fmt.Errorf("db error: %w", err)
	}
}

const listStatements = `-- name: ListStatements
SELECT ` + statementColumns + ` FROM bank_statements
WHERE ($1::text[] IS NULL OR status = ANY($1))
  AND ($2::text = '' OR source = $2)
  AND ($3::text = '' OR bank_code = $3)
ORDER BY created_at
`

func (r *StatementRepo) List(ctx context.Context, opts repository.ListStatementsOpts) ([]models.BankStatement, error) {
	var statuses []string
	if len(opts.Statuses) > 0 {
		statuses = opts.Statuses
	}

	rows, _ := r.DB.Query(ctx, listStatements, statuses, opts.Source, opts.BankCode)
	statements, err := pgx.CollectRows(rows, rowToStatement)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return statements, nil
}

const markStatementMatched = `-- name: MarkStatementMatched
UPDATE bank_statements
SET status = 'matched', matched_webreport_id = $2, modified_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + statementColumns

func (r *StatementRepo) MarkMatched(ctx context.Context, id uuid.UUID, webreportID uuid.UUID) (models.BankStatement, error) {
	return r.transition(ctx, markStatementMatched, id, webreportID)
}

const markStatementProcessed = `-- name: MarkStatementProcessed
UPDATE bank_statements
SET status = 'processed', modified_at = now()
WHERE id = $1 AND status = 'matched'
RETURNING ` + statementColumns

func (r *StatementRepo) MarkProcessed(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	return r.transition(ctx, markStatementProcessed, id)
}

const releaseStatement = `-- name: ReleaseStatement
UPDATE bank_statements
SET status = 'pending', matched_webreport_id = NULL, modified_at = now()
WHERE id = $1 AND status = 'matched'
RETURNING ` + statementColumns

func (r *StatementRepo) Release(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	return r.transition(ctx, releaseStatement, id)
}

func (r *StatementRepo) transition(ctx context.Context, sql string, id uuid.UUID, args ...any) (models.BankStatement, error) {
	rows, _ := r.DB.Query(ctx, sql, append([]any{id}, args...)...)
	statement, err := pgx.CollectOneRow(rows, rowToStatement)

	switch {
	case err == nil:
		return statement, nil
	case errors.Is(err, pgx.ErrNoRows):
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return statement, getErr
		}
		return statement, apperrors.ErrStatusConflict
	default:
		return statement, fmt.Errorf("db error: %w", err)
	}
}

func rowToStatement(row pgx.CollectableRow) (models.BankStatement, error) {
	var s models.BankStatement
	err := row.Scan(
		&s.ID, &s.CreatedAt, &s.ModifiedAt, &s.Source, &s.BankCode, &s.AccountNumber,
		&s.VirtualAccount, &s.Amount, &s.TransactionDate, &s.SenderName, &s.Reference,
		&s.Status, &s.MatchedWebreportID,
	)
	return s, err
}
