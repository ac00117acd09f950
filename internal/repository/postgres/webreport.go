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

type WebreportRepo struct {
	DB DBTX
}

const webreportColumns = `id, created_at, modified_at, customer_id, virtual_account, amount, transfer_date, bank_sender, notes, status, matched_statement_id`

const createWebreport = `-- name: CreateWebreport
INSERT INTO webreports (id, created_at, modified_at, customer_id, virtual_account, amount, transfer_date, bank_sender, notes, status)
VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, 'pending')
RETURNING ` + webreportColumns

func (r *WebreportRepo) Create(ctx context.Context, arg repository.CreateWebreportParams) (models.Webreport, error) {
	rows, _ := r.DB.Query(ctx, createWebreport,
		uuid.New(), time.Now(), arg.CustomerID, arg.VirtualAccount, arg.Amount, arg.TransferDate, arg.BankSender, arg.Notes,
	)
	report, err := pgx.CollectOneRow(rows, rowToWebreport)
	if err != nil {
		return report, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}

const getWebreport = `-- name: GetWebreport
SELECT ` + webreportColumns + ` FROM webreports
WHERE id = $1
`

func (r *WebreportRepo) Get(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	rows, _ := r.DB.Query(ctx, getWebreport, id)
	report, err := pgx.CollectOneRow(rows, rowToWebreport)

	switch {
	case err == nil:
		return report, nil
	case errors.Is(err, pgx.ErrNoRows):
		return report, apperrors.ErrWebreportNotFound
	default:
		return report, fmt.Errorf("db error: %w", err)
	}
}

// Oldest first: the matching run processes reports in submission order
const listWebreports = `-- name: ListWebreports
SELECT ` + webreportColumns + ` FROM webreports
WHERE ($1::text[] IS NULL OR status = ANY($1))
  AND ($2::uuid IS NULL OR customer_id = $2)
ORDER BY created_at
`

func (r *WebreportRepo) List(ctx context.Context, opts repository.ListWebreportsOpts) ([]models.Webreport, error) {
	var statuses []string
	if len(opts.Statuses) > 0 {
		statuses = opts.Statuses
	}

	rows, _ := r.DB.Query(ctx, listWebreports, statuses, opts.CustomerID)
	reports, err := pgx.CollectRows(rows, rowToWebreport)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reports, nil
}

const markWebreportMatched = `-- name: MarkWebreportMatched
UPDATE webreports
SET status = 'matched', matched_statement_id = $2, modified_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + webreportColumns

func (r *WebreportRepo) MarkMatched(ctx context.Context, id uuid.UUID, statementID uuid.UUID) (models.Webreport, error) {
	return r.transition(ctx, markWebreportMatched, id, statementID)
}

const markWebreportVerified = `-- name: MarkWebreportVerified
UPDATE webreports
SET status = 'verified', modified_at = now()
WHERE id = $1 AND status = 'matched'
RETURNING ` + webreportColumns

func (r *WebreportRepo) MarkVerified(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	return r.transition(ctx, markWebreportVerified, id)
}

const releaseWebreport = `-- name: ReleaseWebreport
UPDATE webreports
SET status = 'pending', matched_statement_id = NULL, modified_at = now()
WHERE id = $1 AND status = 'matched'
RETURNING ` + webreportColumns

func (r *WebreportRepo) Release(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	return r.transition(ctx, releaseWebreport, id)
}

// transition runs a CAS status update. Zero rows means either the record is
// gone or someone else moved it first.
func (r *WebreportRepo) transition(ctx context.Context, sql string, id uuid.UUID, args ...any) (models.Webreport, error) {
	rows, _ := r.DB.Query(ctx, sql, append([]any{id}, args...)...)
	report, err := pgx.CollectOneRow(rows, rowToWebreport)

	switch {
	case err == nil:
		return report, nil
	case errors.Is(err, pgx.ErrNoRows):
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return report, getErr
		}
		return report, apperrors.ErrStatusConflict
	default:
		return report, fmt.Errorf("db error: %w", err)
	}
}

func rowToWebreport(row pgx.CollectableRow) (models.Webreport, error) {
	var w models.Webreport
	err := row.Scan(
		&w.ID, &w.CreatedAt, &w.ModifiedAt, &w.CustomerID, &w.VirtualAccount,
		&w.Amount, &w.TransferDate, &w.BankSender, &w.Notes, &w.Status, &w.MatchedStatementID,
	)
	return w, err
}
