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

type MatchRepo struct {
	DB DBTX
}

const matchColumns = `id, created_at, modified_at, webreport_id, bank_statement_id, match_score, va_match, amount_match, date_proximity_hours, status, verified_by, verified_at, notes`

const createMatch = `-- name: CreateMatch
INSERT INTO matching_results (id, created_at, modified_at, webreport_id, bank_statement_id, match_score, va_match, amount_match, date_proximity_hours, status)
VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + matchColumns

func (r *MatchRepo) Create(ctx context.Context, arg repository.CreateMatchParams) (models.MatchingResult, error) {
	rows, _ := r.DB.Query(ctx, createMatch,
		uuid.New(), time.Now(), arg.WebreportID, arg.BankStatementID, arg.MatchScore,
		arg.MatchDetails.VAMatch, arg.MatchDetails.AmountMatch, arg.MatchDetails.DateProximityHours,
		arg.Status,
	)
	match, err := pgx.CollectOneRow(rows, rowToMatch)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// The partial unique indexes fired: one of the records already
			// has a live match
			return match, apperrors.ErrStatusConflict
		}

		return match, fmt.Errorf("db error: %w", err)
	}

	return match, nil
}

const getMatch = `-- name: GetMatch
SELECT ` + matchColumns + ` FROM matching_results
WHERE id = $1
`

func (r *MatchRepo) Get(ctx context.Context, id uuid.UUID) (models.MatchingResult, error) {
	rows, _ := r.DB.Query(ctx, getMatch, id)
	match, err := pgx.CollectOneRow(rows, rowToMatch)

	switch {
	case err == nil:
		return match, nil
	case errors.Is(err, pgx.ErrNoRows):
		return match, apperrors.ErrMatchNotFound
	default:
		return match, fmt.Errorf("db error: %w", err)
	}
}

const listMatches = `-- name: ListMatches
SELECT ` + matchColumns + ` FROM matching_results
WHERE ($1::text[] IS NULL OR status = ANY($1))
ORDER BY created_at DESC
`

func (r *MatchRepo) List(ctx context.Context, opts repository.ListMatchesOpts) ([]models.MatchingResult, error) {
	var statuses []string
	if len(opts.Statuses) > 0 {
		statuses = opts.Statuses
	}

	rows, _ := r.DB.Query(ctx, listMatches, statuses)
	matches, err := pgx.CollectRows(rows, rowToMatch)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return matches, nil
}

// CAS from a live status only. Terminal results stay as they are, which makes
// a duplicate approve or reject surface as a conflict instead of double work.
const resolveMatch = `-- name: ResolveMatch
UPDATE matching_results
SET status = $2, verified_by = $3, verified_at = now(), notes = $4, modified_at = now()
WHERE id = $1 AND status IN ('auto_matched', 'manual_review')
RETURNING ` + matchColumns

func (r *MatchRepo) Resolve(ctx context.Context, id uuid.UUID, status string, verifiedBy string, notes string) (models.MatchingResult, error) {
	rows, _ := r.DB.Query(ctx, resolveMatch, id, status, verifiedBy, notes)
	match, err := pgx.CollectOneRow(rows, rowToMatch)

	switch {
	case err == nil:
		return match, nil
	case errors.Is(err, pgx.ErrNoRows):
		match, getErr := r.Get(ctx, id)
		if getErr != nil {
			return match, getErr
		}
		return match, apperrors.ErrMatchAlreadyResolved
	default:
		return match, fmt.Errorf("db error: %w", err)
	}
}

func rowToMatch(row pgx.CollectableRow) (models.MatchingResult, error) {
	var m models.MatchingResult
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.ModifiedAt, &m.WebreportID, &m.BankStatementID,
		&m.MatchScore, &m.MatchDetails.VAMatch, &m.MatchDetails.AmountMatch,
		&m.MatchDetails.DateProximityHours, &m.Status, &m.VerifiedBy, &m.VerifiedAt, &m.Notes,
	)
	return m, err
}
