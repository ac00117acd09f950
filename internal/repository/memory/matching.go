package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type matchRepo struct {
	s *Storage
}

func (r *matchRepo) Create(ctx context.Context, arg repository.CreateMatchParams) (models.MatchingResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Same guarantee as the partial unique indexes in postgres
	for _, m := range r.s.matches {
		if m.Status == models.MatchRejected {
			continue
		}
		if m.WebreportID == arg.WebreportID || m.BankStatementID == arg.BankStatementID {
			return models.MatchingResult{}, apperrors.ErrStatusConflict
		}
	}

	now := time.Now()
	match := models.MatchingResult{
		ID:              uuid.New(),
		CreatedAt:       now,
		ModifiedAt:      now,
		WebreportID:     arg.WebreportID,
		BankStatementID: arg.BankStatementID,
		MatchScore:      arg.MatchScore,
		MatchDetails:    arg.MatchDetails,
		Status:          arg.Status,
	}
	r.s.matches[match.ID] = &match
	r.s.matchOrder = append(r.s.matchOrder, match.ID)

	return cloneMatch(&match), nil
}

func (r *matchRepo) Get(ctx context.Context, id uuid.UUID) (models.MatchingResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	match, ok := r.s.matches[id]
	if !ok {
		return models.MatchingResult{}, apperrors.ErrMatchNotFound
	}

	return cloneMatch(match), nil
}

func (r *matchRepo) List(ctx context.Context, opts repository.ListMatchesOpts) ([]models.MatchingResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Newest first
	matches := make([]models.MatchingResult, 0, len(r.s.matchOrder))
	for i := len(r.s.matchOrder) - 1; i >= 0; i-- {
		match := r.s.matches[r.s.matchOrder[i]]
		if len(opts.Statuses) > 0 && !containsString(opts.Statuses, match.Status) {
			continue
		}
		matches = append(matches, cloneMatch(match))
	}

	return matches, nil
}

func (r *matchRepo) Resolve(ctx context.Context, id uuid.UUID, status string, verifiedBy string, notes string) (models.MatchingResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	match, ok := r.s.matches[id]
	if !ok {
		return models.MatchingResult{}, apperrors.ErrMatchNotFound
	}
	if match.Resolved() {
		return cloneMatch(match), apperrors.ErrMatchAlreadyResolved
	}

	now := time.Now()
	match.Status = status
	match.VerifiedBy = verifiedBy
	match.VerifiedAt = &now
	match.Notes = notes
	match.ModifiedAt = now

	return cloneMatch(match), nil
}

func cloneMatch(m *models.MatchingResult) models.MatchingResult {
	clone := *m
	if m.VerifiedAt != nil {
		at := *m.VerifiedAt
		clone.VerifiedAt = &at
	}
	return clone
}
