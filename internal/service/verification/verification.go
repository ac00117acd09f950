// Package verification drives the MatchingResult state machine:
// auto_matched | manual_review -> verified (settles) or rejected (releases).
package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/service/settlement"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Service struct {
	storage    repository.Storage
	settlement *settlement.Service
	logger     logger.Logger
}

func NewService(storage repository.Storage, settlementService *settlement.Service, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Service{
		storage:    storage,
		settlement: settlementService,
		logger:     l,
	}
}

// Verify resolves a live matching result.
//
// Approve settles first and flips the result to verified in the same
// transaction, so a verified match without a credit cannot exist. Reject
// releases both records back to pending, eligible for the next run.
//
// Unknown id: apperrors.ErrMatchNotFound. Already terminal:
// apperrors.ErrMatchAlreadyResolved, which makes a duplicate request a
// conflict instead of a double settlement.
func (s *Service) Verify(ctx context.Context, id uuid.UUID, action string, actor string, notes string) (models.MatchingResult, error) {
	switch action {
	case ActionApprove:
		return s.approve(ctx, id, actor, notes)
	case ActionReject:
		return s.reject(ctx, id, actor, notes)
	default:
		return models.MatchingResult{}, fmt.Errorf("unknown verify action %q", action)
	}
}

func (s *Service) approve(ctx context.Context, id uuid.UUID, actor string, notes string) (models.MatchingResult, error) {
	var resolved models.MatchingResult

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		match, err := store.Match().Get(ctx, id)
		if err != nil {
			return err
		}
		if match.Resolved() {
			return apperrors.ErrMatchAlreadyResolved
		}

		// Settlement comes first; if anything here fails the status flip
		// rolls back with it
		if _, err := s.settlement.SettleInTx(ctx, store, match); err != nil {
			return err
		}

		if _, err := store.Webreport().MarkVerified(ctx, match.WebreportID); err != nil {
			return err
		}
		if _, err := store.Statement().MarkProcessed(ctx, match.BankStatementID); err != nil {
			return err
		}

		resolved, err = store.Match().Resolve(ctx, id, models.MatchVerified, actor, notes)
		return err
	})
	if err != nil {
		return resolved, err
	}

	s.logger.Info("Match approved", "matching_result_id", id, "verified_by", actor)

	return resolved, nil
}

func (s *Service) reject(ctx context.Context, id uuid.UUID, actor string, notes string) (models.MatchingResult, error) {
	var resolved models.MatchingResult

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		resolved, err = store.Match().Resolve(ctx, id, models.MatchRejected, actor, notes)
		if err != nil {
			return err
		}

		// Release both sides for re-matching
		if _, err := store.Webreport().Release(ctx, resolved.WebreportID); err != nil {
			return err
		}
		if _, err := store.Statement().Release(ctx, resolved.BankStatementID); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return resolved, err
	}

	s.logger.Info("Match rejected", "matching_result_id", id, "verified_by", actor)

	return resolved, nil
}
