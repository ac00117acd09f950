package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type Service struct {
	storage repository.Storage
	config  Config
	logger  logger.Logger
}

func NewService(storage repository.Storage, config Config, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Service{
		storage: storage,
		config:  config,
		logger:  l,
	}
}

// RunReport is what one matching run produced and what it left behind.
type RunReport struct {
	Matched             []models.MatchingResult
	UnmatchedWebreports []models.Webreport
	UnmatchedStatements []models.BankStatement
}

// RunMatching loads the pending sets, runs the engine and persists every
// accepted pairing: both records move pending -> matched and a MatchingResult
// is created, all within one transaction per pairing. A record claimed by a
// concurrent run simply drops out; the run itself still succeeds.
func (s *Service) RunMatching(ctx context.Context) (RunReport, error) {
	reports, err := s.storage.Webreport().List(ctx, repository.ListWebreportsOpts{
		Statuses: []string{models.WebreportPending},
	})
	if err != nil {
		return RunReport{}, fmt.Errorf("can't list pending webreports. Err: %w", err)
	}

	statements, err := s.storage.Statement().List(ctx, repository.ListStatementsOpts{
		Statuses: []string{models.StatementPending},
	})
	if err != nil {
		return RunReport{}, fmt.Errorf("can't list pending statements. Err: %w", err)
	}

	result := Run(reports, statements, s.config)

	report := RunReport{
		UnmatchedWebreports: result.UnmatchedWebreports,
		UnmatchedStatements: result.UnmatchedStatements,
	}

	for _, candidate := range result.Matched {
		match, err := s.persist(ctx, candidate)

		switch {
		case err == nil:
			report.Matched = append(report.Matched, match)
		case errors.Is(err, apperrors.ErrStatusConflict):
			// Lost the records to a concurrent matching run or verification
			s.logger.Warn("Skipping pairing, records claimed concurrently",
				"webreport_id", candidate.WebreportID,
				"bank_statement_id", candidate.BankStatementID,
			)
		default:
			return RunReport{}, fmt.Errorf("can't persist matching result. Err: %w", err)
		}
	}

	s.logger.Info("Matching run finished",
		"matched", len(report.Matched),
		"unmatched_webreports", len(report.UnmatchedWebreports),
		"unmatched_statements", len(report.UnmatchedStatements),
	)

	return report, nil
}

func (s *Service) persist(ctx context.Context, candidate Candidate) (models.MatchingResult, error) {
	var match models.MatchingResult

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		if _, err := store.Webreport().MarkMatched(ctx, candidate.WebreportID, candidate.BankStatementID); err != nil {
			return err
		}
		if _, err := store.Statement().MarkMatched(ctx, candidate.BankStatementID, candidate.WebreportID); err != nil {
			// The memory store has no transactional rollback, so undo the
			// webreport mark explicitly. Under postgres the rollback makes
			// this release a no-op.
			if _, rerr := store.Webreport().Release(ctx, candidate.WebreportID); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}

		var err error
		match, err = store.Match().Create(ctx, repository.CreateMatchParams{
			WebreportID:     candidate.WebreportID,
			BankStatementID: candidate.BankStatementID,
			MatchScore:      candidate.Score,
			MatchDetails:    candidate.Details,
			Status:          candidate.Status,
		})
		if err != nil {
			if _, rerr := store.Webreport().Release(ctx, candidate.WebreportID); rerr != nil {
				return errors.Join(err, rerr)
			}
			if _, rerr := store.Statement().Release(ctx, candidate.BankStatementID); rerr != nil {
				return errors.Join(err, rerr)
			}
		}
		return err
	})

	return match, err
}
