package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/repository/memory"
	"github.com/andriarta/payrecon/internal/service/matching"
	"github.com/andriarta/payrecon/internal/testutil"
)

// claimedStatements wraps a Storage so every statement mark fails with a
// status conflict, as if another run claimed the statement first.
type claimedStatements struct {
	repository.Storage
}

func (s *claimedStatements) Statement() repository.StatementRepo {
	return &claimedStatementRepo{StatementRepo: s.Storage.Statement()}
}

func (s *claimedStatements) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return s.Storage.InTx(ctx, func(store repository.Storage) error {
		return fn(&claimedStatements{Storage: store})
	})
}

type claimedStatementRepo struct {
	repository.StatementRepo
}

func (r *claimedStatementRepo) MarkMatched(ctx context.Context, id uuid.UUID, webreportID uuid.UUID) (models.BankStatement, error) {
	return models.BankStatement{}, apperrors.ErrStatusConflict
}

func TestRunMatching(t *testing.T) {
	now := time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)

	t.Run("pairing moves both records and creates result", func(t *testing.T) {
		storage := memory.NewStorage()
		service := matching.NewService(storage, matching.DefaultConfig, logger.NewNoOp())

		customer := testutil.CreateCustomer(t, storage, "Budi", "88080123")
		report := testutil.CreateWebreport(t, storage, customer, "150000", now)
		stmt := testutil.CreateStatement(t, storage, "88080123", "150000", now)

		runReport, err := service.RunMatching(t.Context())
		require.NoError(t, err)

		require.Len(t, runReport.Matched, 1)
		match := runReport.Matched[0]
		require.Equal(t, report.ID, match.WebreportID)
		require.Equal(t, stmt.ID, match.BankStatementID)
		require.Equal(t, 100, match.MatchScore)
		require.Equal(t, models.MatchAutoMatched, match.Status)

		gotReport, err := storage.Webreport().Get(t.Context(), report.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportMatched, gotReport.Status)
		require.NotNil(t, gotReport.MatchedStatementID)
		require.Equal(t, stmt.ID, *gotReport.MatchedStatementID)

		gotStmt, err := storage.Statement().Get(t.Context(), stmt.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatementMatched, gotStmt.Status)
		require.NotNil(t, gotStmt.MatchedWebreportID)
		require.Equal(t, report.ID, *gotStmt.MatchedWebreportID)
	})

	t.Run("leftovers are reported unmatched", func(t *testing.T) {
		storage := memory.NewStorage()
		service := matching.NewService(storage, matching.DefaultConfig, logger.NewNoOp())

		customer := testutil.CreateCustomer(t, storage, "Budi", "88080123")
		testutil.CreateWebreport(t, storage, customer, "150000", now)
		testutil.CreateStatement(t, storage, "99990000", "42", now)

		runReport, err := service.RunMatching(t.Context())
		require.NoError(t, err)

		require.Empty(t, runReport.Matched)
		require.Len(t, runReport.UnmatchedWebreports, 1)
		require.Len(t, runReport.UnmatchedStatements, 1)
	})

	t.Run("concurrently claimed statement leaves the webreport pending", func(t *testing.T) {
		storage := memory.NewStorage()
		service := matching.NewService(&claimedStatements{Storage: storage}, matching.DefaultConfig, logger.NewNoOp())

		customer := testutil.CreateCustomer(t, storage, "Budi", "88080123")
		report := testutil.CreateWebreport(t, storage, customer, "150000", now)
		testutil.CreateStatement(t, storage, "88080123", "150000", now)

		runReport, err := service.RunMatching(t.Context())
		require.NoError(t, err, "a lost pairing must not fail the run")
		require.Empty(t, runReport.Matched)

		gotReport, err := storage.Webreport().Get(t.Context(), report.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportPending, gotReport.Status, "the half-done pairing must be undone")
		require.Nil(t, gotReport.MatchedStatementID)

		matches, err := storage.Match().List(t.Context(), repository.ListMatchesOpts{})
		require.NoError(t, err)
		require.Empty(t, matches)
	})

	t.Run("second run finds nothing new", func(t *testing.T) {
		storage := memory.NewStorage()
		service := matching.NewService(storage, matching.DefaultConfig, logger.NewNoOp())

		customer := testutil.CreateCustomer(t, storage, "Budi", "88080123")
		testutil.CreateWebreport(t, storage, customer, "150000", now)
		testutil.CreateStatement(t, storage, "88080123", "150000", now)

		first, err := service.RunMatching(t.Context())
		require.NoError(t, err)
		require.Len(t, first.Matched, 1)

		second, err := service.RunMatching(t.Context())
		require.NoError(t, err)
		require.Empty(t, second.Matched, "matched records must not be paired again")

		matches, err := storage.Match().List(t.Context(), repository.ListMatchesOpts{})
		require.NoError(t, err)
		require.Len(t, matches, 1)
	})
}
