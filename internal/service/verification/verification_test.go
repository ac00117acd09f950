package verification_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/repository/memory"
	"github.com/andriarta/payrecon/internal/service/matching"
	"github.com/andriarta/payrecon/internal/service/settlement"
	"github.com/andriarta/payrecon/internal/service/verification"
	"github.com/andriarta/payrecon/internal/testutil"
)

// matchedFixture creates a customer, a paired webreport/statement and the
// matching result, the state verification starts from.
func matchedFixture(t *testing.T, storage repository.Storage) (models.Customer, models.MatchingResult) {
	t.Helper()
	now := time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)

	customer := testutil.CreateCustomer(t, storage, "Budi", "88080123")
	testutil.CreateWebreport(t, storage, customer, "150000", now)
	testutil.CreateStatement(t, storage, "88080123", "150000", now)

	matchingService := matching.NewService(storage, matching.DefaultConfig, logger.NewNoOp())
	runReport, err := matchingService.RunMatching(t.Context())
	require.NoError(t, err)
	require.Len(t, runReport.Matched, 1)

	return customer, runReport.Matched[0]
}

func newService(storage repository.Storage) *verification.Service {
	settlementService := settlement.NewService(storage, settlement.DefaultTopupTTL, logger.NewNoOp())
	return verification.NewService(storage, settlementService, logger.NewNoOp())
}

func TestVerifyApprove(t *testing.T) {
	t.Run("approve settles and credits exactly once", func(t *testing.T) {
		storage := memory.NewStorage()
		customer, match := matchedFixture(t, storage)
		service := newService(storage)

		resolved, err := service.Verify(t.Context(), match.ID, verification.ActionApprove, "ops@acme", "looks right")
		require.NoError(t, err)

		require.Equal(t, models.MatchVerified, resolved.Status)
		require.Equal(t, "ops@acme", resolved.VerifiedBy)
		require.Equal(t, "looks right", resolved.Notes)
		require.NotNil(t, resolved.VerifiedAt)

		gotCustomer, err := storage.Customer().Get(t.Context(), customer.ID)
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(150000).Equal(gotCustomer.Balance), "balance has to be credited once, got %s", gotCustomer.Balance)

		webreport, err := storage.Webreport().Get(t.Context(), match.WebreportID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportVerified, webreport.Status)

		statement, err := storage.Statement().Get(t.Context(), match.BankStatementID)
		require.NoError(t, err)
		require.Equal(t, models.StatementProcessed, statement.Status)

		transactions, err := storage.Transaction().List(t.Context(), repository.ListTransactionsOpts{CustomerID: &customer.ID})
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		require.Equal(t, models.TransactionSuccess, transactions[0].Status)
		require.NotNil(t, transactions[0].MatchingResultID)
		require.Equal(t, match.ID, *transactions[0].MatchingResultID)
	})

	t.Run("second approve conflicts and does not credit again", func(t *testing.T) {
		storage := memory.NewStorage()
		customer, match := matchedFixture(t, storage)
		service := newService(storage)

		_, err := service.Verify(t.Context(), match.ID, verification.ActionApprove, "ops@acme", "")
		require.NoError(t, err)

		_, err = service.Verify(t.Context(), match.ID, verification.ActionApprove, "ops@acme", "")
		require.ErrorIs(t, err, apperrors.ErrMatchAlreadyResolved)

		gotCustomer, err := storage.Customer().Get(t.Context(), customer.ID)
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(150000).Equal(gotCustomer.Balance), "duplicate approve must not double credit")

		transactions, err := storage.Transaction().List(t.Context(), repository.ListTransactionsOpts{CustomerID: &customer.ID})
		require.NoError(t, err)
		require.Len(t, transactions, 1)
	})

	t.Run("unknown id", func(t *testing.T) {
		storage := memory.NewStorage()
		service := newService(storage)

		_, err := service.Verify(t.Context(), uuid.New(), verification.ActionApprove, "ops@acme", "")
		require.ErrorIs(t, err, apperrors.ErrMatchNotFound)
	})

	t.Run("unknown action", func(t *testing.T) {
		storage := memory.NewStorage()
		_, match := matchedFixture(t, storage)
		service := newService(storage)

		_, err := service.Verify(t.Context(), match.ID, "escalate", "ops@acme", "")
		require.Error(t, err)
	})
}

func TestVerifyReject(t *testing.T) {
	t.Run("reject releases both records", func(t *testing.T) {
		storage := memory.NewStorage()
		customer, match := matchedFixture(t, storage)
		service := newService(storage)

		resolved, err := service.Verify(t.Context(), match.ID, verification.ActionReject, "ops@acme", "wrong sender")
		require.NoError(t, err)
		require.Equal(t, models.MatchRejected, resolved.Status)

		webreport, err := storage.Webreport().Get(t.Context(), match.WebreportID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportPending, webreport.Status)
		require.Nil(t, webreport.MatchedStatementID, "statement link has to be dropped")

		statement, err := storage.Statement().Get(t.Context(), match.BankStatementID)
		require.NoError(t, err)
		require.Equal(t, models.StatementPending, statement.Status)
		require.Nil(t, statement.MatchedWebreportID)

		gotCustomer, err := storage.Customer().Get(t.Context(), customer.ID)
		require.NoError(t, err)
		require.True(t, gotCustomer.Balance.IsZero(), "reject must not touch the balance")
	})

	t.Run("released records pair again on the next run", func(t *testing.T) {
		storage := memory.NewStorage()
		_, match := matchedFixture(t, storage)
		service := newService(storage)

		_, err := service.Verify(t.Context(), match.ID, verification.ActionReject, "ops@acme", "")
		require.NoError(t, err)

		matchingService := matching.NewService(storage, matching.DefaultConfig, logger.NewNoOp())
		runReport, err := matchingService.RunMatching(t.Context())
		require.NoError(t, err)

		require.Len(t, runReport.Matched, 1, "released pair has to be matchable again")
		require.Equal(t, match.WebreportID, runReport.Matched[0].WebreportID)
		require.Equal(t, match.BankStatementID, runReport.Matched[0].BankStatementID)
	})

	t.Run("reject after approve conflicts", func(t *testing.T) {
		storage := memory.NewStorage()
		_, match := matchedFixture(t, storage)
		service := newService(storage)

		_, err := service.Verify(t.Context(), match.ID, verification.ActionApprove, "ops@acme", "")
		require.NoError(t, err)

		_, err = service.Verify(t.Context(), match.ID, verification.ActionReject, "ops@acme", "")
		require.ErrorIs(t, err, apperrors.ErrMatchAlreadyResolved)
	})
}
