package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

func createCustomer(t *testing.T, s *Storage, va string) models.Customer {
	t.Helper()

	customer, err := s.Customer().Create(t.Context(), repository.CreateCustomerParams{
		Name:           "Budi",
		VirtualAccount: va,
	})
	require.NoError(t, err)
	return customer
}

func createPair(t *testing.T, s *Storage) (models.Webreport, models.BankStatement) {
	t.Helper()
	now := time.Now()
	customer := createCustomer(t, s, uuid.NewString())

	report, err := s.Webreport().Create(t.Context(), repository.CreateWebreportParams{
		CustomerID:     customer.ID,
		VirtualAccount: customer.VirtualAccount,
		Amount:         decimal.NewFromInt(150000),
		TransferDate:   now,
		BankSender:     "BCA",
	})
	require.NoError(t, err)

	statement, err := s.Statement().Create(t.Context(), repository.CreateStatementParams{
		Source:          models.StatementSourceAPI,
		BankCode:        "BCA",
		VirtualAccount:  customer.VirtualAccount,
		Amount:          decimal.NewFromInt(150000),
		TransactionDate: now,
	})
	require.NoError(t, err)

	return report, statement
}

func TestCustomerRepo(t *testing.T) {
	t.Run("create starts at zero balance", func(t *testing.T) {
		s := NewStorage()
		customer := createCustomer(t, s, "88080123")

		require.True(t, customer.Balance.IsZero())
		require.NotEqual(t, uuid.Nil, customer.ID)
	})

	t.Run("virtual account is unique", func(t *testing.T) {
		s := NewStorage()
		createCustomer(t, s, "88080123")

		_, err := s.Customer().Create(t.Context(), repository.CreateCustomerParams{
			Name:           "Siti",
			VirtualAccount: "88080123",
		})
		require.ErrorIs(t, err, apperrors.ErrCustomerAlreadyExists)
	})

	t.Run("add balance accumulates", func(t *testing.T) {
		s := NewStorage()
		customer := createCustomer(t, s, "88080123")

		_, err := s.Customer().AddBalance(t.Context(), customer.ID, decimal.NewFromInt(1000))
		require.NoError(t, err)
		got, err := s.Customer().AddBalance(t.Context(), customer.ID, decimal.NewFromInt(500))
		require.NoError(t, err)

		require.True(t, decimal.NewFromInt(1500).Equal(got.Balance))
	})

	t.Run("get unknown", func(t *testing.T) {
		s := NewStorage()

		_, err := s.Customer().Get(t.Context(), uuid.New())
		require.ErrorIs(t, err, apperrors.ErrCustomerNotFound)
	})
}

func TestWebreportTransitions(t *testing.T) {
	t.Run("full lifecycle pending matched verified", func(t *testing.T) {
		s := NewStorage()
		report, statement := createPair(t, s)

		matched, err := s.Webreport().MarkMatched(t.Context(), report.ID, statement.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportMatched, matched.Status)
		require.NotNil(t, matched.MatchedStatementID)

		verified, err := s.Webreport().MarkVerified(t.Context(), report.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportVerified, verified.Status)
	})

	t.Run("transitions guard the current status", func(t *testing.T) {
		s := NewStorage()
		report, statement := createPair(t, s)

		// Not matched yet
		_, err := s.Webreport().MarkVerified(t.Context(), report.ID)
		require.ErrorIs(t, err, apperrors.ErrStatusConflict)

		_, err = s.Webreport().MarkMatched(t.Context(), report.ID, statement.ID)
		require.NoError(t, err)

		// Matching an already matched report loses the race
		_, err = s.Webreport().MarkMatched(t.Context(), report.ID, statement.ID)
		require.ErrorIs(t, err, apperrors.ErrStatusConflict)
	})

	t.Run("release drops the link", func(t *testing.T) {
		s := NewStorage()
		report, statement := createPair(t, s)

		_, err := s.Webreport().MarkMatched(t.Context(), report.ID, statement.ID)
		require.NoError(t, err)

		released, err := s.Webreport().Release(t.Context(), report.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportPending, released.Status)
		require.Nil(t, released.MatchedStatementID)
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		s := NewStorage()
		first, _ := createPair(t, s)
		second, _ := createPair(t, s)

		reports, err := s.Webreport().List(t.Context(), repository.ListWebreportsOpts{})
		require.NoError(t, err)
		require.Len(t, reports, 2)
		require.Equal(t, first.ID, reports[0].ID, "oldest first")
		require.Equal(t, second.ID, reports[1].ID)
	})

	t.Run("returned records do not alias the store", func(t *testing.T) {
		s := NewStorage()
		report, _ := createPair(t, s)

		report.Status = "tampered"

		got, err := s.Webreport().Get(t.Context(), report.ID)
		require.NoError(t, err)
		require.Equal(t, models.WebreportPending, got.Status)
	})
}

func TestMatchRepo(t *testing.T) {
	createMatch := func(t *testing.T, s *Storage) models.MatchingResult {
		t.Helper()
		report, statement := createPair(t, s)

		match, err := s.Match().Create(t.Context(), repository.CreateMatchParams{
			WebreportID:     report.ID,
			BankStatementID: statement.ID,
			MatchScore:      100,
			MatchDetails:    models.MatchDetails{VAMatch: true, AmountMatch: true},
			Status:          models.MatchAutoMatched,
		})
		require.NoError(t, err)
		return match
	}

	t.Run("at most one live match per record", func(t *testing.T) {
		s := NewStorage()
		match := createMatch(t, s)

		_, err := s.Match().Create(t.Context(), repository.CreateMatchParams{
			WebreportID:     match.WebreportID,
			BankStatementID: uuid.New(),
			MatchScore:      50,
			Status:          models.MatchManualReview,
		})
		require.ErrorIs(t, err, apperrors.ErrStatusConflict, "webreport already has a live match")

		_, err = s.Match().Create(t.Context(), repository.CreateMatchParams{
			WebreportID:     uuid.New(),
			BankStatementID: match.BankStatementID,
			MatchScore:      50,
			Status:          models.MatchManualReview,
		})
		require.ErrorIs(t, err, apperrors.ErrStatusConflict, "statement already has a live match")
	})

	t.Run("rejected match frees the records", func(t *testing.T) {
		s := NewStorage()
		match := createMatch(t, s)

		_, err := s.Match().Resolve(t.Context(), match.ID, models.MatchRejected, "ops", "")
		require.NoError(t, err)

		_, err = s.Match().Create(t.Context(), repository.CreateMatchParams{
			WebreportID:     match.WebreportID,
			BankStatementID: match.BankStatementID,
			MatchScore:      100,
			Status:          models.MatchAutoMatched,
		})
		require.NoError(t, err, "a rejected match must not block re-matching")
	})

	t.Run("resolve is terminal", func(t *testing.T) {
		s := NewStorage()
		match := createMatch(t, s)

		resolved, err := s.Match().Resolve(t.Context(), match.ID, models.MatchVerified, "ops", "ok")
		require.NoError(t, err)
		require.Equal(t, models.MatchVerified, resolved.Status)
		require.Equal(t, "ops", resolved.VerifiedBy)
		require.NotNil(t, resolved.VerifiedAt)

		_, err = s.Match().Resolve(t.Context(), match.ID, models.MatchRejected, "ops", "")
		require.ErrorIs(t, err, apperrors.ErrMatchAlreadyResolved)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := NewStorage()
		first := createMatch(t, s)
		second := createMatch(t, s)

		matches, err := s.Match().List(t.Context(), repository.ListMatchesOpts{})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		require.Equal(t, second.ID, matches[0].ID)
		require.Equal(t, first.ID, matches[1].ID)
	})
}

func TestTransactionRepo(t *testing.T) {
	t.Run("one transaction per matching result", func(t *testing.T) {
		s := NewStorage()
		customer := createCustomer(t, s, "88080123")
		matchID := uuid.New()

		_, err := s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID:       customer.ID,
			Amount:           decimal.NewFromInt(150000),
			Status:           models.TransactionSuccess,
			MatchingResultID: &matchID,
		})
		require.NoError(t, err)

		_, err = s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID:       customer.ID,
			Amount:           decimal.NewFromInt(150000),
			Status:           models.TransactionSuccess,
			MatchingResultID: &matchID,
		})
		require.ErrorIs(t, err, apperrors.ErrMatchAlreadySettled)
	})

	t.Run("mark success once", func(t *testing.T) {
		s := NewStorage()
		customer := createCustomer(t, s, "88080123")

		pending, err := s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(1000),
			Status:     models.TransactionPending,
		})
		require.NoError(t, err)

		got, err := s.Transaction().MarkSuccess(t.Context(), pending.ID)
		require.NoError(t, err)
		require.Equal(t, models.TransactionSuccess, got.Status)

		// Terminal already; the current row comes back with the error
		got, err = s.Transaction().MarkSuccess(t.Context(), pending.ID)
		require.ErrorIs(t, err, apperrors.ErrTransactionFinal)
		require.Equal(t, models.TransactionSuccess, got.Status)
	})

	t.Run("sweep fails only overdue pending", func(t *testing.T) {
		s := NewStorage()
		customer := createCustomer(t, s, "88080123")
		now := time.Now()

		past := now.Add(-time.Minute)
		future := now.Add(time.Minute)

		overdue, err := s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(1000),
			Status:     models.TransactionPending,
			ExpiresAt:  &past,
		})
		require.NoError(t, err)

		fresh, err := s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(2000),
			Status:     models.TransactionPending,
			ExpiresAt:  &future,
		})
		require.NoError(t, err)

		// No deadline at all, must never expire
		eternal, err := s.Transaction().Create(t.Context(), repository.CreateTransactionParams{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(3000),
			Status:     models.TransactionPending,
		})
		require.NoError(t, err)

		expired, err := s.Transaction().SweepExpired(t.Context(), now)
		require.NoError(t, err)

		require.Len(t, expired, 1)
		require.Equal(t, overdue.ID, expired[0].ID)
		require.Equal(t, models.TransactionFailed, expired[0].Status)

		for _, id := range []uuid.UUID{fresh.ID, eternal.ID} {
			got, err := s.Transaction().Get(t.Context(), id)
			require.NoError(t, err)
			require.Equal(t, models.TransactionPending, got.Status)
		}
	})
}
