// Package settlement owns the Transaction lifecycle and is the only code
// allowed to mutate a customer balance. Both settlement paths end here:
// approving a verified match and confirming a direct top-up.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

const DefaultTopupTTL = 15 * time.Minute

type Service struct {
	storage  repository.Storage
	topupTTL time.Duration
	logger   logger.Logger
}

func NewService(storage repository.Storage, topupTTL time.Duration, l logger.Logger) *Service {
	if topupTTL <= 0 {
		topupTTL = DefaultTopupTTL
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Service{
		storage:  storage,
		topupTTL: topupTTL,
		logger:   l,
	}
}

// Settle converts a verified match into a success Transaction and credits the
// customer, atomically.
func (s *Service) Settle(ctx context.Context, match models.MatchingResult) (models.Transaction, error) {
	var transaction models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		transaction, err = s.SettleInTx(ctx, store, match)
		return err
	})

	return transaction, err
}

// SettleInTx is Settle running on an already transaction-scoped storage. The
// verification service uses it so the credit and the verified status land in
// one database transaction.
//
// Idempotent per match: a Transaction already linked to the match makes the
// second call fail with apperrors.ErrMatchAlreadySettled before any credit.
func (s *Service) SettleInTx(ctx context.Context, store repository.Storage, match models.MatchingResult) (models.Transaction, error) {
	var transaction models.Transaction

	report, err := store.Webreport().Get(ctx, match.WebreportID)
	if err != nil {
		return transaction, fmt.Errorf("can't load webreport for settlement. Err: %w", err)
	}

	statement, err := store.Statement().Get(ctx, match.BankStatementID)
	if err != nil {
		return transaction, fmt.Errorf("can't load statement for settlement. Err: %w", err)
	}

	matchID := match.ID
	transaction, err = store.Transaction().Create(ctx, repository.CreateTransactionParams{
		CustomerID:       report.CustomerID,
		Amount:           report.Amount,
		Status:           models.TransactionSuccess,
		BankCode:         statement.BankCode,
		MatchingResultID: &matchID,
	})
	if err != nil {
		// ErrMatchAlreadySettled passes through untouched, the guard fired
		return transaction, err
	}

	if _, err := store.Customer().AddBalance(ctx, report.CustomerID, report.Amount); err != nil {
		return transaction, fmt.Errorf("can't credit customer balance. Err: %w", err)
	}

	s.logger.Info("Match settled",
		"matching_result_id", match.ID,
		"customer_id", report.CustomerID,
		"amount", report.Amount,
	)

	return transaction, nil
}

// CreateTopup opens a pending Transaction that waits for an external payment
// confirmation until its deadline.
func (s *Service) CreateTopup(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, bankCode string) (models.Transaction, error) {
	var transaction models.Transaction

	if _, err := s.storage.Customer().Get(ctx, customerID); err != nil {
		return transaction, err
	}

	expiresAt := time.Now().Add(s.topupTTL)
	transaction, err := s.storage.Transaction().Create(ctx, repository.CreateTransactionParams{
		CustomerID: customerID,
		Amount:     amount,
		Status:     models.TransactionPending,
		BankCode:   bankCode,
		ExpiresAt:  &expiresAt,
	})
	if err != nil {
		return transaction, fmt.Errorf("can't create topup transaction. Err: %w", err)
	}

	return transaction, nil
}

// ConfirmTopup settles a pending top-up. Only the caller winning the
// compare-and-set credits the balance; a duplicate confirm returns the
// already-successful transaction as a no-op. Confirming an expired (failed)
// transaction returns apperrors.ErrTransactionFinal.
func (s *Service) ConfirmTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	var transaction models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		transaction, err = store.Transaction().MarkSuccess(ctx, id)

		switch {
		case err == nil:
			_, err = store.Customer().AddBalance(ctx, transaction.CustomerID, transaction.Amount)
			return err
		case errors.Is(err, apperrors.ErrTransactionFinal) && transaction.Status == models.TransactionSuccess:
			// Duplicate confirmation, nothing to credit
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return transaction, err
	}

	return transaction, nil
}

// SweepExpired fails every pending transaction whose deadline passed. A
// confirmation racing the sweep is safe: whichever transition wins the CAS on
// status is final, the loser is a no-op.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	expired, err := s.storage.Transaction().SweepExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("can't sweep expired transactions. Err: %w", err)
	}

	for _, transaction := range expired {
		s.logger.Info("Transaction expired",
			"transaction_id", transaction.ID,
			"customer_id", transaction.CustomerID,
			"amount", transaction.Amount,
		)
	}

	return expired, nil
}
