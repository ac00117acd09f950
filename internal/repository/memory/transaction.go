package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type transactionRepo struct {
	s *Storage
}

func (r *transactionRepo) Create(ctx context.Context, arg repository.CreateTransactionParams) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if arg.MatchingResultID != nil {
		for _, t := range r.s.transactions {
			if t.MatchingResultID != nil && *t.MatchingResultID == *arg.MatchingResultID {
				return models.Transaction{}, apperrors.ErrMatchAlreadySettled
			}
		}
	}

	now := time.Now()
	transaction := models.Transaction{
		ID:         uuid.New(),
		CreatedAt:  now,
		ModifiedAt: now,
		CustomerID: arg.CustomerID,
		Amount:     arg.Amount,
		Status:     arg.Status,
		BankCode:   arg.BankCode,
	}
	if arg.MatchingResultID != nil {
		mid := *arg.MatchingResultID
		transaction.MatchingResultID = &mid
	}
	if arg.ExpiresAt != nil {
		at := *arg.ExpiresAt
		transaction.ExpiresAt = &at
	}

	r.s.transactions[transaction.ID] = &transaction
	r.s.transactionOrder = append(r.s.transactionOrder, transaction.ID)

	return cloneTransaction(&transaction), nil
}

func (r *transactionRepo) Get(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	transaction, ok := r.s.transactions[id]
	if !ok {
		return models.Transaction{}, apperrors.ErrTransactionNotFound
	}

	return cloneTransaction(transaction), nil
}

func (r *transactionRepo) List(ctx context.Context, opts repository.ListTransactionsOpts) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Newest first
	transactions := make([]models.Transaction, 0, len(r.s.transactionOrder))
	for i := len(r.s.transactionOrder) - 1; i >= 0; i-- {
		transaction := r.s.transactions[r.s.transactionOrder[i]]
		if len(opts.Statuses) > 0 && !containsString(opts.Statuses, transaction.Status) {
			continue
		}
		if opts.CustomerID != nil && transaction.CustomerID != *opts.CustomerID {
			continue
		}
		transactions = append(transactions, cloneTransaction(transaction))
	}

	return transactions, nil
}

func (r *transactionRepo) MarkSuccess(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	transaction, ok := r.s.transactions[id]
	if !ok {
		return models.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if transaction.Status != models.TransactionPending {
		return cloneTransaction(transaction), apperrors.ErrTransactionFinal
	}

	transaction.Status = models.TransactionSuccess
	transaction.ModifiedAt = time.Now()

	return cloneTransaction(transaction), nil
}

func (r *transactionRepo) SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired []models.Transaction
	for _, id := range r.s.transactionOrder {
		transaction := r.s.transactions[id]
		if transaction.Status != models.TransactionPending {
			continue
		}
		if transaction.ExpiresAt == nil || !transaction.ExpiresAt.Before(now) {
			continue
		}

		transaction.Status = models.TransactionFailed
		transaction.ModifiedAt = time.Now()
		expired = append(expired, cloneTransaction(transaction))
	}

	return expired, nil
}

func cloneTransaction(t *models.Transaction) models.Transaction {
	clone := *t
	if t.MatchingResultID != nil {
		mid := *t.MatchingResultID
		clone.MatchingResultID = &mid
	}
	if t.ExpiresAt != nil {
		at := *t.ExpiresAt
		clone.ExpiresAt = &at
	}
	return clone
}
