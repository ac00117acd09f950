package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type customerRepo struct {
	s *Storage
}

func (r *customerRepo) Create(ctx context.Context, arg repository.CreateCustomerParams) (models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.customers {
		if c.VirtualAccount == arg.VirtualAccount {
			return models.Customer{}, apperrors.ErrCustomerAlreadyExists
		}
	}

	customer := models.Customer{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Name:           arg.Name,
		VirtualAccount: arg.VirtualAccount,
		Balance:        decimal.Zero,
	}
	r.s.customers[customer.ID] = &customer

	return customer, nil
}

func (r *customerRepo) Get(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	customer, ok := r.s.customers[id]
	if !ok {
		return models.Customer{}, apperrors.ErrCustomerNotFound
	}

	return *customer, nil
}

// Credits are serialized by the storage mutex
func (r *customerRepo) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	customer, ok := r.s.customers[id]
	if !ok {
		return models.Customer{}, apperrors.ErrCustomerNotFound
	}

	customer.Balance = customer.Balance.Add(amount)

	return *customer, nil
}
