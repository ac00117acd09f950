package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type CustomerRepo struct {
	DB DBTX
}

const createCustomer = `-- name: CreateCustomer
INSERT INTO customers (id, name, virtual_account, balance)
VALUES ($1, $2, $3, 0)
RETURNING id, created_at, name, virtual_account, balance
`

func (r *CustomerRepo) Create(ctx context.Context, arg repository.CreateCustomerParams) (models.Customer, error) {
	rows, _ := r.DB.Query(ctx, createCustomer, uuid.New(), arg.Name, arg.VirtualAccount)
	customer, err := pgx.CollectOneRow(rows, rowToCustomer)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return customer, apperrors.ErrCustomerAlreadyExists
		}

		return customer, fmt.Errorf("db error: %w", err)
	}

	return customer, nil
}

const getCustomer = `-- name: GetCustomer
SELECT id, created_at, name, virtual_account, balance FROM customers
WHERE id = $1
`

func (r *CustomerRepo) Get(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	rows, _ := r.DB.Query(ctx, getCustomer, id)
	customer, err := pgx.CollectOneRow(rows, rowToCustomer)

	switch {
	case err == nil:
		return customer, nil
	case errors.Is(err, pgx.ErrNoRows):
		return customer, apperrors.ErrCustomerNotFound
	default:
		return customer, fmt.Errorf("db error: %w", err)
	}
}

// Credit balance. The row lock taken by UPDATE serializes concurrent credits
// for the same customer.
const addBalance = `-- name: AddBalance
UPDATE customers
SET balance = balance + $2
WHERE id = $1
RETURNING id, created_at, name, virtual_account, balance
`

func (r *CustomerRepo) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (models.Customer, error) {
	rows, _ := r.DB.Query(ctx, addBalance, id, amount)
	customer, err := pgx.CollectOneRow(rows, rowToCustomer)

	switch {
	case err == nil:
		return customer, nil
	case errors.Is(err, pgx.ErrNoRows):
		return customer, apperrors.ErrCustomerNotFound
	default:
		return customer, fmt.Errorf("db error: %w", err)
	}
}

func rowToCustomer(row pgx.CollectableRow) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Name, &c.VirtualAccount, &c.Balance)
	return c, err
}
