package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

// Fixture builders over any Storage implementation. Amounts are decimal
// strings so tests read the same as the payloads they exercise.

func CreateCustomer(t *testing.T, s repository.Storage, name string, va string) models.Customer {
	t.Helper()

	customer, err := s.Customer().Create(t.Context(), repository.CreateCustomerParams{
		Name:           name,
		VirtualAccount: va,
	})
	require.NoError(t, err, "customer fixture has to be created ok")

	return customer
}

func CreateWebreport(t *testing.T, s repository.Storage, customer models.Customer, amount string, transferDate time.Time) models.Webreport {
	t.Helper()

	webreport, err := s.Webreport().Create(t.Context(), repository.CreateWebreportParams{
		CustomerID:     customer.ID,
		VirtualAccount: customer.VirtualAccount,
		Amount:         decimal.RequireFromString(amount),
		TransferDate:   transferDate,
		BankSender:     "BCA",
	})
	require.NoError(t, err, "webreport fixture has to be created ok")

	return webreport
}

func CreateStatement(t *testing.T, s repository.Storage, va string, amount string, transactionDate time.Time) models.BankStatement {
	t.Helper()

	statement, err := s.Statement().Create(t.Context(), repository.CreateStatementParams{
		Source:          models.StatementSourceAPI,
		BankCode:        "BCA",
		VirtualAccount:  va,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: transactionDate,
	})
	require.NoError(t, err, "bank statement fixture has to be created ok")

	return statement
}
