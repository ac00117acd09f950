// Package memory implements repository.Storage over in-process maps.
//
// It keeps the same compare-and-set transition semantics as the postgres
// implementation, so services behave identically on either store. It backs
// tests and database-less demo runs; durability is the postgres
// implementation's job.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type Storage struct {
	mu sync.Mutex

	customers    map[uuid.UUID]*models.Customer
	webreports   map[uuid.UUID]*models.Webreport
	statements   map[uuid.UUID]*models.BankStatement
	matches      map[uuid.UUID]*models.MatchingResult
	transactions map[uuid.UUID]*models.Transaction

	// Insertion order per entity; listings must be deterministic
	webreportOrder   []uuid.UUID
	statementOrder   []uuid.UUID
	matchOrder       []uuid.UUID
	transactionOrder []uuid.UUID
}

func NewStorage() *Storage {
	return &Storage{
		customers:    make(map[uuid.UUID]*models.Customer),
		webreports:   make(map[uuid.UUID]*models.Webreport),
		statements:   make(map[uuid.UUID]*models.BankStatement),
		matches:      make(map[uuid.UUID]*models.MatchingResult),
		transactions: make(map[uuid.UUID]*models.Transaction),
	}
}

func (s *Storage) Customer() repository.CustomerRepo {
	return &customerRepo{s: s}
}

func (s *Storage) Webreport() repository.WebreportRepo {
	return &webreportRepo{s: s}
}

func (s *Storage) Statement() repository.StatementRepo {
	return &statementRepo{s: s}
}

func (s *Storage) Match() repository.MatchRepo {
	return &matchRepo{s: s}
}

func (s *Storage) Transaction() repository.TransactionRepo {
	return &transactionRepo{s: s}
}

// InTx runs fn against the same storage. There is no rollback here; atomicity
// across several operations is provided by the postgres implementation, while
// the per-operation CAS guards hold on both.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}
