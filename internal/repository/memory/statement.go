package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type statementRepo struct {
	s *Storage
}

func (r *statementRepo) Create(ctx context.Context, arg repository.CreateStatementParams) (models.BankStatement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.create(arg), nil
}

func (r *statementRepo) CreateBatch(ctx context.Context, args []repository.CreateStatementParams) ([]models.BankStatement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statements := make([]models.BankStatement, 0, len(args))
	for _, arg := range args {
		statements = append(statements, r.create(arg))
	}

	return statements, nil
}

// create must be called with the storage mutex held
func (r *statementRepo) create(arg repository.CreateStatementParams) models.BankStatement {
	now := time.Now()
	statement := models.BankStatement{
		ID:              uuid.New(),
		CreatedAt:       now,
		ModifiedAt:      now,
		Source:          arg.Source,
		BankCode:        arg.BankCode,
		AccountNumber:   arg.AccountNumber,
		VirtualAccount:  arg.VirtualAccount,
		Amount:          arg.Amount,
		TransactionDate: arg.TransactionDate,
		SenderName:      arg.SenderName,
		Reference:       arg.Reference,
		Status:          models.StatementPending,
	}
	r.s.statements[statement.ID] = &statement
	r.s.statementOrder = append(r.s.statementOrder, statement.ID)

	return cloneStatement(&statement)
}

func (r *statementRepo) Get(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statement, ok := r.s.statements[id]
	if !ok {
		return models.BankStatement{}, apperrors.ErrStatementNotFound
	}

	return cloneStatement(statement), nil
}

func (r *statementRepo) List(ctx context.Context, opts repository.ListStatementsOpts) ([]models.BankStatement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statements := make([]models.BankStatement, 0, len(r.s.statementOrder))
	for _, id := range r.s.statementOrder {
		statement := r.s.statements[id]
		if len(opts.Statuses) > 0 && !containsString(opts.Statuses, statement.Status) {
			continue
		}
		if opts.Source != "" && statement.Source != opts.Source {
			continue
		}
		if opts.BankCode != "" && statement.BankCode != opts.BankCode {
			continue
		}
		statements = append(statements, cloneStatement(statement))
	}

	return statements, nil
}

func (r *statementRepo) MarkMatched(ctx context.Context, id uuid.UUID, webreportID uuid.UUID) (models.BankStatement, error) {
	return r.transition(id, models.StatementPending, models.StatementMatched, func(s *models.BankStatement) {
		wid := webreportID
		s.MatchedWebreportID = &wid
	})
}

func (r *statementRepo) MarkProcessed(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	return r.transition(id, models.StatementMatched, models.StatementProcessed, nil)
}

func (r *statementRepo) Release(ctx context.Context, id uuid.UUID) (models.BankStatement, error) {
	return r.transition(id, models.StatementMatched, models.StatementPending, func(s *models.BankStatement) {
		s.MatchedWebreportID = nil
	})
}

func (r *statementRepo) transition(id uuid.UUID, from string, to string, mutate func(*models.BankStatement)) (models.BankStatement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statement, ok := r.s.statements[id]
	if !ok {
		return models.BankStatement{}, apperrors.ErrStatementNotFound
	}
	if statement.Status != from {
		return models.BankStatement{}, apperrors.ErrStatusConflict
	}

	statement.Status = to
	statement.ModifiedAt = time.Now()
	if mutate != nil {
		mutate(statement)
	}

	return cloneStatement(statement), nil
}

func cloneStatement(s *models.BankStatement) models.BankStatement {
	clone := *s
	if s.MatchedWebreportID != nil {
		wid := *s.MatchedWebreportID
		clone.MatchedWebreportID = &wid
	}
	return clone
}
