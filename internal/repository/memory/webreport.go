package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type webreportRepo struct {
	s *Storage
}

func (r *webreportRepo) Create(ctx context.Context, arg repository.CreateWebreportParams) (models.Webreport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	report := models.Webreport{
		ID:             uuid.New(),
		CreatedAt:      now,
		ModifiedAt:     now,
		CustomerID:     arg.CustomerID,
		VirtualAccount: arg.VirtualAccount,
		Amount:         arg.Amount,
		TransferDate:   arg.TransferDate,
		BankSender:     arg.BankSender,
		Notes:          arg.Notes,
		Status:         models.WebreportPending,
	}
	r.s.webreports[report.ID] = &report
	r.s.webreportOrder = append(r.s.webreportOrder, report.ID)

	return cloneWebreport(&report), nil
}

func (r *webreportRepo) Get(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	report, ok := r.s.webreports[id]
	if !ok {
		return models.Webreport{}, apperrors.ErrWebreportNotFound
	}

	return cloneWebreport(report), nil
}

func (r *webreportRepo) List(ctx context.Context, opts repository.ListWebreportsOpts) ([]models.Webreport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reports := make([]models.Webreport, 0, len(r.s.webreportOrder))
	for _, id := range r.s.webreportOrder {
		report := r.s.webreports[id]
		if len(opts.Statuses) > 0 && !containsString(opts.Statuses, report.Status) {
			continue
		}
		if opts.CustomerID != nil && report.CustomerID != *opts.CustomerID {
			continue
		}
		reports = append(reports, cloneWebreport(report))
	}

	return reports, nil
}

func (r *webreportRepo) MarkMatched(ctx context.Context, id uuid.UUID, statementID uuid.UUID) (models.Webreport, error) {
	return r.transition(id, models.WebreportPending, models.WebreportMatched, func(w *models.Webreport) {
		sid := statementID
		w.MatchedStatementID = &sid
	})
}

func (r *webreportRepo) MarkVerified(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	return r.transition(id, models.WebreportMatched, models.WebreportVerified, nil)
}

func (r *webreportRepo) Release(ctx context.Context, id uuid.UUID) (models.Webreport, error) {
	return r.transition(id, models.WebreportMatched, models.WebreportPending, func(w *models.Webreport) {
		w.MatchedStatementID = nil
	})
}

func (r *webreportRepo) transition(id uuid.UUID, from string, to string, mutate func(*models.Webreport)) (models.Webreport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	report, ok := r.s.webreports[id]
	if !ok {
		return models.Webreport{}, apperrors.ErrWebreportNotFound
	}
	if report.Status != from {
		return models.Webreport{}, apperrors.ErrStatusConflict
	}

	report.Status = to
	report.ModifiedAt = time.Now()
	if mutate != nil {
		mutate(report)
	}

	return cloneWebreport(report), nil
}

func cloneWebreport(w *models.Webreport) models.Webreport {
	clone := *w
	if w.MatchedStatementID != nil {
		sid := *w.MatchedStatementID
		clone.MatchedStatementID = &sid
	}
	return clone
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
