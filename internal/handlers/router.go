package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/handlers/middleware"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/service/matching"
	"github.com/andriarta/payrecon/internal/service/report"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	storage repository.Storage,
	reportService reportService,
	matchingService matchingService,
	verificationService verificationService,
	topupService topupService,
	logger logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /webreport", handleCreateWebreport(reportService, logger))
	api.Handle("GET /webreport", handleListWebreports(storage, logger))

	api.Handle("POST /bank-statement", handleCreateStatement(reportService, logger))
	api.Handle("GET /bank-statement", handleListStatements(storage, logger))

	api.Handle("POST /matching/run", handleRunMatching(matchingService, logger))
	api.Handle("GET /matching", handleListMatches(storage, logger))
	api.Handle("PATCH /matching/verify", handleVerifyMatch(verificationService, logger))

	api.Handle("POST /topup", handleCreateTopup(topupService, logger))
	api.Handle("POST /topup/confirm", handleConfirmTopup(topupService, logger))

	api.Handle("POST /customer", handleCreateCustomer(storage, logger))
	api.Handle("GET /customer/{id}", handleGetCustomer(storage, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type reportService interface {
	// Store one transfer claim. Validation problems come back as field
	// errors, not as an error value.
	SubmitWebreport(ctx context.Context, p report.WebreportPayload) (models.Webreport, []report.FieldError, error)

	// Store one bank statement pushed over the API
	SubmitStatement(ctx context.Context, p report.StatementPayload) (models.BankStatement, []report.FieldError, error)

	// Store a batch of statements, skipping invalid rows with warnings
	ImportStatements(ctx context.Context, p report.ImportPayload) (report.ImportResult, []report.FieldError, error)
}

type matchingService interface {
	// Pair pending webreports with pending statements and persist the results
	RunMatching(ctx context.Context) (matching.RunReport, error)
}

type verificationService interface {
	// Approve or reject a matching result.
	// Has to return apperrors.ErrMatchAlreadyResolved if it is terminal already.
	Verify(ctx context.Context, id uuid.UUID, action string, actor string, notes string) (models.MatchingResult, error)
}

type topupService interface {
	// Open a pending top-up with a payment deadline.
	// Has to return apperrors.ErrCustomerNotFound for an unknown customer.
	CreateTopup(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, bankCode string) (models.Transaction, error)

	// Settle a pending top-up. Duplicate confirms are no-ops; confirming an
	// expired transaction returns apperrors.ErrTransactionFinal.
	ConfirmTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error)
}
