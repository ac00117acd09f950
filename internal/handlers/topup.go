package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/handlers/render"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
)

type transactionResponse struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customerId"`
	Amount           float64    `json:"amount"`
	Status           string     `json:"status"`
	BankCode         string     `json:"bankCode,omitempty"`
	MatchingResultID *string    `json:"matchingResultId,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	amount, _ := t.Amount.Float64()

	return transactionResponse{
		ID:               t.ID.String(),
		CustomerID:       t.CustomerID.String(),
		Amount:           amount,
		Status:           t.Status,
		BankCode:         t.BankCode,
		MatchingResultID: uuidPtrString(t.MatchingResultID),
		ExpiresAt:        t.ExpiresAt,
		CreatedAt:        t.CreatedAt,
	}
}

func handleCreateTopup(topupService topupService, l logger.Logger) http.Handler {
	type request struct {
		CustomerID string          `json:"customerId" validate:"required"`
		Amount     decimal.Decimal `json:"amount" validate:"required,gt=0"`
		BankCode   string          `json:"bankCode" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Same minor-units rule ingestion applies to webreports and statements
		if !req.Amount.IsInteger() {
			render.ValidationFields(w, map[string]string{"amount": "Must be an integer amount in minor currency units"})
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			render.ValidationFields(w, map[string]string{"customerId": "must be a valid uuid"})
			return
		}

		topup, err := topupService.CreateTopup(r.Context(), customerID, req.Amount, req.BankCode)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toTransactionResponse(topup), http.StatusCreated)
		case errors.Is(err, apperrors.ErrCustomerNotFound):
			render.ServiceError(w, "Customer not found", http.StatusNotFound)
		default:
			l.Error("Failed to create topup", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleConfirmTopup(topupService topupService, l logger.Logger) http.Handler {
	type request struct {
		TransactionID string `json:"transactionId" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		id, err := uuid.Parse(req.TransactionID)
		if err != nil {
			render.ValidationFields(w, map[string]string{"transactionId": "must be a valid uuid"})
			return
		}

		topup, err := topupService.ConfirmTopup(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, toTransactionResponse(topup))
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrTransactionFinal):
			render.ServiceError(w, "Transaction already settled or expired", http.StatusConflict)
		default:
			l.Error("Failed to confirm topup", "transaction_id", id, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
