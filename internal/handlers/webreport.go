package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/handlers/render"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/service/report"
)

type webreportResponse struct {
	ID                     string     `json:"id"`
	CustomerID             string     `json:"customerId"`
	VirtualAccountNumber   string     `json:"virtualAccountNumber"`
	Amount                 float64    `json:"amount"`
	TransferDate           time.Time  `json:"transferDate"`
	BankSender             string     `json:"bankSender"`
	Notes                  string     `json:"notes,omitempty"`
	Status                 string     `json:"status"`
	MatchedBankStatementID *string    `json:"matchedBankStatementId,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
}

func toWebreportResponse(w models.Webreport) webreportResponse {
	amount, _ := w.Amount.Float64()

	return webreportResponse{
		ID:                     w.ID.String(),
		CustomerID:             w.CustomerID.String(),
		VirtualAccountNumber:   w.VirtualAccount,
		Amount:                 amount,
		TransferDate:           w.TransferDate,
		BankSender:             w.BankSender,
		Notes:                  w.Notes,
		Status:                 w.Status,
		MatchedBankStatementID: uuidPtrString(w.MatchedStatementID),
		CreatedAt:              w.CreatedAt,
	}
}

func handleCreateWebreport(reportService reportService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := render.Bind[report.WebreportPayload](w, r)
		if err != nil {
			return
		}

		webreport, fields, err := reportService.SubmitWebreport(r.Context(), payload)

		switch {
		case len(fields) > 0:
			render.ValidationFields(w, fieldMap(fields))
		case err == nil:
			render.JSONWithStatus(w, toWebreportResponse(webreport), http.StatusCreated)
		case errors.Is(err, apperrors.ErrCustomerNotFound):
			render.ServiceError(w, "Customer not found", http.StatusNotFound)
		default:
			l.Error("Failed to create webreport", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListWebreports(storage repository.Storage, l logger.Logger) http.Handler {
	type response struct {
		Data  []webreportResponse `json:"data"`
		Total int                 `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := repository.ListWebreportsOpts{
			Statuses: statusFilter(r),
		}

		if customerID := r.URL.Query().Get("customerId"); customerID != "" {
			id, err := uuid.Parse(customerID)
			if err != nil {
				render.ServiceError(w, "Invalid customer id", http.StatusBadRequest)
				return
			}
			opts.CustomerID = &id
		}

		webreports, err := storage.Webreport().List(r.Context(), opts)
		if err != nil {
			l.Error("Failed to list webreports", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]webreportResponse, 0, len(webreports))
		for _, webreport := range webreports {
			data = append(data, toWebreportResponse(webreport))
		}

		render.JSON(w, response{Data: data, Total: len(data)})
	})
}
