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
)

type customerResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	VirtualAccountNumber string    `json:"virtualAccountNumber"`
	Balance              float64   `json:"balance"`
	CreatedAt            time.Time `json:"createdAt"`
}

func toCustomerResponse(c models.Customer) customerResponse {
	balance, _ := c.Balance.Float64()

	return customerResponse{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		VirtualAccountNumber: c.VirtualAccount,
		Balance:              balance,
		CreatedAt:            c.CreatedAt,
	}
}

func handleCreateCustomer(storage repository.Storage, l logger.Logger) http.Handler {
	type request struct {
		Name                 string `json:"name" validate:"required"`
		VirtualAccountNumber string `json:"virtualAccountNumber" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		customer, err := storage.Customer().Create(r.Context(), repository.CreateCustomerParams{
			Name:           req.Name,
			VirtualAccount: req.VirtualAccountNumber,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, toCustomerResponse(customer), http.StatusCreated)
		case errors.Is(err, apperrors.ErrCustomerAlreadyExists):
			render.ServiceError(w, "Virtual account already registered", http.StatusConflict)
		default:
			l.Error("Failed to create customer", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetCustomer(storage repository.Storage, l logger.Logger) http.Handler {
	type response struct {
		customerResponse
		Transactions []transactionResponse `json:"transactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid customer id", http.StatusBadRequest)
			return
		}

		customer, err := storage.Customer().Get(r.Context(), id)

		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrCustomerNotFound):
			render.ServiceError(w, "Customer not found", http.StatusNotFound)
			return
		default:
			l.Error("Failed to get customer", "customer_id", id, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transactions, err := storage.Transaction().List(r.Context(), repository.ListTransactionsOpts{
			CustomerID: &id,
		})
		if err != nil {
			l.Error("Failed to list customer transactions", "customer_id", id, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := response{
			customerResponse: toCustomerResponse(customer),
			Transactions:     make([]transactionResponse, 0, len(transactions)),
		}
		for _, transaction := range transactions {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(transaction))
		}

		render.JSON(w, resp)
	})
}
