package handlers

import (
	"net/http"
	"time"

	"github.com/andriarta/payrecon/internal/handlers/render"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
	"github.com/andriarta/payrecon/internal/service/report"
)

type statementResponse struct {
	ID                   string    `json:"id"`
	Source               string    `json:"source"`
	BankCode             string    `json:"bankCode"`
	AccountNumber        string    `json:"accountNumber,omitempty"`
	VirtualAccountNumber string    `json:"virtualAccountNumber"`
	Amount               float64   `json:"amount"`
	TransactionDate      time.Time `json:"transactionDate"`
	SenderName           string    `json:"senderName,omitempty"`
	Reference            string    `json:"reference,omitempty"`
	Status               string    `json:"status"`
	MatchedWebreportID   *string   `json:"matchedWebreportId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

func toStatementResponse(s models.BankStatement) statementResponse {
	amount, _ := s.Amount.Float64()

	return statementResponse{
		ID:                   s.ID.String(),
		Source:               s.Source,
		BankCode:             s.BankCode,
		AccountNumber:        s.AccountNumber,
		VirtualAccountNumber: s.VirtualAccount,
		Amount:               amount,
		TransactionDate:      s.TransactionDate,
		SenderName:           s.SenderName,
		Reference:            s.Reference,
		Status:               s.Status,
		MatchedWebreportID:   uuidPtrString(s.MatchedWebreportID),
		CreatedAt:            s.CreatedAt,
	}
}

// handleCreateStatement ingests statements in two modes selected by the
// "mode" query parameter: "api" (default) takes one statement, "file_import"
// takes a batch envelope and reports skipped rows instead of failing.
func handleCreateStatement(reportService reportService, l logger.Logger) http.Handler {
	type importResponse struct {
		Accepted []statementResponse `json:"accepted"`
		Warnings []report.RowWarning `json:"warnings"`
	}

	handleImport := func(w http.ResponseWriter, r *http.Request) {
		payload, err := render.Bind[report.ImportPayload](w, r)
		if err != nil {
			return
		}

		result, fields, err := reportService.ImportStatements(r.Context(), payload)

		switch {
		case len(fields) > 0:
			render.ValidationFields(w, fieldMap(fields))
		case err == nil:
			accepted := make([]statementResponse, 0, len(result.Accepted))
			for _, statement := range result.Accepted {
				accepted = append(accepted, toStatementResponse(statement))
			}
			warnings := result.Warnings
			if warnings == nil {
				warnings = []report.RowWarning{}
			}
			render.JSONWithStatus(w, importResponse{Accepted: accepted, Warnings: warnings}, http.StatusCreated)
		default:
			l.Error("Failed to import bank statements", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")

		switch mode {
		case "", models.StatementSourceAPI:
		case models.StatementSourceFileImport:
			handleImport(w, r)
			return
		default:
			render.ServiceError(w, "Unknown ingestion mode", http.StatusBadRequest)
			return
		}

		payload, err := render.Bind[report.StatementPayload](w, r)
		if err != nil {
			return
		}

		statement, fields, err := reportService.SubmitStatement(r.Context(), payload)

		switch {
		case len(fields) > 0:
			render.ValidationFields(w, fieldMap(fields))
		case err == nil:
			render.JSONWithStatus(w, toStatementResponse(statement), http.StatusCreated)
		default:
			l.Error("Failed to create bank statement", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListStatements(storage repository.Storage, l logger.Logger) http.Handler {
	type response struct {
		Data  []statementResponse `json:"data"`
		Total int                 `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := repository.ListStatementsOpts{
			Statuses: statusFilter(r),
			Source:   r.URL.Query().Get("source"),
			BankCode: r.URL.Query().Get("bankCode"),
		}

		statements, err := storage.Statement().List(r.Context(), opts)
		if err != nil {
			l.Error("Failed to list bank statements", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]statementResponse, 0, len(statements))
		for _, statement := range statements {
			data = append(data, toStatementResponse(statement))
		}

		render.JSON(w, response{Data: data, Total: len(data)})
	})
}
