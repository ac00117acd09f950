// Package report ingests the two inbound record streams: customer-submitted
// webreports and bank statements from the webhook or the batch importer.
//
// Single records are all-or-nothing: one payload is one real event and is
// either accepted whole or refused with the full list of field errors. Batch
// import is best-effort: a bank-exported file is expected to contain the odd
// malformed row, so bad rows are skipped and reported as warnings while the
// rest of the batch goes through.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Service{
		storage: storage,
		logger:  l,
	}
}

type WebreportPayload struct {
	CustomerID     string          `json:"customerId" validate:"required"`
	VirtualAccount string          `json:"virtualAccountNumber" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required,gt=0"`
	TransferDate   string          `json:"transferDate" validate:"required"`
	BankSender     string          `json:"bankSender" validate:"required"`
	Notes          string          `json:"notes"`
}

// SubmitWebreport validates and stores one transfer claim. Field errors come
// back as data with a zero Webreport; the error return is for storage
// failures and unknown customers only.
func (s *Service) SubmitWebreport(ctx context.Context, p WebreportPayload) (models.Webreport, []FieldError, error) {
	fields := structFieldErrors(p)
	fields = checkAmount(p.Amount, fields)

	var customerID uuid.UUID
	if p.CustomerID != "" {
		var err error
		customerID, err = uuid.Parse(p.CustomerID)
		if err != nil {
			fields = append(fields, FieldError{Field: "customerId", Message: "Must be a valid customer id"})
		}
	}

	var transferDate time.Time
	if p.TransferDate != "" {
		var ok bool
		transferDate, ok = parseDate(p.TransferDate)
		if !ok {
			fields = append(fields, FieldError{Field: "transferDate", Message: "Must be a parseable date"})
		}
	}

	if len(fields) > 0 {
		return models.Webreport{}, fields, nil
	}

	if _, err := s.storage.Customer().Get(ctx, customerID); err != nil {
		return models.Webreport{}, nil, err
	}

	webreport, err := s.storage.Webreport().Create(ctx, repository.CreateWebreportParams{
		CustomerID:     customerID,
		VirtualAccount: p.VirtualAccount,
		Amount:         p.Amount,
		TransferDate:   transferDate,
		BankSender:     p.BankSender,
		Notes:          p.Notes,
	})
	if err != nil {
		return webreport, nil, fmt.Errorf("can't create webreport. Err: %w", err)
	}

	s.logger.Info("Webreport submitted", "webreport_id", webreport.ID, "customer_id", customerID)

	return webreport, nil, nil
}

type StatementPayload struct {
	BankCode        string          `json:"bankCode" validate:"required"`
	AccountNumber   string          `json:"accountNumber"`
	VirtualAccount  string          `json:"virtualAccountNumber" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required,gt=0"`
	TransactionDate string          `json:"transactionDate" validate:"required"`
	SenderName      string          `json:"senderName"`
	Reference       string          `json:"reference"`
}

// SubmitStatement ingests a single bank statement pushed over the API,
// all-or-nothing like SubmitWebreport.
func (s *Service) SubmitStatement(ctx context.Context, p StatementPayload) (models.BankStatement, []FieldError, error) {
	params, fields := statementParams(p, models.StatementSourceAPI)
	if len(fields) > 0 {
		return models.BankStatement{}, fields, nil
	}

	statement, err := s.storage.Statement().Create(ctx, params)
	if err != nil {
		return statement, nil, fmt.Errorf("can't create bank statement. Err: %w", err)
	}

	s.logger.Info("Bank statement received", "bank_statement_id", statement.ID, "source", statement.Source)

	return statement, nil, nil
}

type StatementRow struct {
	VirtualAccount  string          `json:"virtualAccountNumber" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required,gt=0"`
	TransactionDate string          `json:"transactionDate" validate:"required"`
	SenderName      string          `json:"senderName"`
	Reference       string          `json:"reference"`
}

type ImportPayload struct {
	BankCode      string         `json:"bankCode" validate:"required"`
	AccountNumber string         `json:"accountNumber"`
	Statements    []StatementRow `json:"statements" validate:"required"`
}

type ImportResult struct {
	Accepted []models.BankStatement
	Warnings []RowWarning
}

// ImportStatements ingests a parsed batch file. Envelope problems (missing
// bank code, missing statements array) fail the whole import; row problems
// only skip the row.
func (s *Service) ImportStatements(ctx context.Context, p ImportPayload) (ImportResult, []FieldError, error) {
	if fields := structFieldErrors(p); len(fields) > 0 {
		return ImportResult{}, fields, nil
	}

	var result ImportResult
	params := make([]repository.CreateStatementParams, 0, len(p.Statements))

	for i, row := range p.Statements {
		rowParams, fields := statementParams(StatementPayload{
			BankCode:        p.BankCode,
			AccountNumber:   p.AccountNumber,
			VirtualAccount:  row.VirtualAccount,
			Amount:          row.Amount,
			TransactionDate: row.TransactionDate,
			SenderName:      row.SenderName,
			Reference:       row.Reference,
		}, models.StatementSourceFileImport)

		if len(fields) > 0 {
			result.Warnings = append(result.Warnings, RowWarning{Row: i + 1, Errors: fields})
			continue
		}

		params = append(params, rowParams)
	}

	accepted, err := s.storage.Statement().CreateBatch(ctx, params)
	if err != nil {
		return result, nil, fmt.Errorf("can't import bank statements. Err: %w", err)
	}
	result.Accepted = accepted

	s.logger.Info("Bank statement file imported",
		"accepted", len(result.Accepted),
		"skipped", len(result.Warnings),
		"bank_code", p.BankCode,
	)

	return result, nil, nil
}

func statementParams(p StatementPayload, source string) (repository.CreateStatementParams, []FieldError) {
	fields := structFieldErrors(p)
	fields = checkAmount(p.Amount, fields)

	var transactionDate time.Time
	if p.TransactionDate != "" {
		var ok bool
		transactionDate, ok = parseDate(p.TransactionDate)
		if !ok {
			fields = append(fields, FieldError{Field: "transactionDate", Message: "Must be a parseable date"})
		}
	}

	if len(fields) > 0 {
		return repository.CreateStatementParams{}, fields
	}

	return repository.CreateStatementParams{
		Source:          source,
		BankCode:        p.BankCode,
		AccountNumber:   p.AccountNumber,
		VirtualAccount:  p.VirtualAccount,
		Amount:          p.Amount,
		TransactionDate: transactionDate,
		SenderName:      p.SenderName,
		Reference:       p.Reference,
	}, nil
}
