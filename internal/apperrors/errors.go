package apperrors

import (
	"errors"
)

var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerAlreadyExists = errors.New("customer with virtual account already exists")

	ErrWebreportNotFound = errors.New("webreport not found")
	ErrStatementNotFound = errors.New("bank statement not found")

	ErrMatchNotFound        = errors.New("matching result not found")
	ErrMatchAlreadyResolved = errors.New("matching result already verified or rejected")
	ErrMatchAlreadySettled  = errors.New("matching result already settled")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionFinal    = errors.New("transaction already in terminal state")

	// Returned when a compare-and-set status transition loses to a concurrent writer
	ErrStatusConflict = errors.New("status changed concurrently")
)
