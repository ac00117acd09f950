package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer balance is a single-sided credit counter in minor currency units.
// It is mutated only by the settlement service, once per successful Transaction.
type Customer struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Name           string
	VirtualAccount string
	Balance        decimal.Decimal
}
