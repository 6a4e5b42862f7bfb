package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the write model persisted by the command side.
type Purchase struct {
	ID           string
	AccountID    int64
	ProductName  string
	Quantity     decimal.Decimal
	UnitMeasure  string
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	PurchaseDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
