package cqrs

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePurchaseCommand struct {
	AccountID    int64
	ProductName  string
	Quantity     decimal.Decimal
	UnitMeasure  string
	UnitPrice    decimal.Decimal
	PurchaseDate time.Time
}

// UpdatePurchaseCommand replaces every mutable field of a purchase owned by AccountID.
type UpdatePurchaseCommand struct {
	PurchaseID   string
	AccountID    int64
	ProductName  string
	Quantity     decimal.Decimal
	UnitMeasure  string
	UnitPrice    decimal.Decimal
	PurchaseDate time.Time
}

type DeletePurchaseCommand struct {
	PurchaseID string
	AccountID  int64
}
