package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseView is the read-optimised projection of a purchase.
// AccountID is populated for ownership scoping but never serialised to the API response.
type PurchaseView struct {
	ID           string    `json:"id"`
	AccountID    int64     `json:"-"`
	ProductName  string    `json:"productName"`
	Quantity     Decimal   `json:"quantity"`
	UnitMeasure  string    `json:"unitMeasure"`
	UnitPrice    Decimal   `json:"unitPrice"`
	TotalPrice   Decimal   `json:"totalPrice"`
	PurchaseDate Date      `json:"purchaseDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewPurchaseView(p Purchase) PurchaseView {
	return PurchaseView{
		ID:           p.ID,
		AccountID:    p.AccountID,
		ProductName:  p.ProductName,
		Quantity:     Decimal{p.Quantity},
		UnitMeasure:  p.UnitMeasure,
		UnitPrice:    Decimal{p.UnitPrice},
		TotalPrice:   Decimal{p.TotalPrice},
		PurchaseDate: Date{p.PurchaseDate},
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (v PurchaseView) PurchasedOn() time.Time { return v.PurchaseDate.Time }

func (v PurchaseView) Total() decimal.Decimal { return v.TotalPrice.Decimal }

// PurchaseList is the list response. TotalSpent covers the current month only.
type PurchaseList struct {
	List       []PurchaseView `json:"list"`
	TotalSpent Decimal        `json:"totalSpent"`
}

// Created is the body returned after a purchase is recorded.
type Created struct {
	ID string `json:"id"`
}

// Ack is the body returned by update and delete.
type Ack struct {
	Success bool `json:"success"`
}
