package events

import (
	"time"

	"github.com/eaglebank/purchase-service/internal/models"
)

// Event types
const (
	PurchaseCreated = "purchase.created"
	PurchaseUpdated = "purchase.updated"
	PurchaseDeleted = "purchase.deleted"
)

// Stream names
const (
	PurchaseEventsStream = "purchase.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Purchase events
type PurchaseCreatedEvent struct {
	PurchaseID   string         `json:"purchaseId"`
	AccountID    int64          `json:"accountId"`
	ProductName  string         `json:"productName"`
	TotalPrice   models.Decimal `json:"totalPrice"`
	PurchaseDate models.Date    `json:"purchaseDate"`
}

type PurchaseUpdatedEvent struct {
	PurchaseID   string         `json:"purchaseId"`
	AccountID    int64          `json:"accountId"`
	ProductName  string         `json:"productName"`
	TotalPrice   models.Decimal `json:"totalPrice"`
	PurchaseDate models.Date    `json:"purchaseDate"`
}

type PurchaseDeletedEvent struct {
	PurchaseID string `json:"purchaseId"`
	AccountID  int64  `json:"accountId"`
}
