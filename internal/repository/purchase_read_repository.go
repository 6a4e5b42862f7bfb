package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eaglebank/purchase-service/internal/models"
	sharedredis "github.com/eaglebank/purchase-service/internal/redis"
)

const (
	purchaseViewKeyPrefix = "purchase:view:"
	dateLayout            = "2006-01-02"
)

const purchaseColumns = `id, account_id, product_name, quantity, unit_measure, unit_price, total_price, purchase_date, created_at, updated_at`

// PurchaseReadRepository serves purchase views. Single purchases are read
// through the Redis view cache; lists always come from PostgreSQL.
type PurchaseReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.PurchaseView]
}

func NewPurchaseReadRepository(db *sql.DB, cache *sharedredis.ViewCache[models.PurchaseView]) *PurchaseReadRepository {
	return &PurchaseReadRepository{db: db, cache: cache}
}

func purchaseViewKey(accountID int64, id string) string {
	return purchaseViewKeyPrefix + strconv.FormatInt(accountID, 10) + ":" + id
}

// GetByID returns (nil, nil) when the account has no live purchase with id.
func (r *PurchaseReadRepository) GetByID(ctx context.Context, accountID int64, id string) (*models.PurchaseView, error) {
	key := purchaseViewKey(accountID, id)
	if view, ok := r.cache.Get(ctx, key); ok {
		view.AccountID = accountID
		return view, nil
	}

	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`
	view, err := scanPurchaseView(r.db.QueryRowContext(ctx, query, id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	r.cache.Set(ctx, key, view)
	return view, nil
}

// ListByAccount returns the account's live purchases, newest purchase date first.
func (r *PurchaseReadRepository) ListByAccount(ctx context.Context, accountID int64) ([]models.PurchaseView, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE account_id = $1 AND deleted_at IS NULL
		ORDER BY purchase_date DESC, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	views := []models.PurchaseView{}
	for rows.Next() {
		view, err := scanPurchaseView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return views, nil
}

// CachePurchaseView stores or refreshes the Redis view of a purchase.
func (r *PurchaseReadRepository) CachePurchaseView(ctx context.Context, view *models.PurchaseView) {
	r.cache.Set(ctx, purchaseViewKey(view.AccountID, view.ID), view)
}

// InvalidatePurchaseView drops the Redis view after an update or delete.
func (r *PurchaseReadRepository) InvalidatePurchaseView(ctx context.Context, accountID int64, id string) {
	r.cache.Delete(ctx, purchaseViewKey(accountID, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchaseView(row rowScanner) (*models.PurchaseView, error) {
	var (
		view         models.PurchaseView
		purchaseDate time.Time
	)
	if err := row.Scan(
		&view.ID, &view.AccountID, &view.ProductName,
		&view.Quantity.Decimal, &view.UnitMeasure, &view.UnitPrice.Decimal,
		&view.TotalPrice.Decimal, &purchaseDate, &view.CreatedAt, &view.UpdatedAt,
	); err != nil {
		return nil, err
	}
	view.PurchaseDate = models.Date{Time: time.Date(purchaseDate.Year(), purchaseDate.Month(), purchaseDate.Day(), 0, 0, 0, 0, time.UTC)}
	return &view, nil
}
