package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/purchase-service/internal/models"
)

// ErrPurchaseNotFound reports that no live purchase matched (account, id).
var ErrPurchaseNotFound = errors.New("purchaseNotFound")

// PurchaseWriteRepository handles all state-mutating operations for purchases.
// Every statement is scoped by account_id.
type PurchaseWriteRepository struct {
	db *sql.DB
}

func NewPurchaseWriteRepository(db *sql.DB) *PurchaseWriteRepository {
	return &PurchaseWriteRepository{db: db}
}

func (r *PurchaseWriteRepository) Create(ctx context.Context, p *models.Purchase) error {
	query := `
		INSERT INTO purchases (id, account_id, product_name, quantity, unit_measure, unit_price, total_price, purchase_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.AccountID, p.ProductName, p.Quantity, p.UnitMeasure,
		p.UnitPrice, p.TotalPrice, p.PurchaseDate.Format(dateLayout),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

func (r *PurchaseWriteRepository) Update(ctx context.Context, p *models.Purchase) error {
	query := `
		UPDATE purchases
		SET product_name = $3, quantity = $4, unit_measure = $5, unit_price = $6,
		    total_price = $7, purchase_date = $8, updated_at = $9
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.AccountID, p.ProductName, p.Quantity, p.UnitMeasure,
		p.UnitPrice, p.TotalPrice, p.PurchaseDate.Format(dateLayout), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	return expectOneRow(result)
}

// Delete soft-deletes the purchase. Deleting an already deleted purchase
// reports ErrPurchaseNotFound.
func (r *PurchaseWriteRepository) Delete(ctx context.Context, accountID int64, id string) error {
	query := `
		UPDATE purchases
		SET deleted_at = NOW()
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}
