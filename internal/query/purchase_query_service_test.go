package query

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/clock"
	"github.com/eaglebank/purchase-service/internal/cqrs"
	"github.com/eaglebank/purchase-service/internal/models"
)

type mockReader struct {
	getFn  func(accountID int64, id string) (*models.PurchaseView, error)
	listFn func(accountID int64) ([]models.PurchaseView, error)
}

func (m *mockReader) GetByID(_ context.Context, accountID int64, id string) (*models.PurchaseView, error) {
	if m.getFn != nil {
		return m.getFn(accountID, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockReader) ListByAccount(_ context.Context, accountID int64) ([]models.PurchaseView, error) {
	if m.listFn != nil {
		return m.listFn(accountID)
	}
	return nil, fmt.Errorf("not configured")
}

func milk() models.PurchaseView {
	return models.PurchaseView{
		ID:           "p-1",
		AccountID:    1,
		ProductName:  "Milk",
		TotalPrice:   models.Decimal{Decimal: decimal.RequireFromString("11.00")},
		PurchaseDate: models.Date{Time: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func TestListPurchases_MonthlyTotalFollowsClock(t *testing.T) {
	repo := &mockReader{listFn: func(accountID int64) ([]models.PurchaseView, error) {
		require.Equal(t, int64(1), accountID)
		return []models.PurchaseView{milk()}, nil
	}}

	jan := NewPurchaseQueryService(repo, clock.Fixed(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
	list, err := jan.ListPurchases(context.Background(), cqrs.ListPurchasesQuery{AccountID: 1})
	require.NoError(t, err)
	assert.Len(t, list.List, 1)
	assert.Equal(t, "11", list.TotalSpent.String())

	feb := NewPurchaseQueryService(repo, clock.Fixed(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	list, err = feb.ListPurchases(context.Background(), cqrs.ListPurchasesQuery{AccountID: 1})
	require.NoError(t, err)
	assert.Len(t, list.List, 1)
	assert.True(t, list.TotalSpent.IsZero())
}

func TestListPurchases_EmptyIsNotNil(t *testing.T) {
	svc := NewPurchaseQueryService(&mockReader{listFn: func(int64) ([]models.PurchaseView, error) {
		return nil, nil
	}}, clock.System())

	list, err := svc.ListPurchases(context.Background(), cqrs.ListPurchasesQuery{AccountID: 1})
	require.NoError(t, err)
	assert.NotNil(t, list.List)
}

func TestListPurchases_Failure(t *testing.T) {
	svc := NewPurchaseQueryService(&mockReader{}, clock.System())

	_, err := svc.ListPurchases(context.Background(), cqrs.ListPurchasesQuery{AccountID: 1})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindPersistence, appErr.Kind)
}

func TestGetPurchase(t *testing.T) {
	svc := NewPurchaseQueryService(&mockReader{getFn: func(accountID int64, id string) (*models.PurchaseView, error) {
		if accountID == 1 && id == "p-1" {
			v := milk()
			return &v, nil
		}
		return nil, nil
	}}, clock.System())

	view, err := svc.GetPurchase(context.Background(), cqrs.GetPurchaseQuery{AccountID: 1, PurchaseID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, "Milk", view.ProductName)

	view, err = svc.GetPurchase(context.Background(), cqrs.GetPurchaseQuery{AccountID: 2, PurchaseID: "p-1"})
	assert.NoError(t, err)
	assert.Nil(t, view)
}

func TestGetPurchase_Failure(t *testing.T) {
	svc := NewPurchaseQueryService(&mockReader{getFn: func(int64, string) (*models.PurchaseView, error) {
		return nil, errors.New("timeout")
	}}, clock.System())

	_, err := svc.GetPurchase(context.Background(), cqrs.GetPurchaseQuery{AccountID: 1, PurchaseID: "p-1"})
	assert.Error(t, err)
}
