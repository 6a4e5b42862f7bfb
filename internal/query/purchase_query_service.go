package query

import (
	"context"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/clock"
	"github.com/eaglebank/purchase-service/internal/cqrs"
	"github.com/eaglebank/purchase-service/internal/models"
	"github.com/eaglebank/purchase-service/internal/purchase"
)

// PurchaseReader is the read model.
type PurchaseReader interface {
	GetByID(ctx context.Context, accountID int64, id string) (*models.PurchaseView, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.PurchaseView, error)
}

type PurchaseQueryService struct {
	readRepo PurchaseReader
	clock    clock.Clock
}

func NewPurchaseQueryService(readRepo PurchaseReader, clk clock.Clock) *PurchaseQueryService {
	return &PurchaseQueryService{readRepo: readRepo, clock: clk}
}

// GetPurchase returns (nil, nil) when the account owns no such purchase.
func (s *PurchaseQueryService) GetPurchase(ctx context.Context, q cqrs.GetPurchaseQuery) (*models.PurchaseView, error) {
	view, err := s.readRepo.GetByID(ctx, q.AccountID, q.PurchaseID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return view, nil
}

// ListPurchases returns every purchase of the account plus the spend for the
// current calendar month. It is computed on each call.
func (s *PurchaseQueryService) ListPurchases(ctx context.Context, q cqrs.ListPurchasesQuery) (*models.PurchaseList, error) {
	views, err := s.readRepo.ListByAccount(ctx, q.AccountID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if views == nil {
		views = []models.PurchaseView{}
	}
	return &models.PurchaseList{
		List:       views,
		TotalSpent: models.Decimal{Decimal: purchase.MonthlySpend(views, s.clock.Now())},
	}, nil
}
