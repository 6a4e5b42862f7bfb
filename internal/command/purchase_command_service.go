package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/clock"
	"github.com/eaglebank/purchase-service/internal/cqrs"
	"github.com/eaglebank/purchase-service/internal/events"
	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/models"
	"github.com/eaglebank/purchase-service/internal/purchase"
	"github.com/eaglebank/purchase-service/internal/repository"
)

// PurchaseWriter is the write store.
type PurchaseWriter interface {
	Create(ctx context.Context, p *models.Purchase) error
	Update(ctx context.Context, p *models.Purchase) error
	Delete(ctx context.Context, accountID int64, id string) error
}

// ViewStore keeps the read model in step with writes.
type ViewStore interface {
	CachePurchaseView(ctx context.Context, view *models.PurchaseView)
	InvalidatePurchaseView(ctx context.Context, accountID int64, id string)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// PurchaseCommandService writes purchase state and keeps the read model in sync.
// Concurrent updates to the same purchase are last-writer-wins.
type PurchaseCommandService struct {
	writeRepo PurchaseWriter
	views     ViewStore
	publisher EventPublisher
	clock     clock.Clock
	log       *logrus.Entry
}

func NewPurchaseCommandService(
	writeRepo PurchaseWriter,
	views ViewStore,
	publisher EventPublisher,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *PurchaseCommandService {
	return &PurchaseCommandService{
		writeRepo: writeRepo,
		views:     views,
		publisher: publisher,
		clock:     clk,
		log:       logging.Component(logger, "purchase-command"),
	}
}

// CreatePurchase records a new purchase. The id and total price are always
// generated here.
func (s *PurchaseCommandService) CreatePurchase(ctx context.Context, cmd cqrs.CreatePurchaseCommand) (*models.Purchase, error) {
	now := s.clock.Now().UTC()
	p := &models.Purchase{
		ID:           uuid.NewString(),
		AccountID:    cmd.AccountID,
		ProductName:  cmd.ProductName,
		Quantity:     cmd.Quantity,
		UnitMeasure:  cmd.UnitMeasure,
		UnitPrice:    cmd.UnitPrice,
		TotalPrice:   purchase.TotalPrice(cmd.Quantity, cmd.UnitPrice),
		PurchaseDate: dateOnly(cmd.PurchaseDate),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.writeRepo.Create(ctx, p); err != nil {
		return nil, apperror.Persistence(err)
	}

	view := models.NewPurchaseView(*p)
	s.views.CachePurchaseView(ctx, &view)
	s.publish(ctx, events.PurchaseCreated, p.AccountID, p.ID, events.PurchaseCreatedEvent{
		PurchaseID:   p.ID,
		AccountID:    p.AccountID,
		ProductName:  p.ProductName,
		TotalPrice:   view.TotalPrice,
		PurchaseDate: view.PurchaseDate,
	})
	s.log.WithFields(logrus.Fields{
		logging.FieldAccountID: p.AccountID,
		logging.FieldPurchase:  p.ID,
	}).Info("purchase created")
	return p, nil
}

// UpdatePurchase replaces the purchase fields and recomputes the total.
func (s *PurchaseCommandService) UpdatePurchase(ctx context.Context, cmd cqrs.UpdatePurchaseCommand) error {
	p := &models.Purchase{
		ID:           cmd.PurchaseID,
		AccountID:    cmd.AccountID,
		ProductName:  cmd.ProductName,
		Quantity:     cmd.Quantity,
		UnitMeasure:  cmd.UnitMeasure,
		UnitPrice:    cmd.UnitPrice,
		TotalPrice:   purchase.TotalPrice(cmd.Quantity, cmd.UnitPrice),
		PurchaseDate: dateOnly(cmd.PurchaseDate),
		UpdatedAt:    s.clock.Now().UTC(),
	}
	if err := s.writeRepo.Update(ctx, p); err != nil {
		return writeError(err)
	}

	s.views.InvalidatePurchaseView(ctx, p.AccountID, p.ID)
	s.publish(ctx, events.PurchaseUpdated, p.AccountID, p.ID, events.PurchaseUpdatedEvent{
		PurchaseID:   p.ID,
		AccountID:    p.AccountID,
		ProductName:  p.ProductName,
		TotalPrice:   models.Decimal{Decimal: p.TotalPrice},
		PurchaseDate: models.Date{Time: p.PurchaseDate},
	})
	return nil
}

// DeletePurchase removes a purchase owned by the account.
func (s *PurchaseCommandService) DeletePurchase(ctx context.Context, cmd cqrs.DeletePurchaseCommand) error {
	if err := s.writeRepo.Delete(ctx, cmd.AccountID, cmd.PurchaseID); err != nil {
		return writeError(err)
	}

	s.views.InvalidatePurchaseView(ctx, cmd.AccountID, cmd.PurchaseID)
	s.publish(ctx, events.PurchaseDeleted, cmd.AccountID, cmd.PurchaseID, events.PurchaseDeletedEvent{
		PurchaseID: cmd.PurchaseID,
		AccountID:  cmd.AccountID,
	})
	return nil
}

func (s *PurchaseCommandService) publish(ctx context.Context, eventType string, accountID int64, id string, data any) {
	if err := s.publisher.Publish(ctx, events.PurchaseEventsStream, eventType, data); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			logging.FieldAccountID: accountID,
			logging.FieldPurchase:  id,
			"event":                eventType,
		}).Warn("failed to publish event")
	}
}

// writeError keeps the not-found sentinel visible and classifies anything
// else as a persistence failure.
func writeError(err error) error {
	if errors.Is(err, repository.ErrPurchaseNotFound) {
		return err
	}
	return apperror.Persistence(err)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
