package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/cqrs"
	"github.com/eaglebank/purchase-service/internal/crud"
	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/middleware"
	"github.com/eaglebank/purchase-service/internal/models"
	"github.com/eaglebank/purchase-service/internal/purchase"
	"github.com/eaglebank/purchase-service/internal/repository"
	"github.com/eaglebank/purchase-service/internal/schema"
)

// PurchaseCommander defines the write-side operations used by PurchaseHandler.
type PurchaseCommander interface {
	CreatePurchase(context.Context, cqrs.CreatePurchaseCommand) (*models.Purchase, error)
	UpdatePurchase(context.Context, cqrs.UpdatePurchaseCommand) error
	DeletePurchase(context.Context, cqrs.DeletePurchaseCommand) error
}

// PurchaseQuerier defines the read-side operations used by PurchaseHandler.
type PurchaseQuerier interface {
	GetPurchase(context.Context, cqrs.GetPurchaseQuery) (*models.PurchaseView, error)
	ListPurchases(context.Context, cqrs.ListPurchasesQuery) (*models.PurchaseList, error)
}

// OperationRecorder counts operation outcomes.
type OperationRecorder interface {
	RecordOperation(operation, outcome string)
}

const purchaseNotFoundMessage = "Purchase not found"

// PurchaseHandler handles purchase HTTP requests. Each route is guarded by a
// crud.Operation carrying the grant it requires.
type PurchaseHandler struct {
	commands      PurchaseCommander
	queries       PurchaseQuerier
	recorder      OperationRecorder
	generalStatus int
	log           *logrus.Entry

	listOp   *crud.Operation
	createOp *crud.Operation
	readOp   *crud.Operation
	updateOp *crud.Operation
	deleteOp *crud.Operation
}

func NewPurchaseHandler(
	commands PurchaseCommander,
	queries PurchaseQuerier,
	validator *schema.Validator,
	recorder OperationRecorder,
	generalStatus int,
	logger logrus.FieldLogger,
) *PurchaseHandler {
	return &PurchaseHandler{
		commands:      commands,
		queries:       queries,
		recorder:      recorder,
		generalStatus: generalStatus,
		log:           logging.Component(logger, "purchase-handler"),
		listOp:        crud.New(validator, purchase.GrantRead),
		createOp:      crud.New(validator, purchase.GrantCreate),
		readOp:        crud.New(validator, purchase.GrantRead),
		updateOp:      crud.New(validator, purchase.GrantUpdate),
		deleteOp:      crud.New(validator, purchase.GrantDelete),
	}
}

func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	bundle, ok := h.ready(c, "list", h.listOp.List(c))
	if !ok {
		return
	}

	list, err := h.queries.ListPurchases(c.Request.Context(), cqrs.ListPurchasesQuery{
		AccountID: bundle.Credential.AccountID,
	})
	if err != nil {
		h.fail(c, "list", bundle, err)
		return
	}

	h.recorder.RecordOperation("list", "ok")
	middleware.RespondWithData(c, http.StatusOK, list)
}

func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	bundle, ok := h.ready(c, "create", h.createOp.Create(c, purchase.BodySchema))
	if !ok {
		return
	}

	p := bundle.Params
	created, err := h.commands.CreatePurchase(c.Request.Context(), cqrs.CreatePurchaseCommand{
		AccountID:    bundle.Credential.AccountID,
		ProductName:  p.String(purchase.FieldProductName),
		Quantity:     p.Decimal(purchase.FieldQuantity),
		UnitMeasure:  p.String(purchase.FieldUnitMeasure),
		UnitPrice:    p.Decimal(purchase.FieldUnitPrice),
		PurchaseDate: p.Date(purchase.FieldPurchaseDate),
	})
	if err != nil {
		h.fail(c, "create", bundle, err)
		return
	}

	h.recorder.RecordOperation("create", "ok")
	middleware.RespondWithData(c, http.StatusCreated, models.Created{ID: created.ID})
}

func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	bundle, ok := h.ready(c, "read", h.readOp.Read(c, purchase.IDSchema))
	if !ok {
		return
	}

	view, err := h.queries.GetPurchase(c.Request.Context(), cqrs.GetPurchaseQuery{
		PurchaseID: bundle.Params.String(purchase.FieldID),
		AccountID:  bundle.Credential.AccountID,
	})
	if err != nil {
		h.fail(c, "read", bundle, err)
		return
	}
	if view == nil {
		h.fail(c, "read", bundle, repository.ErrPurchaseNotFound)
		return
	}

	h.recorder.RecordOperation("read", "ok")
	middleware.RespondWithData(c, http.StatusOK, view)
}

func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	bundle, ok := h.ready(c, "update", h.updateOp.Update(c, purchase.IDSchema, purchase.BodySchema))
	if !ok {
		return
	}

	p := bundle.Params
	err := h.commands.UpdatePurchase(c.Request.Context(), cqrs.UpdatePurchaseCommand{
		PurchaseID:   p.String(purchase.FieldID),
		AccountID:    bundle.Credential.AccountID,
		ProductName:  p.String(purchase.FieldProductName),
		Quantity:     p.Decimal(purchase.FieldQuantity),
		UnitMeasure:  p.String(purchase.FieldUnitMeasure),
		UnitPrice:    p.Decimal(purchase.FieldUnitPrice),
		PurchaseDate: p.Date(purchase.FieldPurchaseDate),
	})
	if err != nil {
		h.fail(c, "update", bundle, err)
		return
	}

	h.recorder.RecordOperation("update", "ok")
	middleware.RespondWithData(c, http.StatusOK, models.Ack{Success: true})
}

func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	bundle, ok := h.ready(c, "delete", h.deleteOp.Delete(c, purchase.IDSchema))
	if !ok {
		return
	}

	err := h.commands.DeletePurchase(c.Request.Context(), cqrs.DeletePurchaseCommand{
		PurchaseID: bundle.Params.String(purchase.FieldID),
		AccountID:  bundle.Credential.AccountID,
	})
	if err != nil {
		h.fail(c, "delete", bundle, err)
		return
	}

	h.recorder.RecordOperation("delete", "ok")
	middleware.RespondWithData(c, http.StatusOK, models.Ack{Success: true})
}

// ready unwraps a gate outcome, writing the error response for rejections.
func (h *PurchaseHandler) ready(c *gin.Context, operation string, out crud.Outcome) (crud.Bundle, bool) {
	switch o := out.(type) {
	case crud.Ready:
		return o.Bundle, true
	case crud.Rejected:
		h.recorder.RecordOperation(operation, o.Err.Kind.String())
		middleware.RespondWithAppError(c, o.Err, h.generalStatus)
		return crud.Bundle{}, false
	default:
		h.recorder.RecordOperation(operation, apperror.KindInternal.String())
		middleware.RespondWithAppError(c, apperror.Internal(nil), h.generalStatus)
		return crud.Bundle{}, false
	}
}

// fail maps a domain-layer error to the response. Not-found is reported as
// such; anything else is logged and degrades to the general error.
func (h *PurchaseHandler) fail(c *gin.Context, operation string, bundle crud.Bundle, err error) {
	var appErr *apperror.Error
	if errors.Is(err, repository.ErrPurchaseNotFound) {
		appErr = apperror.NotFound(purchaseNotFoundMessage)
	} else {
		appErr = apperror.From(err)
		h.log.WithError(err).WithFields(logrus.Fields{
			logging.FieldAccountID: bundle.Credential.AccountID,
			"operation":            operation,
		}).Error("purchase operation failed")
	}

	h.recorder.RecordOperation(operation, appErr.Kind.String())
	middleware.RespondWithAppError(c, appErr, h.generalStatus)
}
