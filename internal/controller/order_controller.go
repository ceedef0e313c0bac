package controller

import (
	"net/http"

	appDeadline "github.com/mbuchner/liefertermin/internal/deadline"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderController exposes deadline resolution and sync triggering.
type OrderController struct {
	resolver    *appDeadline.Resolver
	syncService *service.SyncService
}

func NewOrderController(resolver *appDeadline.Resolver, syncService *service.SyncService) *OrderController {
	return &OrderController{
		resolver:    resolver,
		syncService: syncService,
	}
}

// GetDeadlines resolves the latest shipping/delivery instants for an order.
// An unknown order yields an empty result body, not a 404: absence is a
// valid, silent outcome of resolution.
func (c *OrderController) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := c.resolver.ResolveForOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &DeadlineResponse{
		OrderID:          id.String(),
		LatestShippingAt: result.LatestShippingAt,
		LatestDeliveryAt: result.LatestDeliveryAt,
	})
}

// EnqueueSync schedules an asynchronous reconciliation job.
func (c *OrderController) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req SyncRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := c.syncService.EnqueueSync(r.Context(), id, req.System); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, &SyncAcceptedResponse{
		OrderID: id.String(),
		System:  req.System,
		Status:  "queued",
	})
}

// SyncNow runs the reconciliation pipeline synchronously and returns its
// outcome. Used by operators who want immediate feedback.
func (c *OrderController) SyncNow(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req SyncRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := c.syncService.SyncOrder(r.Context(), id, req.System)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromOutcome(outcome))
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domainErrors.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}
