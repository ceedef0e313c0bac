package controller

import (
	"net/http"
	"strconv"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OpsController exposes the dead-letter queue and audit trail to
// operators.
type OpsController struct {
	deadLetters deadletter.Repository
	auditLog    audit.Repository
	syncService *service.SyncService
}

func NewOpsController(deadLetters deadletter.Repository, auditLog audit.Repository, syncService *service.SyncService) *OpsController {
	return &OpsController{
		deadLetters: deadLetters,
		auditLog:    auditLog,
		syncService: syncService,
	}
}

// ListDeadLetters returns dead letters, newest first. Supports ?system=
// and ?limit=/?offset= query parameters.
func (c *OpsController) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	filter := deadletter.ListFilter{
		System: r.URL.Query().Get("system"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	records, err := c.deadLetters.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*DeadLetterResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, FromDeadLetter(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDeadLetter returns one dead letter.
func (c *OpsController) GetDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeadLetterID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := c.deadLetters.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDeadLetter(rec))
}

// ReplayDeadLetter re-enqueues the failed operation under its original
// correlation id.
func (c *OpsController) ReplayDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeadLetterID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.syncService.ReplayDeadLetter(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// ListAuditEntries returns the audit trail for one correlation id.
func (c *OpsController) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	correlationID := r.URL.Query().Get("correlationId")
	if correlationID == "" {
		writeError(w, domainErrors.NewValidationError("correlationId", "query parameter is required"))
		return
	}

	entries, err := c.auditLog.ListByCorrelationID(r.Context(), correlationID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, FromAuditEntry(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseDeadLetterID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domainErrors.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}
