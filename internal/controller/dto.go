package controller

import (
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	"github.com/mbuchner/liefertermin/internal/service"
)

// --- Request DTOs ---

// SyncRequest triggers a reconciliation of one order against an external
// system.
type SyncRequest struct {
	System string `json:"system" validate:"required,oneof=san6 gambio shopware"`
}

// --- Response DTOs ---

// DeadlineResponse carries the computed commitment dates for an order.
type DeadlineResponse struct {
	OrderID          string     `json:"order_id"`
	LatestShippingAt *time.Time `json:"latest_shipping_at,omitempty"`
	LatestDeliveryAt *time.Time `json:"latest_delivery_at,omitempty"`
}

// SyncAcceptedResponse acknowledges an enqueued sync job.
type SyncAcceptedResponse struct {
	OrderID string `json:"order_id"`
	System  string `json:"system"`
	Status  string `json:"status"`
}

// OutcomeResponse reports a synchronous reconciliation run.
type OutcomeResponse struct {
	Status           string     `json:"status"`
	Violations       []string   `json:"violations,omitempty"`
	Conflicts        []string   `json:"conflicts,omitempty"`
	LatestShippingAt *time.Time `json:"latest_shipping_at,omitempty"`
	LatestDeliveryAt *time.Time `json:"latest_delivery_at,omitempty"`
}

// DeadLetterResponse represents a dead letter in API responses.
type DeadLetterResponse struct {
	ID            string         `json:"id"`
	System        string         `json:"system"`
	Operation     string         `json:"operation"`
	ErrorMessage  string         `json:"error_message"`
	Attempts      int            `json:"attempts"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AuditEntryResponse represents an audit entry in API responses.
type AuditEntryResponse struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	TargetType    string         `json:"target_type"`
	TargetID      string         `json:"target_id"`
	SourceSystem  string         `json:"source_system,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromOutcome converts a reconciliation outcome to API response.
func FromOutcome(o *service.Outcome) *OutcomeResponse {
	return &OutcomeResponse{
		Status:           o.Status,
		Violations:       o.Violations,
		Conflicts:        o.Conflicts,
		LatestShippingAt: o.Result.LatestShippingAt,
		LatestDeliveryAt: o.Result.LatestDeliveryAt,
	}
}

// FromDeadLetter converts a dead letter to API response.
func FromDeadLetter(rec *deadletter.Record) *DeadLetterResponse {
	return &DeadLetterResponse{
		ID:            rec.ID.String(),
		System:        rec.System,
		Operation:     rec.Operation,
		ErrorMessage:  rec.ErrorMessage,
		Attempts:      rec.Attempts,
		CorrelationID: rec.CorrelationID,
		Payload:       rec.Payload,
		CreatedAt:     rec.CreatedAt,
	}
}

// FromAuditEntry converts an audit entry to API response.
func FromAuditEntry(e *audit.Entry) *AuditEntryResponse {
	return &AuditEntryResponse{
		ID:            e.ID.String(),
		Action:        e.Action,
		TargetType:    e.TargetType,
		TargetID:      e.TargetID,
		SourceSystem:  e.SourceSystem,
		UserID:        e.UserID,
		CorrelationID: e.CorrelationID,
		Payload:       e.Payload,
		CreatedAt:     e.CreatedAt,
	}
}
