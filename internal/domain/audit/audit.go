package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Well-known audit actions written by the integration layer.
const (
	ActionIntegrationSuccess    = "integration_success"
	ActionIntegrationDeadLetter = "integration_dead_letter"
	ActionIntegrationRejected   = "integration_rejected"
	ActionOrderSynced           = "order_synced"
)

// Entry is one immutable audit record. Written once per attempt outcome,
// never updated.
type Entry struct {
	ID            uuid.UUID
	Action        string
	TargetType    string
	TargetID      string
	SourceSystem  string
	UserID        string
	CorrelationID string
	Payload       map[string]any
	CreatedAt     time.Time
}

func NewEntry(action, targetType, targetID string) *Entry {
	return &Entry{
		ID:         uuid.New(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Payload:    make(map[string]any),
		CreatedAt:  time.Now(),
	}
}

// Repository is an append-only sink. Append is fire-and-forget from the
// caller's perspective; a failing audit store must never mask the outcome
// of the operation being audited.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByCorrelationID(ctx context.Context, correlationID string) ([]*Entry, error)
}
