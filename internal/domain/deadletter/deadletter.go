package deadletter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is a permanently failed integration operation, kept for manual
// inspection and replay. Created only when retries exhaust; immutable.
type Record struct {
	ID            uuid.UUID
	System        string
	Operation     string
	ErrorMessage  string
	Attempts      int
	CorrelationID string
	Payload       map[string]any
	CreatedAt     time.Time
}

func NewRecord(system, operation, errorMessage string, attempts int) *Record {
	return &Record{
		ID:           uuid.New(),
		System:       system,
		Operation:    operation,
		ErrorMessage: errorMessage,
		Attempts:     attempts,
		Payload:      make(map[string]any),
		CreatedAt:    time.Now(),
	}
}

// ListFilter narrows dead-letter listings.
type ListFilter struct {
	System string
	Limit  int
	Offset int
}

// Repository is an append-only sink plus the inspection queries the
// operations API needs.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}
