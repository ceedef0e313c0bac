package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository implements audit.Repository using PostgreSQL. Entries
// are pure inserts, never updated.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Append inserts an audit entry.
func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO audit_log
		 (id, action, target_type, target_id, source_system, user_id, correlation_id, payload, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Action, e.TargetType, e.TargetID, e.SourceSystem, e.UserID, e.CorrelationID, payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByCorrelationID returns all entries belonging to one logical
// operation, oldest first.
func (r *AuditRepository) ListByCorrelationID(ctx context.Context, correlationID string) ([]*audit.Entry, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, action, target_type, target_id, source_system, user_id, correlation_id, payload, created_at
		 FROM audit_log WHERE correlation_id = $1 ORDER BY created_at ASC`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.TargetType, &e.TargetID,
			&e.SourceSystem, &e.UserID, &e.CorrelationID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
