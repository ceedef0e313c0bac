package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeadLetterRepository implements deadletter.Repository using PostgreSQL.
type DeadLetterRepository struct {
	pool *pgxpool.Pool
}

// NewDeadLetterRepository creates a new DeadLetterRepository.
func NewDeadLetterRepository(pool *pgxpool.Pool) *DeadLetterRepository {
	return &DeadLetterRepository{pool: pool}
}

func (r *DeadLetterRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const deadLetterColumns = `id, system, operation, error_message, attempts, correlation_id, payload, created_at`

// Append inserts a dead-letter record.
func (r *DeadLetterRepository) Append(ctx context.Context, rec *deadletter.Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal dead letter payload: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO dead_letters
		 (id, system, operation, error_message, attempts, correlation_id, payload, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.System, rec.Operation, rec.ErrorMessage, rec.Attempts, rec.CorrelationID, payload, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// GetByID returns one dead letter.
func (r *DeadLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*deadletter.Record, error) {
	return r.scanRecord(r.db(ctx).QueryRow(ctx,
		`SELECT `+deadLetterColumns+` FROM dead_letters WHERE id = $1`, id))
}

// List returns dead letters, newest first.
func (r *DeadLetterRepository) List(ctx context.Context, filter deadletter.ListFilter) ([]*deadletter.Record, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + deadLetterColumns + ` FROM dead_letters`
	args := []any{}
	if filter.System != "" {
		query += ` WHERE system = $1`
		args = append(args, filter.System)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dead letters: %w", err)
	}
	defer rows.Close()

	var records []*deadletter.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *DeadLetterRepository) scanRecord(row scanner) (*deadletter.Record, error) {
	var rec deadletter.Record
	var payload []byte
	err := row.Scan(&rec.ID, &rec.System, &rec.Operation, &rec.ErrorMessage,
		&rec.Attempts, &rec.CorrelationID, &payload, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("scan dead letter: %w", err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal dead letter payload: %w", err)
		}
	}
	return &rec, nil
}
