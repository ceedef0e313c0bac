package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository implements order.Repository using PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const orderColumns = `id, order_number, sales_channel_id, source_system,
	order_date, payment_method, paid_at, customer_email,
	shipping_date, delivery_date, parcels,
	sync_badge, has_conflict, conflicts,
	latest_shipping_at, latest_delivery_at, created_at, updated_at`

// FindByID loads an order with its payment data attached.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.db(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// UpdateSyncState writes back the reconciliation result.
func (r *OrderRepository) UpdateSyncState(ctx context.Context, o *order.Order) error {
	parcels, err := json.Marshal(o.Parcels)
	if err != nil {
		return fmt.Errorf("marshal parcels: %w", err)
	}
	conflicts, err := json.Marshal(o.Conflicts)
	if err != nil {
		return fmt.Errorf("marshal conflicts: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET
		  source_system=$1, shipping_date=$2, delivery_date=$3, parcels=$4,
		  sync_badge=$5, has_conflict=$6, conflicts=$7, updated_at=$8
		 WHERE id=$9`,
		o.SourceSystem, o.ShippingDate, o.DeliveryDate, parcels,
		string(o.SyncBadge), o.HasConflict, conflicts, time.Now(), o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

// SaveDeadlines persists the computed commitment dates.
func (r *OrderRepository) SaveDeadlines(ctx context.Context, id uuid.UUID, latestShippingAt, latestDeliveryAt *time.Time) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET latest_shipping_at=$1, latest_delivery_at=$2, updated_at=$3 WHERE id=$4`,
		latestShippingAt, latestDeliveryAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("save deadlines: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

// ListPendingSync returns orders that have never been reconciled, oldest
// first, so the periodic scanner works through the backlog fairly.
func (r *OrderRepository) ListPendingSync(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE sync_badge = '' ORDER BY created_at ASC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query pending orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		badge        string
		parcelsRaw   []byte
		conflictsRaw []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.SalesChannelID, &o.SourceSystem,
		&o.OrderDate, &o.PaymentMethod, &o.PaidAt, &o.CustomerEmail,
		&o.ShippingDate, &o.DeliveryDate, &parcelsRaw,
		&badge, &o.HasConflict, &conflictsRaw,
		&o.LatestShippingAt, &o.LatestDeliveryAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.SyncBadge = order.SyncBadge(badge)
	if len(parcelsRaw) > 0 {
		if err := json.Unmarshal(parcelsRaw, &o.Parcels); err != nil {
			return nil, fmt.Errorf("unmarshal parcels: %w", err)
		}
	}
	if len(conflictsRaw) > 0 {
		if err := json.Unmarshal(conflictsRaw, &o.Conflicts); err != nil {
			return nil, fmt.Errorf("unmarshal conflicts: %w", err)
		}
	}
	return &o, nil
}
