package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbuchner/liefertermin/internal/domain/deadline"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository implements deadline.SettingsRepository using PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const settingsColumns = `id, sales_channel_id,
	latest_shipping_offset_days, latest_delivery_offset_days,
	cutoff_time, created_at, updated_at`

// FindByChannel returns the most specific settings row. With a channel id
// the channel row is tried first, then the default row (no channel). An
// empty channel id goes straight to an unrestricted single-row lookup.
func (r *SettingsRepository) FindByChannel(ctx context.Context, channelID string) (*deadline.Settings, error) {
	if channelID != "" {
		s, err := r.scanSettings(r.db(ctx).QueryRow(ctx,
			`SELECT `+settingsColumns+` FROM deadline_settings WHERE sales_channel_id = $1`, channelID))
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domainErrors.ErrSettingsNotFound) {
			return nil, err
		}
		// Fall through to the default row.
		return r.scanSettings(r.db(ctx).QueryRow(ctx,
			`SELECT `+settingsColumns+` FROM deadline_settings WHERE sales_channel_id IS NULL LIMIT 1`))
	}

	return r.scanSettings(r.db(ctx).QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM deadline_settings LIMIT 1`))
}

func (r *SettingsRepository) scanSettings(row pgx.Row) (*deadline.Settings, error) {
	var s deadline.Settings
	var cutoff *string
	err := row.Scan(
		&s.ID, &s.SalesChannelID,
		&s.LatestShippingOffsetDays, &s.LatestDeliveryOffsetDays,
		&cutoff, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	if cutoff != nil {
		s.CutoffTime = *cutoff
	}
	return &s, nil
}
