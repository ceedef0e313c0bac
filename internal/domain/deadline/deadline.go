package deadline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Settings is the per-sales-channel deadline configuration. One row per
// channel; a row with no channel acts as the default for all channels.
// Created by administrators, read-only here.
type Settings struct {
	ID                       uuid.UUID
	SalesChannelID           *string
	LatestShippingOffsetDays int
	LatestDeliveryOffsetDays int
	CutoffTime               string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Result is the pair of computed commitment instants. Derived, never
// persisted by the resolver itself.
type Result struct {
	LatestShippingAt *time.Time
	LatestDeliveryAt *time.Time
}

// IsZero reports whether no deadline could be computed (order absent).
func (r Result) IsZero() bool {
	return r.LatestShippingAt == nil && r.LatestDeliveryAt == nil
}

// SettingsRepository looks up channel settings, most specific match first.
type SettingsRepository interface {
	// FindByChannel returns the settings row for the given channel, falling
	// back to the default row (no channel filter) when no channel-specific
	// row exists. An empty channelID skips the channel filter entirely.
	// Returns domain errors.ErrSettingsNotFound when neither exists.
	FindByChannel(ctx context.Context, channelID string) (*Settings, error)
}
