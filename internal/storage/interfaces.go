// Package storage defines persistence interfaces for the indexer side of
// the platform: the club mirror, the append-only trade log, and the
// snapshot history the engine's analytics read from.
package storage

import (
	"context"
	"math/big"

	"club-token-engine/internal/domain"
)

// ClubStore provides access to the local club mirror.
type ClubStore interface {
	// Upsert inserts or replaces a club row keyed by club_id.
	Upsert(ctx context.Context, c *domain.Club) error

	// GetByID retrieves a club. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, clubID string) (*domain.Club, error)

	// List retrieves all known clubs ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.Club, error)
}

// TradeStore provides access to the append-only trade log.
type TradeStore interface {
	// Insert adds a trade. Returns ErrDuplicateKey if
	// (club_id, tx_signature, event_index) exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetByTimeRange retrieves trades for a club within [start, end]
	// (inclusive, ms), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, clubID string, start, end int64) ([]*domain.Trade, error)

	// VolumeSince sums quote-side volume for a club's trades with
	// timestamp >= since. Zero when there are no trades.
	VolumeSince(ctx context.Context, clubID string, since int64) (*big.Int, error)

	// LastPriceAt returns the execution price of the latest trade at or
	// before the given timestamp. Returns ErrNotFound when the club has
	// no trade that early.
	LastPriceAt(ctx context.Context, clubID string, at int64) (*big.Int, error)
}

// TradeTimeseriesStore provides access to the analytics projection of
// the trade log (one point per trade).
type TradeTimeseriesStore interface {
	// InsertBulk appends points. The projection is append-only; trade
	// dedup happens upstream at the trade log.
	InsertBulk(ctx context.Context, points []*domain.TradeTimeseriesPoint) error

	// GetByTimeRange retrieves points for a club within [start, end]
	// (inclusive, ms), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, clubID string, start, end int64) ([]*domain.TradeTimeseriesPoint, error)
}

// SnapshotStore provides access to price snapshot history.
type SnapshotStore interface {
	// InsertBulk appends snapshot rows. Snapshots are immutable once
	// written.
	InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) error

	// Latest retrieves the most recent snapshot per canonical window
	// for a club. Windows never captured are absent from the result.
	Latest(ctx context.Context, clubID string) ([]*domain.PriceSnapshot, error)
}
