package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// TradeTimeseriesStore implements storage.TradeTimeseriesStore using ClickHouse.
type TradeTimeseriesStore struct {
	conn *Conn
}

// NewTradeTimeseriesStore creates a new TradeTimeseriesStore.
func NewTradeTimeseriesStore(conn *Conn) *TradeTimeseriesStore {
	return &TradeTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeTimeseriesStore = (*TradeTimeseriesStore)(nil)

// InsertBulk appends points. The projection is append-only; trade dedup
// happens upstream at the trade log.
func (s *TradeTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.TradeTimeseriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.ClubID == "" || p.Price == nil || p.Volume == nil {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_timeseries (
			club_id, timestamp_ms, price, volume, is_buy
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.ClubID, uint64(p.TimestampMs), p.Price, p.Volume, p.IsBuy,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves points for a club within [start, end] (inclusive).
func (s *TradeTimeseriesStore) GetByTimeRange(ctx context.Context, clubID string, start, end int64) ([]*domain.TradeTimeseriesPoint, error) {
	query := `
		SELECT club_id, timestamp_ms, price, volume, is_buy
		FROM trade_timeseries
		WHERE club_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, clubID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTradeTimeseries(rows)
}

// scanTradeTimeseries scans multiple rows.
func scanTradeTimeseries(rows chRows) ([]*domain.TradeTimeseriesPoint, error) {
	var points []*domain.TradeTimeseriesPoint

	for rows.Next() {
		var p domain.TradeTimeseriesPoint
		var timestampMs uint64
		var price, volume *big.Int

		err := rows.Scan(&p.ClubID, &timestampMs, &price, &volume, &p.IsBuy)
		if err != nil {
			return nil, fmt.Errorf("scan trade timeseries row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		p.Price = price
		p.Volume = volume
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade timeseries rows: %w", err)
	}

	return points, nil
}
