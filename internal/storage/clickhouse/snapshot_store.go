package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshot rows. Fails the entire batch on duplicate
// (club_id, window, captured_at_ms).
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		clubID     string
		window     domain.SnapshotWindow
		capturedAt int64
	}
	seen := make(map[key]struct{})
	for _, snap := range snapshots {
		if snap == nil || snap.ClubID == "" || !snap.Window.Valid() || snap.Price == nil {
			return storage.ErrInvalidInput
		}
		k := key{snap.ClubID, snap.Window, snap.CapturedAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.ClubID, snap.Window, snap.CapturedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_snapshots (
			club_id, lookback, price, captured_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.ClubID, string(snap.Window), snap.Price, uint64(snap.CapturedAt),
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

// Latest retrieves the most recent snapshot per canonical window for a
// club. Windows never captured are absent from the result.
func (s *SnapshotStore) Latest(ctx context.Context, clubID string) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT lookback, argMax(price, captured_at_ms), max(captured_at_ms)
		FROM price_snapshots
		WHERE club_id = ?
		GROUP BY lookback
		ORDER BY lookback ASC
	`

	rows, err := s.conn.Query(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.PriceSnapshot
	for rows.Next() {
		var (
			window     string
			price      *big.Int
			capturedAt uint64
		)
		if err := rows.Scan(&window, &price, &capturedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, &domain.PriceSnapshot{
			ClubID:     clubID,
			Window:     domain.SnapshotWindow(window),
			Price:      price,
			CapturedAt: int64(capturedAt),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}

// exists checks if a snapshot with the given key exists.
func (s *SnapshotStore) exists(ctx context.Context, clubID string, window domain.SnapshotWindow, capturedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_snapshots
		WHERE club_id = ? AND lookback = ? AND captured_at_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, clubID, string(window), uint64(capturedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
