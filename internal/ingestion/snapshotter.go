package ingestion

import (
	"context"
	"errors"
	"log"
	"time"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/observability"
	"club-token-engine/internal/storage"
)

// Snapshotter periodically captures reference prices for every known
// club at each canonical lookback. The price for a lookback is the last
// trade at or before now minus the lookback; a club with no trade that
// far back simply gets no row for that lookback.
type Snapshotter struct {
	clubs    storage.ClubStore
	trades   storage.TradeStore
	snaps    storage.SnapshotStore
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
	onPass   func(error)
}

// SnapshotterOptions contains configuration for creating a Snapshotter.
type SnapshotterOptions struct {
	ClubStore     storage.ClubStore
	TradeStore    storage.TradeStore
	SnapshotStore storage.SnapshotStore

	// Interval between capture passes. Default: 1m.
	Interval time.Duration

	Logger *log.Logger

	// Clock overrides time.Now in tests.
	Clock func() time.Time

	// OnPass is called after every scheduled capture pass with its
	// outcome. Optional; the server uses it for status reporting.
	OnPass func(error)
}

// NewSnapshotter creates a new snapshotter.
func NewSnapshotter(opts SnapshotterOptions) *Snapshotter {
	interval := opts.Interval
	if interval == 0 {
		interval = 1 * time.Minute
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Snapshotter{
		clubs:    opts.ClubStore,
		trades:   opts.TradeStore,
		snaps:    opts.SnapshotStore,
		interval: interval,
		logger:   logger,
		now:      now,
		onPass:   opts.OnPass,
	}
}

// Run captures snapshots on a fixed interval until the context is
// cancelled.
func (s *Snapshotter) Run(ctx context.Context) error {
	s.logger.Printf("Starting snapshotter, interval: %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("Snapshotter stopping...")
			return ctx.Err()
		case <-ticker.C:
			err := s.CaptureOnce(ctx)
			if err != nil {
				s.logger.Printf("Snapshot capture failed: %v", err)
			}
			if s.onPass != nil {
				s.onPass(err)
			}
		}
	}
}

// CaptureOnce runs a single capture pass over all known clubs.
func (s *Snapshotter) CaptureOnce(ctx context.Context) error {
	start := time.Now()
	capturedAt := s.now().UnixMilli()

	clubs, err := s.clubs.List(ctx)
	if err != nil {
		return err
	}

	var rows []*domain.PriceSnapshot
	for _, club := range clubs {
		for _, window := range domain.CanonicalWindows {
			cutoff := capturedAt - window.Lookback().Milliseconds()

			price, err := s.trades.LastPriceAt(ctx, club.ClubID, cutoff)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					// Club had no trade that far back.
					continue
				}
				s.logger.Printf("Error reading reference price for %s/%s: %v", club.ClubID, window, err)
				continue
			}

			rows = append(rows, &domain.PriceSnapshot{
				ClubID:     club.ClubID,
				Window:     window,
				Price:      price,
				CapturedAt: capturedAt,
			})
		}
	}

	if len(rows) == 0 {
		return nil
	}

	if err := s.snaps.InsertBulk(ctx, rows); err != nil {
		// A duplicate capture timestamp means this pass already ran.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		return err
	}

	observability.RecordSnapshotCapture(len(rows), start)
	s.logger.Printf("Captured %d snapshot rows across %d clubs", len(rows), len(clubs))
	return nil
}
