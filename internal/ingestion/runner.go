package ingestion

import (
	"context"
	"errors"
	"log"
	"math/big"
	"time"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/observability"
	"club-token-engine/internal/storage"
)

// Runner consumes the live trade stream and keeps the trade log, the
// timeseries projection and the club mirror current.
type Runner struct {
	source     TradeSource
	reader     chain.Reader
	trades     storage.TradeStore
	timeseries storage.TradeTimeseriesStore
	clubs      storage.ClubStore
	refresh    time.Duration // minimum gap between club state refreshes
	logger     *log.Logger

	// lastRefresh tracks the most recent club state fetch per club.
	// Only touched from the Run loop, so no locking.
	lastRefresh map[string]time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source          TradeSource
	Reader          chain.Reader
	TradeStore      storage.TradeStore
	TimeseriesStore storage.TradeTimeseriesStore
	ClubStore       storage.ClubStore

	// RefreshInterval bounds how often one club's chain state is
	// re-fetched during a burst of trades. Default: 5s.
	RefreshInterval time.Duration

	Logger *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	refresh := opts.RefreshInterval
	if refresh == 0 {
		refresh = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		source:      opts.Source,
		reader:      opts.Reader,
		trades:      opts.TradeStore,
		timeseries:  opts.TimeseriesStore,
		clubs:       opts.ClubStore,
		refresh:     refresh,
		logger:      logger,
		lastRefresh: make(map[string]time.Time),
	}
}

// Run starts continuous ingestion. It blocks until the context is
// cancelled or the trade stream closes.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Println("Starting ingestion runner...")

	tradesCh, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("Subscribed to trade feed, club refresh interval: %v", r.refresh)

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Runner stopping...")
			return ctx.Err()

		case trade, ok := <-tradesCh:
			if !ok {
				r.logger.Println("Trade channel closed")
				return errors.New("trade channel closed")
			}
			r.handleTrade(ctx, trade)
		}
	}
}

// handleTrade appends one trade to the log and projections. A duplicate
// means the event was already ingested, so the projections are skipped
// too.
func (r *Runner) handleTrade(ctx context.Context, trade *domain.Trade) {
	if err := r.trades.Insert(ctx, trade); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Replayed event, already in the log.
			observability.RecordDuplicateTrade()
			return
		}
		r.logger.Printf("Error storing trade %s/%d: %v", trade.TxSignature, trade.EventIndex, err)
		observability.RecordIngestionError("trade_log")
		return
	}
	observability.RecordTradeIngested(trade.Timestamp)

	if r.timeseries != nil {
		point := &domain.TradeTimeseriesPoint{
			ClubID:      trade.ClubID,
			TimestampMs: trade.Timestamp,
			Price:       trade.Price,
			Volume:      quoteVolume(trade),
			IsBuy:       trade.IsBuy,
		}
		if err := r.timeseries.InsertBulk(ctx, []*domain.TradeTimeseriesPoint{point}); err != nil {
			r.logger.Printf("Error storing timeseries point for %s: %v", trade.ClubID, err)
			observability.RecordIngestionError("timeseries")
		}
	}

	r.refreshClub(ctx, trade.ClubID)
}

// refreshClub mirrors the club's chain state into the local store,
// rate-limited so a burst of trades costs one read.
func (r *Runner) refreshClub(ctx context.Context, clubID string) {
	if r.reader == nil || r.clubs == nil {
		return
	}

	now := time.Now()
	if last, ok := r.lastRefresh[clubID]; ok && now.Sub(last) < r.refresh {
		return
	}

	club, err := r.reader.ClubState(ctx, clubID)
	if err != nil {
		r.logger.Printf("Error fetching club state for %s: %v", clubID, err)
		observability.RecordIngestionError("club_state")
		return
	}

	if err := r.clubs.Upsert(ctx, club); err != nil {
		r.logger.Printf("Error mirroring club %s: %v", clubID, err)
		observability.RecordIngestionError("club_mirror")
		return
	}

	observability.RecordClubRefresh()
	r.lastRefresh[clubID] = now
}

// quoteVolume returns the quote-side size of a trade. Buys spend quote
// on the way in, sells receive it on the way out.
func quoteVolume(t *domain.Trade) *big.Int {
	if t.IsBuy {
		return t.AmountIn
	}
	return t.AmountOut
}
