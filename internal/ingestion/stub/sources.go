// Package stub provides in-memory ingestion sources for tests.
package stub

import (
	"context"

	"club-token-engine/internal/domain"
)

// TradeSource replays a fixed set of trades over a channel. Implements
// ingestion.TradeSource.
type TradeSource struct {
	trades []*domain.Trade
}

// NewTradeSource creates a stub source that will emit the given trades
// in order and then leave the channel open until the context ends.
func NewTradeSource(trades []*domain.Trade) *TradeSource {
	return &TradeSource{trades: trades}
}

// Subscribe emits the configured trades and closes the channel when the
// context is cancelled.
func (s *TradeSource) Subscribe(ctx context.Context) (<-chan *domain.Trade, error) {
	ch := make(chan *domain.Trade, len(s.trades))

	go func() {
		defer close(ch)
		for _, trade := range s.trades {
			cp := *trade
			select {
			case ch <- &cp:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()

	return ch, nil
}
