// Package ingestion consumes the platform's live trade feed and keeps
// the local stores current: the append-only trade log, the trade
// timeseries projection, the club state mirror, and the periodic price
// snapshots the delta analytics read from.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/observability"
)

// TradeSource provides a stream of executed trades.
type TradeSource interface {
	// Subscribe returns a channel of trades. The channel is closed when
	// the source shuts down or the context is cancelled.
	Subscribe(ctx context.Context) (<-chan *domain.Trade, error)
}

// FeedTradeSource adapts a chain.Feed subscription into a TradeSource.
// Malformed events are logged and skipped rather than tearing down the
// stream.
type FeedTradeSource struct {
	feed   chain.Feed
	filter chain.TradeFilter
	logger *log.Logger
}

// NewFeedTradeSource creates a trade source over a live feed. A nil
// logger falls back to log.Default.
func NewFeedTradeSource(feed chain.Feed, filter chain.TradeFilter, logger *log.Logger) *FeedTradeSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FeedTradeSource{feed: feed, filter: filter, logger: logger}
}

// Subscribe returns a channel of trades parsed from feed notifications.
func (s *FeedTradeSource) Subscribe(ctx context.Context) (<-chan *domain.Trade, error) {
	notifCh, err := s.feed.SubscribeTrades(ctx, s.filter)
	if err != nil {
		return nil, err
	}

	tradesCh := make(chan *domain.Trade, 100)

	go func() {
		defer close(tradesCh)
		for {
			select {
			case <-ctx.Done():
				return
			case notif, ok := <-notifCh:
				if !ok {
					return
				}
				trade, err := parseTradeNotification(&notif)
				if err != nil {
					s.logger.Printf("[feed] skipping malformed trade event sig=%s: %v", notif.TxSignature, err)
					observability.RecordMalformedEvent()
					continue
				}
				select {
				case tradesCh <- trade:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return tradesCh, nil
}

// parseTradeNotification converts a wire-format trade event into a
// domain trade. Amounts cross the wire as decimal strings.
func parseTradeNotification(notif *chain.TradeNotification) (*domain.Trade, error) {
	if notif.ClubID == "" {
		return nil, fmt.Errorf("missing clubId")
	}
	if notif.TxSignature == "" {
		return nil, fmt.Errorf("missing txSignature")
	}

	amountIn, err := parseWireAmount(notif.AmountIn, "amountIn")
	if err != nil {
		return nil, err
	}
	amountOut, err := parseWireAmount(notif.AmountOut, "amountOut")
	if err != nil {
		return nil, err
	}
	price, err := parseWireAmount(notif.Price, "price")
	if err != nil {
		return nil, err
	}

	return &domain.Trade{
		ClubID:      notif.ClubID,
		TxSignature: notif.TxSignature,
		EventIndex:  notif.EventIndex,
		IsBuy:       notif.IsBuy,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Price:       price,
		Trader:      notif.Trader,
		Timestamp:   notif.TimestampMs,
	}, nil
}

func parseWireAmount(s, field string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing %s", field)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("malformed %s amount %q", field, s)
	}
	return v, nil
}
