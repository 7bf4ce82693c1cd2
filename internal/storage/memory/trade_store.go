package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	trades []*domain.Trade
	keys   map[tradeKey]struct{}
	nextID int64
}

type tradeKey struct {
	clubID      string
	txSignature string
	eventIndex  int
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		keys:   make(map[tradeKey]struct{}),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a trade. Returns ErrDuplicateKey if
// (club_id, tx_signature, event_index) exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ClubID == "" || t.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := tradeKey{t.ClubID, t.TxSignature, t.EventIndex}
	if _, exists := s.keys[k]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[k] = struct{}{}

	tradeCopy := copyTrade(t)
	tradeCopy.ID = s.nextID
	s.nextID++
	s.trades = append(s.trades, tradeCopy)
	return nil
}

// GetByTimeRange retrieves trades for a club within [start, end]
// (inclusive, ms), ordered by timestamp ASC.
func (s *TradeStore) GetByTimeRange(_ context.Context, clubID string, start, end int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.trades {
		if t.ClubID == clubID && t.Timestamp >= start && t.Timestamp <= end {
			result = append(result, copyTrade(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// VolumeSince sums quote-side volume for a club's trades with
// timestamp >= since.
func (s *TradeStore) VolumeSince(_ context.Context, clubID string, since int64) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	volume := new(big.Int)
	for _, t := range s.trades {
		if t.ClubID != clubID || t.Timestamp < since {
			continue
		}
		if t.IsBuy {
			volume.Add(volume, t.AmountIn)
		} else {
			volume.Add(volume, t.AmountOut)
		}
	}
	return volume, nil
}

// LastPriceAt returns the execution price of the latest trade at or
// before the given timestamp. Returns ErrNotFound when the club has no
// trade that early.
func (s *TradeStore) LastPriceAt(_ context.Context, clubID string, at int64) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Trade
	for _, t := range s.trades {
		if t.ClubID != clubID || t.Timestamp > at {
			continue
		}
		if best == nil || t.Timestamp > best.Timestamp ||
			(t.Timestamp == best.Timestamp && t.ID > best.ID) {
			best = t
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return copyBig(best.Price), nil
}

// copyTrade deep-copies a trade.
func copyTrade(t *domain.Trade) *domain.Trade {
	tradeCopy := *t
	tradeCopy.AmountIn = copyBig(t.AmountIn)
	tradeCopy.AmountOut = copyBig(t.AmountOut)
	tradeCopy.Price = copyBig(t.Price)
	return &tradeCopy
}
