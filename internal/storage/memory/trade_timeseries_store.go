package memory

import (
	"context"
	"sort"
	"sync"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// TradeTimeseriesStore is an in-memory implementation of
// storage.TradeTimeseriesStore.
type TradeTimeseriesStore struct {
	mu     sync.RWMutex
	points map[string][]*domain.TradeTimeseriesPoint // keyed by club_id
}

// NewTradeTimeseriesStore creates a new in-memory trade timeseries store.
func NewTradeTimeseriesStore() *TradeTimeseriesStore {
	return &TradeTimeseriesStore{
		points: make(map[string][]*domain.TradeTimeseriesPoint),
	}
}

// Compile-time interface check.
var _ storage.TradeTimeseriesStore = (*TradeTimeseriesStore)(nil)

// InsertBulk appends points.
func (s *TradeTimeseriesStore) InsertBulk(_ context.Context, points []*domain.TradeTimeseriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.ClubID == "" || p.Price == nil || p.Volume == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		s.points[p.ClubID] = append(s.points[p.ClubID], copyPoint(p))
	}
	return nil
}

// GetByTimeRange retrieves points for a club within [start, end]
// (inclusive, ms), ordered by timestamp ASC.
func (s *TradeTimeseriesStore) GetByTimeRange(_ context.Context, clubID string, start, end int64) ([]*domain.TradeTimeseriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeTimeseriesPoint
	for _, p := range s.points[clubID] {
		if p.TimestampMs >= start && p.TimestampMs <= end {
			result = append(result, copyPoint(p))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

func copyPoint(p *domain.TradeTimeseriesPoint) *domain.TradeTimeseriesPoint {
	pointCopy := *p
	pointCopy.Price = copyBig(p.Price)
	pointCopy.Volume = copyBig(p.Volume)
	return &pointCopy
}
