package rewards

import (
	"context"
	"sync"

	"club-token-engine/internal/domain"
)

// IncentiveSource reads incentive program state from the chain.
type IncentiveSource interface {
	// Incentive retrieves an incentive program by key.
	Incentive(ctx context.Context, key string) (*domain.Incentive, error)
}

// BatchFetcher memoizes incentive reads for the lifetime of one request
// batch. Positions evaluated concurrently against the same incentive see
// one shared fetch, so all of them report identical rewardRatePerSecond
// and programEnd even when their reads land microseconds apart.
//
// A BatchFetcher is created per batch and discarded with it; it must not
// be reused across requests.
type BatchFetcher struct {
	source IncentiveSource

	mu       sync.Mutex
	inFlight map[string]*fetchResult
}

type fetchResult struct {
	once      sync.Once
	incentive *domain.Incentive
	err       error
}

// NewBatchFetcher wraps source with per-batch memoization.
func NewBatchFetcher(source IncentiveSource) *BatchFetcher {
	return &BatchFetcher{
		source:   source,
		inFlight: make(map[string]*fetchResult),
	}
}

// Incentive returns the memoized incentive for key, fetching at most once
// per batch regardless of concurrent callers.
func (f *BatchFetcher) Incentive(ctx context.Context, key string) (*domain.Incentive, error) {
	f.mu.Lock()
	res, ok := f.inFlight[key]
	if !ok {
		res = &fetchResult{}
		f.inFlight[key] = res
	}
	f.mu.Unlock()

	res.once.Do(func() {
		res.incentive, res.err = f.source.Incentive(ctx, key)
	})
	return res.incentive, res.err
}
