package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/rewards"
)

// PositionReward is one position's accrued state under an incentive.
type PositionReward struct {
	PositionMint  string
	EarnedAmount  string // reward token, decimal string
	SecondsInside int64
}

// StakingRewards is the batch result for a set of positions under one
// incentive program.
type StakingRewards struct {
	Positions []PositionReward
	Total     string
}

// GetStakingRewards computes accrued rewards for each position against
// one incentive program. The incentive itself is fetched once for the
// whole batch, so concurrently evaluated positions report figures from
// the same program snapshot. Any failed position read fails the batch.
func (e *Engine) GetStakingRewards(ctx context.Context, positionMints []string, incentiveKey string) (_ *StakingRewards, retErr error) {
	defer observe("get_staking_rewards", time.Now(), &retErr)

	if len(positionMints) == 0 {
		return nil, errInvalidAmount("no positions supplied")
	}

	fetcher := rewards.NewBatchFetcher(e.reader)
	now := e.now().Unix()

	type result struct {
		accrual *rewards.Accrual
		err     error
	}

	results := make([]result, len(positionMints))
	var wg sync.WaitGroup
	for i, mint := range positionMints {
		wg.Add(1)
		go func(i int, mint string) {
			defer wg.Done()
			accrual, err := e.accruePosition(ctx, fetcher, mint, incentiveKey, now)
			results[i] = result{accrual: accrual, err: err}
		}(i, mint)
	}
	wg.Wait()

	out := &StakingRewards{Positions: make([]PositionReward, 0, len(positionMints))}
	total := new(big.Int)
	for i, res := range results {
		if res.err != nil {
			return nil, classify(res.err)
		}
		total.Add(total, res.accrual.EarnedAmount)
		out.Positions = append(out.Positions, PositionReward{
			PositionMint:  positionMints[i],
			EarnedAmount:  formatTokens(res.accrual.EarnedAmount),
			SecondsInside: res.accrual.SecondsInsideSnapshot,
		})
	}
	out.Total = formatTokens(total)
	return out, nil
}

// accruePosition runs the bounded reads and the accrual math for one
// position.
func (e *Engine) accruePosition(ctx context.Context, fetcher *rewards.BatchFetcher, mint, incentiveKey string, now int64) (*rewards.Accrual, error) {
	rctx, cancel := e.withDeadline(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		pos   *domain.LiquidityPosition
		stake *domain.StakeRecord
		inc   *domain.Incentive
	)
	readErr := make(chan error, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		p, err := e.reader.LiquidityPosition(rctx, mint)
		if err != nil {
			readErr <- err
			return
		}
		pos = p
	}()
	go func() {
		defer wg.Done()
		s, err := e.reader.StakeRecord(rctx, mint, incentiveKey)
		if err != nil {
			readErr <- err
			return
		}
		stake = s
	}()
	go func() {
		defer wg.Done()
		i, err := fetcher.Incentive(rctx, incentiveKey)
		if err != nil {
			readErr <- err
			return
		}
		inc = i
	}()
	wg.Wait()

	select {
	case err := <-readErr:
		return nil, err
	default:
	}

	accrual, err := rewards.Accrue(pos, stake, inc, now)
	if err != nil {
		if errors.Is(err, rewards.ErrProgramNotStarted) {
			// Nothing accrued yet; an unstarted program is a zero
			// balance, not a failure.
			return &rewards.Accrual{EarnedAmount: new(big.Int)}, nil
		}
		return nil, err
	}
	return accrual, nil
}
