package rewards

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

func testIncentive() *domain.Incentive {
	return &domain.Incentive{
		Key:                 "inc-1",
		StartTime:           1000,
		EndTime:             11000, // 10000s program
		RewardRatePerSecond: big.NewInt(100),
		RewardPoolRemaining: big.NewInt(10_000_000),
		TotalLiquidity:      big.NewInt(1000),
	}
}

func testPosition(liquidity int64) *domain.LiquidityPosition {
	return &domain.LiquidityPosition{
		PositionMint: "pos-1",
		TickLower:    -100,
		TickUpper:    100,
		Liquidity:    big.NewInt(liquidity),
	}
}

func TestAccrue_Proportional(t *testing.T) {
	inc := testIncentive()
	pos := testPosition(250) // 25% of pool
	stake := &domain.StakeRecord{PositionMint: "pos-1", IncentiveKey: "inc-1", SecondsInsideTotal: 4000}

	// 4000s * 100/s * 250/1000 = 100000
	acc, err := Accrue(pos, stake, inc, 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.EarnedAmount.Cmp(big.NewInt(100_000)) != 0 {
		t.Errorf("expected 100000, got %s", acc.EarnedAmount)
	}
	if acc.SecondsInsideSnapshot != 4000 {
		t.Errorf("expected snapshot 4000, got %d", acc.SecondsInsideSnapshot)
	}
}

func TestAccrue_ClampsToElapsedWindow(t *testing.T) {
	inc := testIncentive()
	pos := testPosition(1000)
	// Upstream drift: claims more seconds-inside than the program has run.
	stake := &domain.StakeRecord{SecondsInsideTotal: 9999}

	acc, err := Accrue(pos, stake, inc, 3000) // only 2000s elapsed
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.SecondsInsideSnapshot != 2000 {
		t.Errorf("expected clamp to 2000, got %d", acc.SecondsInsideSnapshot)
	}
	if acc.EarnedAmount.Cmp(big.NewInt(200_000)) != 0 {
		t.Errorf("expected 200000, got %s", acc.EarnedAmount)
	}
}

func TestAccrue_ClampsToProgramEnd(t *testing.T) {
	inc := testIncentive()
	pos := testPosition(1000)
	stake := &domain.StakeRecord{SecondsInsideTotal: 50_000}

	// Long after the program ended: window is end - start = 10000s.
	acc, err := Accrue(pos, stake, inc, 999_999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.SecondsInsideSnapshot != 10_000 {
		t.Errorf("expected clamp to 10000, got %d", acc.SecondsInsideSnapshot)
	}
}

func TestAccrue_CappedAtRewardPool(t *testing.T) {
	inc := testIncentive()
	inc.RewardPoolRemaining = big.NewInt(500)
	pos := testPosition(1000)
	stake := &domain.StakeRecord{SecondsInsideTotal: 4000}

	acc, err := Accrue(pos, stake, inc, 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.EarnedAmount.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("expected cap at 500, got %s", acc.EarnedAmount)
	}
}

func TestAccrue_NotStarted(t *testing.T) {
	inc := testIncentive()
	_, err := Accrue(testPosition(100), &domain.StakeRecord{}, inc, 500)
	if err != ErrProgramNotStarted {
		t.Errorf("expected ErrProgramNotStarted, got %v", err)
	}
}

func TestAccrue_ZeroTotalLiquidity(t *testing.T) {
	inc := testIncentive()
	inc.TotalLiquidity = big.NewInt(0)

	_, err := Accrue(testPosition(100), &domain.StakeRecord{SecondsInsideTotal: 10}, inc, 6000)
	if err != fixedpoint.ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestAccrue_InvalidWindow(t *testing.T) {
	inc := testIncentive()
	inc.EndTime = inc.StartTime

	_, err := Accrue(testPosition(100), &domain.StakeRecord{}, inc, 6000)
	if err != ErrInvalidWindow {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestAccrue_NegativeSecondsInside(t *testing.T) {
	inc := testIncentive()
	stake := &domain.StakeRecord{SecondsInsideTotal: -50}

	acc, err := Accrue(testPosition(100), stake, inc, 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.EarnedAmount.Sign() != 0 || acc.SecondsInsideSnapshot != 0 {
		t.Errorf("expected zero accrual, got %s / %d", acc.EarnedAmount, acc.SecondsInsideSnapshot)
	}
}

// countingSource counts underlying incentive fetches.
type countingSource struct {
	fetches   atomic.Int64
	incentive *domain.Incentive
}

func (s *countingSource) Incentive(_ context.Context, _ string) (*domain.Incentive, error) {
	s.fetches.Add(1)
	return s.incentive, nil
}

func TestBatchFetcher_SingleFetchPerBatch(t *testing.T) {
	src := &countingSource{incentive: testIncentive()}
	fetcher := NewBatchFetcher(src)

	// Many concurrent positions sharing one incentive: one fetch, and
	// every caller sees the identical program parameters.
	const callers = 32
	results := make([]*domain.Incentive, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inc, err := fetcher.Incentive(context.Background(), "inc-1")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = inc
		}(i)
	}
	wg.Wait()

	if got := src.fetches.Load(); got != 1 {
		t.Errorf("expected 1 underlying fetch, got %d", got)
	}
	for i, inc := range results {
		if inc != results[0] {
			t.Errorf("caller %d saw a different incentive snapshot", i)
		}
	}
}

func TestBatchFetcher_DistinctKeys(t *testing.T) {
	src := &countingSource{incentive: testIncentive()}
	fetcher := NewBatchFetcher(src)

	ctx := context.Background()
	if _, err := fetcher.Incentive(ctx, "inc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := fetcher.Incentive(ctx, "inc-2"); err != nil {
		t.Fatal(err)
	}
	if got := src.fetches.Load(); got != 2 {
		t.Errorf("expected 2 fetches for 2 keys, got %d", got)
	}
}
