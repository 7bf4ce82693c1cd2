package engine

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/chain/stub"
	"club-token-engine/internal/curve"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tokens converts whole tokens to smallest units.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

// testEngine wires an engine over stub chain state and in-memory stores
// with a quadratic 1000-token test curve and a pinned clock.
func testEngine(t *testing.T) (*Engine, *stub.Reader, *memory.TradeStore, *memory.SnapshotStore) {
	t.Helper()

	reader := stub.NewReader()
	trades := memory.NewTradeStore()
	snaps := memory.NewSnapshotStore()

	c := curve.NewPowerCurve(big.NewInt(100), big.NewInt(1), 2)
	pricer := curve.NewPricer(c, tokens(1000), curve.WithStepTokens(10))

	eng := New(reader, pricer, trades, snaps, WithClock(func() time.Time { return testNow }))
	return eng, reader, trades, snaps
}

func setClub(reader *stub.Reader, id string, supply *big.Int, completed bool) {
	reader.SetClub(&domain.Club{
		ClubID:    id,
		Creator:   "Creator" + id,
		Supply:    supply,
		Reserve:   big.NewInt(5_000_000),
		Holders:   3,
		Completed: completed,
		CreatedAt: testNow.Add(-48 * time.Hour).UnixMilli(),
	})
}

func TestGetBuyPrice(t *testing.T) {
	eng, reader, _, _ := testEngine(t)
	setClub(reader, "club-1", big.NewInt(0), false)

	// 0.001 quote = 1000 smallest units buys one 10-token step at spot 100.
	got, err := eng.GetBuyPrice(context.Background(), "club-1", "0.001")
	require.NoError(t, err)
	assert.Equal(t, "10", got.TokensOut)
	assert.Equal(t, "0.0001", got.EffectivePrice)
}

func TestGetBuyPrice_InvalidAmount(t *testing.T) {
	eng, reader, _, _ := testEngine(t)
	setClub(reader, "club-1", big.NewInt(0), false)

	for _, amount := range []string{"0", "-5", "abc", "0.0000001"} {
		_, err := eng.GetBuyPrice(context.Background(), "club-1", amount)
		var engErr *Error
		require.ErrorAs(t, err, &engErr, "amount %q", amount)
		assert.Equal(t, KindInvalidAmount, engErr.Kind, "amount %q", amount)
	}
}

func TestGetBuyPrice_GraduationBoundary(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	// One smallest unit below the threshold still prices on the curve.
	below := new(big.Int).Sub(tokens(1000), big.NewInt(1))
	setClub(reader, "club-below", below, false)
	_, err := eng.GetBuyPrice(context.Background(), "club-below", "1")
	require.NoError(t, err)

	// At the threshold the curve no longer applies.
	setClub(reader, "club-at", tokens(1000), false)
	_, err = eng.GetBuyPrice(context.Background(), "club-at", "1")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindGraduatedCurve, engErr.Kind)

	// The completed flag graduates regardless of supply.
	setClub(reader, "club-done", tokens(10), true)
	_, err = eng.GetBuyPrice(context.Background(), "club-done", "1")
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindGraduatedCurve, engErr.Kind)
}

func TestGetBuyPrice_NotFound(t *testing.T) {
	eng, _, _, _ := testEngine(t)

	_, err := eng.GetBuyPrice(context.Background(), "no-such-club", "1")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindNotFound, engErr.Kind)
}

func TestGetSellPrice(t *testing.T) {
	eng, reader, _, _ := testEngine(t)
	setClub(reader, "club-1", tokens(20), false)

	// Selling 10 tokens walks one step down and prices it at spot 200.
	got, err := eng.GetSellPrice(context.Background(), "club-1", "10")
	require.NoError(t, err)
	assert.Equal(t, "0.002", got.QuoteOut)
	assert.Equal(t, "0.0002", got.EffectivePrice)
}

func TestGetSellPrice_ExceedsSupply(t *testing.T) {
	eng, reader, _, _ := testEngine(t)
	setClub(reader, "club-1", tokens(5), false)

	_, err := eng.GetSellPrice(context.Background(), "club-1", "10")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindInvalidAmount, engErr.Kind)
}

func TestGetTradingInfo(t *testing.T) {
	eng, reader, trades, snaps := testEngine(t)
	setClub(reader, "club-1", tokens(10), false)

	ctx := context.Background()

	// One trade inside the 24h window, one stale.
	require.NoError(t, trades.Insert(ctx, &domain.Trade{
		ClubID: "club-1", TxSignature: "Tx1", IsBuy: true,
		AmountIn: big.NewInt(2_000_000), AmountOut: tokens(10),
		Price:     big.NewInt(200),
		Trader:    "TraderA",
		Timestamp: testNow.Add(-time.Hour).UnixMilli(),
	}))
	require.NoError(t, trades.Insert(ctx, &domain.Trade{
		ClubID: "club-1", TxSignature: "Tx0", IsBuy: true,
		AmountIn: big.NewInt(9_000_000), AmountOut: tokens(1),
		Price:     big.NewInt(100),
		Trader:    "TraderA",
		Timestamp: testNow.Add(-30 * time.Hour).UnixMilli(),
	}))

	// 24h snapshot at price 100; a zero-price snapshot must be omitted,
	// not rendered as infinity.
	require.NoError(t, snaps.InsertBulk(ctx, []*domain.PriceSnapshot{
		{ClubID: "club-1", Window: domain.Window24h, Price: big.NewInt(100), CapturedAt: testNow.Add(-24 * time.Hour).UnixMilli()},
		{ClubID: "club-1", Window: domain.Window6h, Price: big.NewInt(0), CapturedAt: testNow.Add(-6 * time.Hour).UnixMilli()},
	}))

	info, err := eng.GetTradingInfo(ctx, "club-1")
	require.NoError(t, err)

	assert.False(t, info.Graduated)
	assert.Equal(t, 3, info.Holders)
	// Spot at supply 10 tokens is 100 + 10^2 = 200 quote units.
	assert.Equal(t, "0.0002", info.BuyPrice)
	// Only the in-window buy counts: 2_000_000 quote units.
	assert.Equal(t, "2", info.Volume24h)
	assert.Equal(t, "5", info.Liquidity)
	// 200 * 10 tokens normalized back to quote units.
	assert.Equal(t, "0.002", info.MarketCap)

	// 100 -> 200 is +100.00%; the zero-price 6h window is omitted and
	// the never-captured windows stay absent.
	require.Contains(t, info.PriceDeltas, domain.Window24h)
	assert.True(t, info.PriceDeltas[domain.Window24h].Positive)
	assert.Equal(t, "100.00", info.PriceDeltas[domain.Window24h].ValuePct)
	assert.NotContains(t, info.PriceDeltas, domain.Window6h)
	assert.NotContains(t, info.PriceDeltas, domain.Window1h)
	assert.NotContains(t, info.PriceDeltas, domain.Window5m)
}

func TestGetTradingInfo_Graduated(t *testing.T) {
	eng, reader, trades, _ := testEngine(t)
	setClub(reader, "club-1", tokens(1000), true)

	ctx := context.Background()
	require.NoError(t, trades.Insert(ctx, &domain.Trade{
		ClubID: "club-1", TxSignature: "Tx1", IsBuy: true,
		AmountIn: big.NewInt(3_000_000), AmountOut: tokens(10),
		Price:     big.NewInt(300),
		Trader:    "TraderA",
		Timestamp: testNow.Add(-time.Minute).UnixMilli(),
	}))

	info, err := eng.GetTradingInfo(ctx, "club-1")
	require.NoError(t, err)

	assert.True(t, info.Graduated)
	assert.Empty(t, info.BuyPrice)
	// 300 * 1000 tokens on the quote scale.
	assert.Equal(t, "0.3", info.MarketCap)
}

func TestGetTradingInfo_RequiredReadFails(t *testing.T) {
	eng, reader, _, _ := testEngine(t)
	reader.Err = chain.ErrUpstreamUnavailable

	_, err := eng.GetTradingInfo(context.Background(), "club-1")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindUpstreamUnavailable, engErr.Kind)
}

func TestGetVestingBalance(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	day := int64(24 * 60 * 60)
	start := testNow.Unix() - 75*day
	reader.SetGrant(&domain.VestingGrant{
		Beneficiary:     "Holder",
		TokenAddress:    "Token",
		TotalAllocated:  tokens(1000),
		Claimed:         big.NewInt(0),
		StartTime:       start,
		CliffDuration:   30 * day,
		VestingDuration: 120 * day,
	})

	// 45 days past the cliff over a 120-day schedule unlocks 375.
	got, err := eng.GetVestingBalance(context.Background(), "Token", "Holder")
	require.NoError(t, err)
	assert.Equal(t, "375", got.AvailableBalance)
	assert.Equal(t, "625", got.VestingBalance)
	assert.Equal(t, "1000", got.TotalBalance)
}

func TestGetVestingBalance_ClaimDeducted(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	day := int64(24 * 60 * 60)
	start := testNow.Unix() - 75*day
	reader.SetGrant(&domain.VestingGrant{
		Beneficiary:     "Holder",
		TokenAddress:    "Token",
		TotalAllocated:  tokens(1000),
		Claimed:         tokens(100),
		StartTime:       start,
		CliffDuration:   30 * day,
		VestingDuration: 120 * day,
	})

	got, err := eng.GetVestingBalance(context.Background(), "Token", "Holder")
	require.NoError(t, err)
	assert.Equal(t, "275", got.AvailableBalance)
	assert.Equal(t, "625", got.VestingBalance)
	assert.Equal(t, "900", got.TotalBalance)
}

func TestGetVestingBalance_ClaimExceedsUnlocked(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	day := int64(24 * 60 * 60)
	start := testNow.Unix() - 75*day
	reader.SetGrant(&domain.VestingGrant{
		Beneficiary:     "Holder",
		TokenAddress:    "Token",
		TotalAllocated:  tokens(1000),
		Claimed:         tokens(400), // only 375 unlocked
		StartTime:       start,
		CliffDuration:   30 * day,
		VestingDuration: 120 * day,
	})

	_, err := eng.GetVestingBalance(context.Background(), "Token", "Holder")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindInconsistentState, engErr.Kind)
}

func TestGetVestingBalance_NotFound(t *testing.T) {
	eng, _, _, _ := testEngine(t)

	_, err := eng.GetVestingBalance(context.Background(), "Token", "Nobody")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindNotFound, engErr.Kind)
}

func TestGetStakingRewards(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	now := testNow.Unix()
	reader.SetIncentive(&domain.Incentive{
		Key:                 "inc-1",
		Pool:                "Pool",
		RewardToken:         "Reward",
		StartTime:           now - 1000,
		EndTime:             now + 1000,
		RewardRatePerSecond: big.NewInt(4),
		RewardPoolRemaining: tokens(1_000_000),
		TotalLiquidity:      big.NewInt(1000),
	})
	reader.SetPosition(
		&domain.LiquidityPosition{PositionMint: "pos-1", Pool: "Pool", Liquidity: big.NewInt(250)},
		&domain.StakeRecord{PositionMint: "pos-1", IncentiveKey: "inc-1", SecondsInsideTotal: 500},
	)
	reader.SetPosition(
		&domain.LiquidityPosition{PositionMint: "pos-2", Pool: "Pool", Liquidity: big.NewInt(750)},
		&domain.StakeRecord{PositionMint: "pos-2", IncentiveKey: "inc-1", SecondsInsideTotal: 2000},
	)

	got, err := eng.GetStakingRewards(context.Background(), []string{"pos-1", "pos-2"}, "inc-1")
	require.NoError(t, err)
	require.Len(t, got.Positions, 2)

	// pos-1: 500s * 4 * 250/1000 = 500 units.
	assert.Equal(t, "pos-1", got.Positions[0].PositionMint)
	assert.Equal(t, int64(500), got.Positions[0].SecondsInside)
	assert.Equal(t, "0.0000005", got.Positions[0].EarnedAmount)

	// pos-2: seconds clamp to the 1000s elapsed; 1000 * 4 * 750/1000 = 3000.
	assert.Equal(t, int64(1000), got.Positions[1].SecondsInside)
	assert.Equal(t, "0.000003", got.Positions[1].EarnedAmount)

	assert.Equal(t, "0.0000035", got.Total)

	// One incentive fetch serves the whole batch.
	assert.Equal(t, int64(1), reader.IncentiveFetches.Load())
}

func TestGetStakingRewards_SharedIncentiveSnapshot(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	now := testNow.Unix()
	reader.SetIncentive(&domain.Incentive{
		Key:                 "inc-1",
		StartTime:           now - 100,
		EndTime:             now + 100,
		RewardRatePerSecond: big.NewInt(1),
		RewardPoolRemaining: tokens(1),
		TotalLiquidity:      big.NewInt(64),
	})

	mints := make([]string, 32)
	for i := range mints {
		mint := "pos-" + string(rune('a'+i))
		mints[i] = mint
		reader.SetPosition(
			&domain.LiquidityPosition{PositionMint: mint, Liquidity: big.NewInt(2)},
			&domain.StakeRecord{PositionMint: mint, IncentiveKey: "inc-1", SecondsInsideTotal: 50},
		)
	}

	got, err := eng.GetStakingRewards(context.Background(), mints, "inc-1")
	require.NoError(t, err)
	require.Len(t, got.Positions, 32)

	// Every position saw the same program snapshot: identical accruals
	// from one underlying fetch.
	for _, pos := range got.Positions {
		assert.Equal(t, got.Positions[0].EarnedAmount, pos.EarnedAmount)
		assert.Equal(t, int64(50), pos.SecondsInside)
	}
	assert.Equal(t, int64(1), reader.IncentiveFetches.Load())
}

func TestGetStakingRewards_EmptyBatch(t *testing.T) {
	eng, _, _, _ := testEngine(t)

	_, err := eng.GetStakingRewards(context.Background(), nil, "inc-1")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindInvalidAmount, engErr.Kind)
}

func TestGetStakingRewards_NotStartedProgram(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	now := testNow.Unix()
	reader.SetIncentive(&domain.Incentive{
		Key:                 "inc-future",
		StartTime:           now + 1000,
		EndTime:             now + 2000,
		RewardRatePerSecond: big.NewInt(4),
		TotalLiquidity:      big.NewInt(1000),
	})
	reader.SetPosition(
		&domain.LiquidityPosition{PositionMint: "pos-1", Liquidity: big.NewInt(250)},
		&domain.StakeRecord{PositionMint: "pos-1", IncentiveKey: "inc-future", SecondsInsideTotal: 500},
	)

	got, err := eng.GetStakingRewards(context.Background(), []string{"pos-1"}, "inc-future")
	require.NoError(t, err)
	assert.Equal(t, "0", got.Positions[0].EarnedAmount)
	assert.Equal(t, "0", got.Total)
}

func TestGetBondingProgress(t *testing.T) {
	eng, reader, _, _ := testEngine(t)

	setClub(reader, "club-1", tokens(875), false)
	got, err := eng.GetBondingProgress(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, "87.50", got)

	// Supply overshoot clamps, never exceeds 100.
	setClub(reader, "club-over", tokens(1500), false)
	got, err = eng.GetBondingProgress(context.Background(), "club-over")
	require.NoError(t, err)
	assert.Equal(t, "100.00", got)

	setClub(reader, "club-done", tokens(10), true)
	got, err = eng.GetBondingProgress(context.Background(), "club-done")
	require.NoError(t, err)
	assert.Equal(t, "100.00", got)
}
