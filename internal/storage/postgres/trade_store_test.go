package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

func testTrade(clubID, sig string, eventIndex int, ts int64) *domain.Trade {
	return &domain.Trade{
		ClubID:      clubID,
		TxSignature: sig,
		EventIndex:  eventIndex,
		IsBuy:       true,
		AmountIn:    big.NewInt(2_500_000),       // 2.50 quote
		AmountOut:   big.NewInt(1_000_000_000),   // 1 token
		Price:       big.NewInt(2_500_000),
		Trader:      "Trader" + sig,
		Timestamp:   ts,
	}
}

func TestTradeStore_InsertAndGetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	first := testTrade("club-1", "Tx1", 0, 1700000001000)
	second := testTrade("club-1", "Tx2", 0, 1700000002000)
	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, first))

	trades, err := store.GetByTimeRange(ctx, "club-1", 1700000000000, 1700000003000)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "Tx1", trades[0].TxSignature)
	assert.Equal(t, "Tx2", trades[1].TxSignature)
	assert.Zero(t, trades[0].AmountIn.Cmp(first.AmountIn))
	assert.Zero(t, trades[0].Price.Cmp(first.Price))
	assert.NotZero(t, trades[0].ID)
	assert.NotZero(t, trades[0].CreatedAt)
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := testTrade("club-1", "Tx1", 0, 1700000001000)
	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, testTrade("club-1", "Tx1", 0, 1700000005000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same signature, different event index is a distinct trade.
	require.NoError(t, store.Insert(ctx, testTrade("club-1", "Tx1", 1, 1700000001000)))
}

func TestTradeStore_VolumeSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	buy := testTrade("club-1", "Tx1", 0, 1700000001000)
	require.NoError(t, store.Insert(ctx, buy))

	sell := testTrade("club-1", "Tx2", 0, 1700000002000)
	sell.IsBuy = false
	sell.AmountIn = big.NewInt(1_000_000_000) // 1 token in
	sell.AmountOut = big.NewInt(2_400_000)    // 2.40 quote out
	require.NoError(t, store.Insert(ctx, sell))

	stale := testTrade("club-1", "Tx0", 0, 1600000000000)
	require.NoError(t, store.Insert(ctx, stale))

	volume, err := store.VolumeSince(ctx, "club-1", 1700000000000)
	require.NoError(t, err)

	// Buy counts amount_in, sell counts amount_out.
	assert.Zero(t, volume.Cmp(big.NewInt(4_900_000)))
}

func TestTradeStore_VolumeSinceEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)

	volume, err := store.VolumeSince(context.Background(), "no-such-club", 0)
	require.NoError(t, err)
	assert.Zero(t, volume.Sign())
}

func TestTradeStore_LastPriceAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	early := testTrade("club-1", "Tx1", 0, 1700000001000)
	early.Price = big.NewInt(2_000_000)
	require.NoError(t, store.Insert(ctx, early))

	late := testTrade("club-1", "Tx2", 0, 1700000005000)
	late.Price = big.NewInt(3_000_000)
	require.NoError(t, store.Insert(ctx, late))

	// At a time between the two trades, the early price wins.
	price, err := store.LastPriceAt(ctx, "club-1", 1700000003000)
	require.NoError(t, err)
	assert.Zero(t, price.Cmp(big.NewInt(2_000_000)))

	// At or after the late trade, the late price wins.
	price, err = store.LastPriceAt(ctx, "club-1", 1700000005000)
	require.NoError(t, err)
	assert.Zero(t, price.Cmp(big.NewInt(3_000_000)))

	// Before any trade there is no price.
	_, err = store.LastPriceAt(ctx, "club-1", 1600000000000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
