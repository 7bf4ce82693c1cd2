package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

func TestSnapshotStore_InsertBulkAndLatest(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	err := store.InsertBulk(ctx, []*domain.PriceSnapshot{
		{ClubID: "club-1", Window: domain.Window24h, Price: big.NewInt(2_000_000), CapturedAt: 1000},
		{ClubID: "club-1", Window: domain.Window1h, Price: big.NewInt(2_400_000), CapturedAt: 1000},
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.PriceSnapshot{
		{ClubID: "club-1", Window: domain.Window24h, Price: big.NewInt(2_100_000), CapturedAt: 2000},
	})
	require.NoError(t, err)

	snaps, err := store.Latest(ctx, "club-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	byWindow := make(map[domain.SnapshotWindow]*domain.PriceSnapshot)
	for _, snap := range snaps {
		byWindow[snap.Window] = snap
	}
	assert.Zero(t, byWindow[domain.Window24h].Price.Cmp(big.NewInt(2_100_000)))
	assert.Zero(t, byWindow[domain.Window1h].Price.Cmp(big.NewInt(2_400_000)))
}

func TestSnapshotStore_InsertBulkDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	snap := &domain.PriceSnapshot{
		ClubID: "club-1", Window: domain.Window5m,
		Price: big.NewInt(1_500_000), CapturedAt: 1000,
	}
	require.NoError(t, store.InsertBulk(ctx, []*domain.PriceSnapshot{snap}))

	err := store.InsertBulk(ctx, []*domain.PriceSnapshot{snap})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnapshotStore_InsertBulkRejectsBadWindow(t *testing.T) {
	store := NewSnapshotStore()

	err := store.InsertBulk(context.Background(), []*domain.PriceSnapshot{
		{ClubID: "club-1", Window: "12h", Price: big.NewInt(1), CapturedAt: 1},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSnapshotStore_LatestEmpty(t *testing.T) {
	store := NewSnapshotStore()

	snaps, err := store.Latest(context.Background(), "no-such-club")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestTradeTimeseriesStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewTradeTimeseriesStore()

	err := store.InsertBulk(ctx, []*domain.TradeTimeseriesPoint{
		{ClubID: "club-1", TimestampMs: 2000, Price: big.NewInt(2), Volume: big.NewInt(20), IsBuy: false},
		{ClubID: "club-1", TimestampMs: 1000, Price: big.NewInt(1), Volume: big.NewInt(10), IsBuy: true},
	})
	require.NoError(t, err)

	points, err := store.GetByTimeRange(ctx, "club-1", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1000), points[0].TimestampMs)
	assert.Equal(t, int64(2000), points[1].TimestampMs)
}
