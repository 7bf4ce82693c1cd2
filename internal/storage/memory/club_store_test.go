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

func testClub(id string, createdAt int64) *domain.Club {
	return &domain.Club{
		ClubID:    id,
		Creator:   "Creator" + id,
		Supply:    big.NewInt(500_000_000_000),
		Reserve:   big.NewInt(1_250_000_000),
		Holders:   42,
		CreatedAt: createdAt,
	}
}

func TestClubStore_UpsertAndGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewClubStore()

	club := testClub("club-1", 1700000000000)
	require.NoError(t, store.Upsert(ctx, club))

	got, err := store.GetByID(ctx, "club-1")
	require.NoError(t, err)
	assert.Equal(t, club.ClubID, got.ClubID)
	assert.Zero(t, got.Supply.Cmp(club.Supply))

	// Mutating the returned copy must not touch stored state.
	got.Supply.SetInt64(1)
	again, err := store.GetByID(ctx, "club-1")
	require.NoError(t, err)
	assert.Zero(t, again.Supply.Cmp(big.NewInt(500_000_000_000)))
}

func TestClubStore_UpsertReplacesState(t *testing.T) {
	ctx := context.Background()
	store := NewClubStore()

	club := testClub("club-1", 1700000000000)
	require.NoError(t, store.Upsert(ctx, club))

	club.Completed = true
	club.Holders = 77
	require.NoError(t, store.Upsert(ctx, club))

	got, err := store.GetByID(ctx, "club-1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 77, got.Holders)
}

func TestClubStore_GetByIDNotFound(t *testing.T) {
	store := NewClubStore()

	_, err := store.GetByID(context.Background(), "no-such-club")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClubStore_ListOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewClubStore()

	require.NoError(t, store.Upsert(ctx, testClub("club-b", 1700000002000)))
	require.NoError(t, store.Upsert(ctx, testClub("club-a", 1700000001000)))

	clubs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "club-a", clubs[0].ClubID)
	assert.Equal(t, "club-b", clubs[1].ClubID)
}
