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

func testClub(id string, createdAt int64) *domain.Club {
	return &domain.Club{
		ClubID:    id,
		Creator:   "Creator" + id,
		Supply:    big.NewInt(500_000_000_000), // 500 tokens
		Reserve:   big.NewInt(1_250_000_000),   // 1250 quote
		Holders:   42,
		Completed: false,
		CreatedAt: createdAt,
	}
}

func TestClubStore_UpsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewClubStore(pool)

	club := testClub("club-1", 1700000000000)
	require.NoError(t, store.Upsert(ctx, club))

	got, err := store.GetByID(ctx, "club-1")
	require.NoError(t, err)

	assert.Equal(t, club.ClubID, got.ClubID)
	assert.Equal(t, club.Creator, got.Creator)
	assert.Zero(t, club.Supply.Cmp(got.Supply))
	assert.Zero(t, club.Reserve.Cmp(got.Reserve))
	assert.Equal(t, club.Holders, got.Holders)
	assert.Equal(t, club.Completed, got.Completed)
	assert.Equal(t, club.CreatedAt, got.CreatedAt)
}

func TestClubStore_UpsertReplacesState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewClubStore(pool)

	club := testClub("club-2", 1700000000000)
	require.NoError(t, store.Upsert(ctx, club))

	club.Supply = big.NewInt(750_000_000_000)
	club.Holders = 77
	club.Completed = true
	require.NoError(t, store.Upsert(ctx, club))

	got, err := store.GetByID(ctx, "club-2")
	require.NoError(t, err)

	assert.Zero(t, got.Supply.Cmp(big.NewInt(750_000_000_000)))
	assert.Equal(t, 77, got.Holders)
	assert.True(t, got.Completed)
}

func TestClubStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClubStore(pool)

	_, err := store.GetByID(context.Background(), "no-such-club")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClubStore_ListOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewClubStore(pool)

	require.NoError(t, store.Upsert(ctx, testClub("club-b", 1700000002000)))
	require.NoError(t, store.Upsert(ctx, testClub("club-a", 1700000001000)))

	clubs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 2)

	assert.Equal(t, "club-a", clubs[0].ClubID)
	assert.Equal(t, "club-b", clubs[1].ClubID)
}

func TestClubStore_UpsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClubStore(pool)

	err := store.Upsert(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Upsert(context.Background(), &domain.Club{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
