package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// ClubStore is an in-memory implementation of storage.ClubStore.
type ClubStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Club // keyed by club_id
}

// NewClubStore creates a new in-memory club store.
func NewClubStore() *ClubStore {
	return &ClubStore{
		data: make(map[string]*domain.Club),
	}
}

// Compile-time interface check.
var _ storage.ClubStore = (*ClubStore)(nil)

// Upsert inserts or replaces a club row keyed by club_id.
func (s *ClubStore) Upsert(_ context.Context, c *domain.Club) error {
	if c == nil || c.ClubID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[c.ClubID] = copyClub(c)
	return nil
}

// GetByID retrieves a club. Returns ErrNotFound if not exists.
func (s *ClubStore) GetByID(_ context.Context, clubID string) (*domain.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[clubID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyClub(c), nil
}

// List retrieves all known clubs ordered by created_at ASC.
func (s *ClubStore) List(_ context.Context) ([]*domain.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Club, 0, len(s.data))
	for _, c := range s.data {
		result = append(result, copyClub(c))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ClubID < result[j].ClubID
	})

	return result, nil
}

// copyClub deep-copies a club so callers cannot mutate stored state.
func copyClub(c *domain.Club) *domain.Club {
	clubCopy := *c
	clubCopy.Supply = copyBig(c.Supply)
	clubCopy.Reserve = copyBig(c.Reserve)
	return &clubCopy
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
