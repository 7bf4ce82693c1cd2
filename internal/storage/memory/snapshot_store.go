package memory

import (
	"context"
	"sync"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceSnapshot // keyed by club_id, append order
	keys map[snapshotKey]struct{}
}

type snapshotKey struct {
	clubID     string
	window     domain.SnapshotWindow
	capturedAt int64
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.PriceSnapshot),
		keys: make(map[snapshotKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshot rows. Fails the entire batch on duplicate
// (club_id, window, captured_at).
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[snapshotKey]struct{})
	for _, snap := range snapshots {
		if snap == nil || snap.ClubID == "" || !snap.Window.Valid() || snap.Price == nil {
			return storage.ErrInvalidInput
		}
		k := snapshotKey{snap.ClubID, snap.Window, snap.CapturedAt}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := s.keys[k]; dup {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		snapCopy.Price = copyBig(snap.Price)
		s.data[snap.ClubID] = append(s.data[snap.ClubID], &snapCopy)
		s.keys[snapshotKey{snap.ClubID, snap.Window, snap.CapturedAt}] = struct{}{}
	}
	return nil
}

// Latest retrieves the most recent snapshot per canonical window for a
// club. Windows never captured are absent from the result.
func (s *SnapshotStore) Latest(_ context.Context, clubID string) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[domain.SnapshotWindow]*domain.PriceSnapshot)
	for _, snap := range s.data[clubID] {
		cur, ok := latest[snap.Window]
		if !ok || snap.CapturedAt > cur.CapturedAt {
			latest[snap.Window] = snap
		}
	}

	var result []*domain.PriceSnapshot
	for _, w := range domain.CanonicalWindows {
		snap, ok := latest[w]
		if !ok {
			continue
		}
		snapCopy := *snap
		snapCopy.Price = copyBig(snap.Price)
		result = append(result, &snapCopy)
	}
	return result, nil
}
