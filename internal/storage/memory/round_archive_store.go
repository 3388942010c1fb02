package memory

import (
	"context"
	"sort"
	"sync"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// RoundArchiveStore is an in-memory implementation of
// storage.RoundArchiveStore.
type RoundArchiveStore struct {
	mu   sync.RWMutex
	data []*domain.RoundRecord
}

// NewRoundArchiveStore creates a new in-memory round archive.
func NewRoundArchiveStore() *RoundArchiveStore {
	return &RoundArchiveStore{}
}

// Compile-time interface check.
var _ storage.RoundArchiveStore = (*RoundArchiveStore)(nil)

// InsertBulk appends a batch of rounds.
func (s *RoundArchiveStore) InsertBulk(_ context.Context, rounds []*domain.RoundRecord) error {
	if len(rounds) == 0 {
		return nil
	}
	for _, r := range rounds {
		if r == nil || r.RoundID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rounds {
		cp := *r
		s.data = append(s.data, &cp)
	}
	return nil
}

// GetBySessionID retrieves archived rounds of a session, ordered by
// round_index ASC.
func (s *RoundArchiveStore) GetBySessionID(_ context.Context, sessionID string) ([]*domain.RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RoundRecord
	for _, r := range s.data {
		if r.SessionID == sessionID {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RoundIndex < out[j].RoundIndex
	})
	return out, nil
}
