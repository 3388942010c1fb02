package memory

import (
	"context"
	"sort"
	"sync"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// RoundStore is an in-memory implementation of storage.RoundStore.
type RoundStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RoundRecord // keyed by round_id
}

// NewRoundStore creates a new in-memory round store.
func NewRoundStore() *RoundStore {
	return &RoundStore{
		data: make(map[string]*domain.RoundRecord),
	}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
func (s *RoundStore) Insert(_ context.Context, r *domain.RoundRecord) error {
	if r == nil || r.RoundID == "" || r.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RoundID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *r
	s.data[r.RoundID] = &cp
	return nil
}

// GetBySessionID retrieves all rounds of a session, ordered by round_index ASC.
func (s *RoundStore) GetBySessionID(_ context.Context, sessionID string) ([]*domain.RoundRecord, error) {
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

// GetByTimeRange retrieves rounds of a session within [start, end] inclusive.
func (s *RoundStore) GetByTimeRange(_ context.Context, sessionID string, start, end int64) ([]*domain.RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RoundRecord
	for _, r := range s.data {
		if r.SessionID == sessionID && r.TimestampMs >= start && r.TimestampMs <= end {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RoundIndex < out[j].RoundIndex
	})
	return out, nil
}
