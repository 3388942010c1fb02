// Package memory provides in-memory storage implementations for tests and
// the simulator.
package memory

import (
	"context"
	"sort"
	"sync"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SessionRecord // keyed by session_id
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*domain.SessionRecord),
	}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
func (s *SessionStore) Insert(_ context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.SessionID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *rec
	s.data[rec.SessionID] = &cp
	return nil
}

// Finish records the terminal state of a session.
func (s *SessionStore) Finish(_ context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.data[rec.SessionID]
	if !exists {
		return storage.ErrNotFound
	}

	stored.Status = rec.Status
	stored.StopReason = rec.StopReason
	stored.FinalBalance = rec.FinalBalance
	stored.FinishedAt = rec.FinishedAt
	stored.TotalRounds = rec.TotalRounds
	stored.TotalWins = rec.TotalWins
	stored.TotalLosses = rec.TotalLosses
	return nil
}

// GetByID retrieves a session by its ID.
func (s *SessionStore) GetByID(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[sessionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *rec
	return &cp, nil
}

// ListRecent retrieves up to limit sessions, newest first.
func (s *SessionStore) ListRecent(_ context.Context, limit int) ([]*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.SessionRecord, 0, len(s.data))
	for _, rec := range s.data {
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
