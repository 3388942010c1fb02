// Package storage defines persistence contracts for sessions and rounds.
package storage

import (
	"context"

	"coinflip-pilot/internal/domain"
)

// SessionStore provides access to session storage.
type SessionStore interface {
	// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
	Insert(ctx context.Context, s *domain.SessionRecord) error

	// Finish records the terminal state of a session: status, stop reason,
	// final balance and totals. Returns ErrNotFound if not exists.
	Finish(ctx context.Context, s *domain.SessionRecord) error

	// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// ListRecent retrieves up to limit sessions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error)
}

// RoundStore provides access to resolved-round storage.
type RoundStore interface {
	// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
	Insert(ctx context.Context, r *domain.RoundRecord) error

	// GetBySessionID retrieves all rounds of a session, ordered by
	// round_index ASC.
	GetBySessionID(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error)

	// GetByTimeRange retrieves rounds of a session within [start, end]
	// (inclusive, milliseconds), ordered by round_index ASC.
	GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.RoundRecord, error)
}

// RoundArchiveStore is the append-only analytics archive of resolved rounds,
// batched for cross-session analysis.
type RoundArchiveStore interface {
	// InsertBulk appends a batch of rounds.
	InsertBulk(ctx context.Context, rounds []*domain.RoundRecord) error

	// GetBySessionID retrieves archived rounds of a session, ordered by
	// round_index ASC.
	GetBySessionID(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error)
}
