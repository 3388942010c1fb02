package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
func (s *SessionStore) Insert(ctx context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sessions (
			session_id, starting_balance, final_balance, status, stop_reason,
			started_at, finished_at, total_rounds, total_wins, total_losses
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.SessionID, rec.StartingBalance, rec.FinalBalance, string(rec.Status), rec.StopReason,
		rec.StartedAt, rec.FinishedAt, rec.TotalRounds, rec.TotalWins, rec.TotalLosses,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Finish records the terminal state of a session. Returns ErrNotFound if the
// session was never inserted.
func (s *SessionStore) Finish(ctx context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE sessions SET
			final_balance = $2,
			status = $3,
			stop_reason = $4,
			finished_at = $5,
			total_rounds = $6,
			total_wins = $7,
			total_losses = $8
		WHERE session_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		rec.SessionID, rec.FinalBalance, string(rec.Status), rec.StopReason,
		rec.FinishedAt, rec.TotalRounds, rec.TotalWins, rec.TotalLosses,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT
			session_id, starting_balance, final_balance, status, stop_reason,
			started_at, finished_at, total_rounds, total_wins, total_losses
		FROM sessions
		WHERE session_id = $1
	`

	row := s.pool.QueryRow(ctx, query, sessionID)
	rec, err := scanSession(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return rec, nil
}

// ListRecent retrieves up to limit sessions, newest first.
func (s *SessionStore) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	query := `
		SELECT
			session_id, starting_balance, final_balance, status, stop_reason,
			started_at, finished_at, total_rounds, total_wins, total_losses
		FROM sessions
		ORDER BY started_at DESC, session_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// scanSession scans a single row into a SessionRecord.
func scanSession(row pgx.Row) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	var status string

	err := row.Scan(
		&rec.SessionID, &rec.StartingBalance, &rec.FinalBalance, &status, &rec.StopReason,
		&rec.StartedAt, &rec.FinishedAt, &rec.TotalRounds, &rec.TotalWins, &rec.TotalLosses,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.SessionStatus(status)
	return &rec, nil
}

// scanSessions scans multiple rows into a slice of SessionRecord.
func scanSessions(rows pgx.Rows) ([]*domain.SessionRecord, error) {
	var sessions []*domain.SessionRecord

	for rows.Next() {
		var rec domain.SessionRecord
		var status string

		err := rows.Scan(
			&rec.SessionID, &rec.StartingBalance, &rec.FinalBalance, &status, &rec.StopReason,
			&rec.StartedAt, &rec.FinishedAt, &rec.TotalRounds, &rec.TotalWins, &rec.TotalLosses,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		rec.Status = domain.SessionStatus(status)
		sessions = append(sessions, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}
