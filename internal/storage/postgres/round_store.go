package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// RoundStore implements storage.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *Pool
}

// NewRoundStore creates a new RoundStore.
func NewRoundStore(pool *Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
func (s *RoundStore) Insert(ctx context.Context, r *domain.RoundRecord) error {
	if r == nil || r.RoundID == "" || r.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rounds (
			round_id, session_id, round_index,
			bet_amount, result, balance_before, balance_after,
			consecutive_losses, timestamp_ms
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RoundID, r.SessionID, r.RoundIndex,
		r.BetAmount, string(r.Result), r.BalanceBefore, r.BalanceAfter,
		r.ConsecutiveLosses, r.TimestampMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// GetBySessionID retrieves all rounds of a session, ordered by round_index ASC.
func (s *RoundStore) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error) {
	query := `
		SELECT
			round_id, session_id, round_index,
			bet_amount, result, balance_before, balance_after,
			consecutive_losses, timestamp_ms
		FROM rounds
		WHERE session_id = $1
		ORDER BY round_index ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get rounds by session id: %w", err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

// GetByTimeRange retrieves rounds of a session within [start, end] inclusive,
// ordered by round_index ASC.
func (s *RoundStore) GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.RoundRecord, error) {
	query := `
		SELECT
			round_id, session_id, round_index,
			bet_amount, result, balance_before, balance_after,
			consecutive_losses, timestamp_ms
		FROM rounds
		WHERE session_id = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY round_index ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get rounds by time range: %w", err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

// scanRounds scans multiple rows into a slice of RoundRecord.
func scanRounds(rows pgx.Rows) ([]*domain.RoundRecord, error) {
	var rounds []*domain.RoundRecord

	for rows.Next() {
		var r domain.RoundRecord
		var result string

		err := rows.Scan(
			&r.RoundID, &r.SessionID, &r.RoundIndex,
			&r.BetAmount, &result, &r.BalanceBefore, &r.BalanceAfter,
			&r.ConsecutiveLosses, &r.TimestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}

		r.Result = domain.RoundResult(result)
		rounds = append(rounds, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}

	return rounds, nil
}
