package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

// RoundArchiveStore implements storage.RoundArchiveStore using ClickHouse.
type RoundArchiveStore struct {
	conn *Conn
}

// NewRoundArchiveStore creates a new RoundArchiveStore.
func NewRoundArchiveStore(conn *Conn) *RoundArchiveStore {
	return &RoundArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RoundArchiveStore = (*RoundArchiveStore)(nil)

// InsertBulk appends a batch of resolved rounds. MergeTree does not enforce
// uniqueness, so callers are expected to archive each round exactly once.
func (s *RoundArchiveStore) InsertBulk(ctx context.Context, rounds []*domain.RoundRecord) error {
	if len(rounds) == 0 {
		return nil
	}
	for _, r := range rounds {
		if r == nil || r.RoundID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO round_archive (
			round_id, session_id, round_index,
			bet_amount, result, balance_before, balance_after,
			consecutive_losses, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rounds {
		err = batch.Append(
			r.RoundID, r.SessionID, uint32(r.RoundIndex),
			r.BetAmount, string(r.Result), r.BalanceBefore, r.BalanceAfter,
			uint32(r.ConsecutiveLosses), uint64(r.TimestampMs),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySessionID retrieves archived rounds of a session, ordered by round_index ASC.
func (s *RoundArchiveStore) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error) {
	query := `
		SELECT round_id, session_id, round_index,
			bet_amount, result, balance_before, balance_after,
			consecutive_losses, timestamp_ms
		FROM round_archive
		WHERE session_id = ?
		ORDER BY round_index ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session id: %w", err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

// scanRounds scans multiple rows into a slice of RoundRecord.
func scanRounds(rows driver.Rows) ([]*domain.RoundRecord, error) {
	var rounds []*domain.RoundRecord

	for rows.Next() {
		var (
			r           domain.RoundRecord
			roundIndex  uint32
			result      string
			lossStreak  uint32
			timestampMs uint64
		)

		err := rows.Scan(
			&r.RoundID, &r.SessionID, &roundIndex,
			&r.BetAmount, &result, &r.BalanceBefore, &r.BalanceAfter,
			&lossStreak, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}

		r.RoundIndex = int(roundIndex)
		r.Result = domain.RoundResult(result)
		r.ConsecutiveLosses = int(lossStreak)
		r.TimestampMs = int64(timestampMs)
		rounds = append(rounds, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}

	return rounds, nil
}
