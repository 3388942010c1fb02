package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

func createTestRound(roundID, sessionID string, index int, ts int64) *domain.RoundRecord {
	return &domain.RoundRecord{
		RoundID:           roundID,
		SessionID:         sessionID,
		RoundIndex:        index,
		BetAmount:         1000,
		Result:            domain.ResultWin,
		BalanceBefore:     100000,
		BalanceAfter:      101000,
		ConsecutiveLosses: 0,
		TimestampMs:       ts,
	}
}

// insertTestSession satisfies the foreign-key-free schema but keeps rounds
// attached to a real session row for realistic reads.
func insertTestSession(t *testing.T, ctx context.Context, pool *Pool, sessionID string) {
	t.Helper()

	store := NewSessionStore(pool)
	require.NoError(t, store.Insert(ctx, createTestSession(sessionID, time.Now().UTC())))
}

func TestRoundStore_InsertAndGetBySessionID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestSession(t, ctx, pool, "session-001")

	store := NewRoundStore(pool)

	// Insert out of order to exercise ordering.
	for _, r := range []*domain.RoundRecord{
		createTestRound("round-2", "session-001", 2, 3000),
		createTestRound("round-0", "session-001", 0, 1000),
		createTestRound("round-1", "session-001", 1, 2000),
	} {
		require.NoError(t, store.Insert(ctx, r))
	}

	rounds, err := store.GetBySessionID(ctx, "session-001")
	require.NoError(t, err)

	require.Len(t, rounds, 3)
	for i, r := range rounds {
		assert.Equal(t, i, r.RoundIndex)
		assert.Equal(t, "session-001", r.SessionID)
	}

	first := rounds[0]
	assert.Equal(t, "round-0", first.RoundID)
	assert.InDelta(t, 1000, first.BetAmount, 0.0001)
	assert.Equal(t, domain.ResultWin, first.Result)
	assert.InDelta(t, 100000, first.BalanceBefore, 0.0001)
	assert.InDelta(t, 101000, first.BalanceAfter, 0.0001)
	assert.Equal(t, int64(1000), first.TimestampMs)
}

func TestRoundStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	r := createTestRound("round-0", "session-001", 0, 1000)
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRoundStore_DuplicateIndex(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRound("round-a", "session-001", 0, 1000)))

	// Same (session_id, round_index) under a different round_id.
	err := store.Insert(ctx, createTestRound("round-b", "session-001", 0, 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRoundStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	for i := 0; i < 5; i++ {
		r := createTestRound(fmt.Sprintf("round-%d", i), "session-001", i, int64(1000*(i+1)))
		require.NoError(t, store.Insert(ctx, r))
	}

	rounds, err := store.GetByTimeRange(ctx, "session-001", 2000, 4000)
	require.NoError(t, err)

	require.Len(t, rounds, 3)
	assert.Equal(t, int64(2000), rounds[0].TimestampMs)
	assert.Equal(t, int64(4000), rounds[2].TimestampMs)
}

func TestRoundStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.RoundRecord{RoundID: "r"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.RoundRecord{SessionID: "s"}), storage.ErrInvalidInput)
}
