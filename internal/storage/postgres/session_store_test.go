package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

func createTestSession(sessionID string, startedAt time.Time) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:       sessionID,
		StartingBalance: 100000,
		Status:          domain.StatusRunning,
		StartedAt:       startedAt,
	}
}

func TestSessionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	startedAt := time.Now().UTC().Truncate(time.Microsecond)
	rec := createTestSession("session-001", startedAt)

	err := store.Insert(ctx, rec)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "session-001")
	require.NoError(t, err)

	assert.Equal(t, rec.SessionID, retrieved.SessionID)
	assert.InDelta(t, rec.StartingBalance, retrieved.StartingBalance, 0.0001)
	assert.Equal(t, domain.StatusRunning, retrieved.Status)
	assert.Empty(t, retrieved.StopReason)
	assert.True(t, startedAt.Equal(retrieved.StartedAt))
	assert.Nil(t, retrieved.FinishedAt)
}

func TestSessionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	rec := createTestSession("session-001", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, rec))

	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSessionStore_Finish(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	rec := createTestSession("session-001", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, rec))

	rec.Status = domain.StatusStopped
	rec.StopReason = domain.StopReasonProfitTarget
	rec.FinalBalance = 150000
	rec.FinishedAt = ptr(time.Now().UTC().Truncate(time.Microsecond))
	rec.TotalRounds = 42
	rec.TotalWins = 25
	rec.TotalLosses = 17

	require.NoError(t, store.Finish(ctx, rec))

	retrieved, err := store.GetByID(ctx, "session-001")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusStopped, retrieved.Status)
	assert.Equal(t, domain.StopReasonProfitTarget, retrieved.StopReason)
	assert.InDelta(t, 150000, retrieved.FinalBalance, 0.0001)
	require.NotNil(t, retrieved.FinishedAt)
	assert.True(t, rec.FinishedAt.Equal(*retrieved.FinishedAt))
	assert.Equal(t, 42, retrieved.TotalRounds)
	assert.Equal(t, 25, retrieved.TotalWins)
	assert.Equal(t, 17, retrieved.TotalLosses)
}

func TestSessionStore_FinishNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	err := store.Finish(ctx, createTestSession("missing", time.Now().UTC()))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionStore_ListRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"session-a", "session-b", "session-c"} {
		rec := createTestSession(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Insert(ctx, rec))
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)

	require.Len(t, recent, 2)
	assert.Equal(t, "session-c", recent[0].SessionID)
	assert.Equal(t, "session-b", recent[1].SessionID)
}

func TestSessionStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.SessionRecord{}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Finish(ctx, nil), storage.ErrInvalidInput)
}
