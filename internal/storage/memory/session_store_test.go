package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

func testSession(id string, startedAt time.Time) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:       id,
		StartingBalance: 100000,
		Status:          domain.StatusRunning,
		StartedAt:       startedAt,
	}
}

func TestSessionStore_InsertAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	rec := testSession("session-1", time.Now())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "session-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StartingBalance != 100000 || got.Status != domain.StatusRunning {
		t.Errorf("retrieved %+v", got)
	}
}

func TestSessionStore_DuplicateKey(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	rec := testSession("session-1", time.Now())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, rec)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSessionStore_Finish(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	rec := testSession("session-1", time.Now())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	finishedAt := time.Now()
	rec.Status = domain.StatusStopped
	rec.StopReason = domain.StopReasonStopLoss
	rec.FinalBalance = 48000
	rec.FinishedAt = &finishedAt
	rec.TotalRounds = 12
	rec.TotalWins = 4
	rec.TotalLosses = 8

	if err := store.Finish(ctx, rec); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, err := store.GetByID(ctx, "session-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusStopped || got.StopReason != domain.StopReasonStopLoss {
		t.Errorf("terminal state not recorded: %+v", got)
	}
	if got.FinalBalance != 48000 || got.TotalRounds != 12 || got.FinishedAt == nil {
		t.Errorf("final statistics not recorded: %+v", got)
	}
}

func TestSessionStore_FinishUnknown(t *testing.T) {
	store := NewSessionStore()

	err := store.Finish(context.Background(), testSession("ghost", time.Now()))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_ListRecent(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, testSession(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	got, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 || got[0].SessionID != "c" || got[1].SessionID != "b" {
		t.Errorf("ListRecent order wrong: %v, %v", got[0].SessionID, got[1].SessionID)
	}
}
