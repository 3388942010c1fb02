package memory

import (
	"context"
	"errors"
	"testing"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/storage"
)

func testRound(roundID, sessionID string, index int, ts int64) *domain.RoundRecord {
	return &domain.RoundRecord{
		RoundID:       roundID,
		SessionID:     sessionID,
		RoundIndex:    index,
		BetAmount:     1000,
		Result:        domain.ResultLoss,
		BalanceBefore: 100000,
		BalanceAfter:  99000,
		TimestampMs:   ts,
	}
}

func TestRoundStore_InsertAndGet(t *testing.T) {
	store := NewRoundStore()
	ctx := context.Background()

	// Insert out of order to exercise sorting.
	for _, r := range []*domain.RoundRecord{
		testRound("r2", "s1", 2, 300),
		testRound("r0", "s1", 0, 100),
		testRound("r1", "s1", 1, 200),
		testRound("x0", "other", 0, 100),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RoundID, err)
		}
	}

	got, err := store.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rounds, got %d", len(got))
	}
	for i, r := range got {
		if r.RoundIndex != i {
			t.Errorf("Round %d has index %d", i, r.RoundIndex)
		}
	}
}

func TestRoundStore_DuplicateKey(t *testing.T) {
	store := NewRoundStore()
	ctx := context.Background()

	r := testRound("r0", "s1", 0, 100)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, r)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRoundStore_InvalidInput(t *testing.T) {
	store := NewRoundStore()
	ctx := context.Background()

	for _, r := range []*domain.RoundRecord{
		nil,
		{SessionID: "s1"},
		{RoundID: "r0"},
	} {
		if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", r, err)
		}
	}
}

func TestRoundStore_GetByTimeRange(t *testing.T) {
	store := NewRoundStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r := testRound(string(rune('a'+i)), "s1", i, int64(100*(i+1)))
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, "s1", 200, 400)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rounds in range, got %d", len(got))
	}
	if got[0].TimestampMs != 200 || got[2].TimestampMs != 400 {
		t.Errorf("Range bounds not inclusive: first=%d last=%d", got[0].TimestampMs, got[2].TimestampMs)
	}
}

func TestRoundStore_CopyOnRead(t *testing.T) {
	store := NewRoundStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRound("r0", "s1", 0, 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	got[0].BetAmount = 999999

	again, err := store.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if again[0].BetAmount != 1000 {
		t.Errorf("Caller mutation leaked into store: %v", again[0].BetAmount)
	}
}
