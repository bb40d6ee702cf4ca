package session

import (
	"context"
	"fmt"
	"testing"
)

// countingStore wraps a Store and counts writes, to assert persistence
// happens on every mutation.
type countingStore struct {
	Store
	saves int
}

func (s *countingStore) Save(ctx context.Context, rec *Record) error {
	s.saves++
	return s.Store.Save(ctx, rec)
}

func TestLedgerAccumulatesAndPersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: NewMemoryStore()}
	ledger := NewLedger(store, nil, nil)

	ledger.StartNewSession(ctx)
	ledger.AddLevelScore(ctx, 150)
	ledger.AddLevelScore(ctx, 33)
	ledger.RecordLevelCompleted(ctx, 0)

	if got := ledger.TotalScore(); got != 183 {
		t.Fatalf("total = %d, want 183", got)
	}
	rec := ledger.Snapshot()
	if rec.CurrentLevel != 1 || rec.LevelsCompleted != 1 {
		t.Fatalf("progress = %+v, want level 1", rec)
	}
	if store.saves != 4 {
		t.Fatalf("saves = %d, want 4 (one per mutation)", store.saves)
	}
}

func TestLedgerIgnoresNonPositiveDeltas(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewMemoryStore(), nil, nil)
	ledger.StartNewSession(ctx)

	ledger.AddLevelScore(ctx, 0)
	ledger.AddLevelScore(ctx, -50)
	if got := ledger.TotalScore(); got != 0 {
		t.Fatalf("total = %d, want 0", got)
	}
}

func TestLedgerRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := NewLedger(store, nil, nil)
	first.StartNewSession(ctx)
	first.AddLevelScore(ctx, 200)
	id := first.Snapshot().ID

	second := NewLedger(store, nil, nil)
	second.Restore(ctx)
	if !second.HasActiveSession() {
		t.Fatalf("restored ledger has no session")
	}
	rec := second.Snapshot()
	if rec.ID != id || rec.TotalScore != 200 {
		t.Fatalf("restored = %+v, want id %s with 200 points", rec, id)
	}
}

// corruptTypedStore simulates an unreadable record.
type corruptTypedStore struct {
	Store
	deleted bool
}

func (s *corruptTypedStore) Load(ctx context.Context) (*Record, error) {
	return nil, fmt.Errorf("decode session record: %w", ErrCorruptRecord)
}

func (s *corruptTypedStore) Delete(ctx context.Context) error {
	s.deleted = true
	return s.Store.Delete(ctx)
}

func TestLedgerTreatsCorruptRecordAsNoSession(t *testing.T) {
	ctx := context.Background()
	store := &corruptTypedStore{Store: NewMemoryStore()}
	ledger := NewLedger(store, nil, nil)

	ledger.Restore(ctx)
	if ledger.HasActiveSession() {
		t.Fatalf("corrupt record produced a session")
	}
	if !store.deleted {
		t.Fatalf("corrupt record was not cleared")
	}
}

func TestCompleteSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewMemoryStore(), nil, nil)
	ledger.StartNewSession(ctx)

	completions := 0
	ledger.SetHooks(LedgerHooks{
		SessionCompleted: func(*Record) { completions++ },
	})

	ledger.CompleteSession(ctx)
	ledger.CompleteSession(ctx)
	if completions != 1 {
		t.Fatalf("completion hook fired %d times, want 1", completions)
	}
	if ledger.HasActiveSession() {
		t.Fatalf("session still active after completion")
	}
}

func TestDeleteDropsSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ledger := NewLedger(store, nil, nil)
	ledger.StartNewSession(ctx)

	ledger.Delete(ctx)
	if ledger.HasActiveSession() {
		t.Fatalf("session survived delete")
	}
	if rec, err := store.Load(ctx); err != nil || rec != nil {
		t.Fatalf("store still holds a record: %+v, %v", rec, err)
	}
}
