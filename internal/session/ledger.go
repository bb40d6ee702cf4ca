package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"short-order/server/internal/telemetry"
	"short-order/server/logging"
	"short-order/server/logging/sessions"
)

// LedgerHooks observe session mutations. Nil hooks are skipped.
type LedgerHooks struct {
	TotalScoreChanged func(total int)
	SessionCompleted  func(rec *Record)
}

// Ledger is the cross-level accumulator of score and progress. The in-memory
// record is authoritative; persistence is best-effort after every mutation.
type Ledger struct {
	store     Store
	logger    telemetry.Logger
	publisher logging.Publisher
	hooks     LedgerHooks
	rec       *Record
}

func NewLedger(store Store, logger telemetry.Logger, publisher logging.Publisher) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Ledger{
		store:     store,
		logger:    logger,
		publisher: publisher,
	}
}

// SetHooks installs the mutation observers.
func (l *Ledger) SetHooks(hooks LedgerHooks) {
	if l == nil {
		return
	}
	l.hooks = hooks
}

// Restore loads the persisted record. A corrupt or unreadable record is
// treated as "no session": logged, never fatal.
func (l *Ledger) Restore(ctx context.Context) {
	if l == nil {
		return
	}
	rec, err := l.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrCorruptRecord) {
			l.printf("discarding corrupt session record: %v", err)
			if derr := l.store.Delete(ctx); derr != nil {
				l.printf("failed to delete corrupt session record: %v", derr)
			}
		} else {
			l.printf("failed to load session record: %v", err)
		}
		l.rec = nil
		return
	}
	l.rec = rec
}

// StartNewSession resets all session fields and persists immediately.
func (l *Ledger) StartNewSession(ctx context.Context) *Record {
	if l == nil {
		return nil
	}
	l.rec = &Record{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Active:    true,
	}
	l.persist(ctx, "start")
	sessions.Started(ctx, l.publisher, l.ref())
	return l.rec.Clone()
}

// AddLevelScore folds a level-score delta into the running total, persists,
// and notifies observers. The total never decreases.
func (l *Ledger) AddLevelScore(ctx context.Context, delta int) {
	if l == nil || l.rec == nil || delta == 0 {
		return
	}
	if delta < 0 {
		return
	}
	l.rec.TotalScore += delta
	l.persist(ctx, "add_score")
	sessions.ScoreAdded(ctx, l.publisher, l.ref(), sessions.ScorePayload{Delta: delta, Total: l.rec.TotalScore})
	if l.hooks.TotalScoreChanged != nil {
		l.hooks.TotalScoreChanged(l.rec.TotalScore)
	}
}

// RecordLevelCompleted advances the level counters and persists.
func (l *Ledger) RecordLevelCompleted(ctx context.Context, levelIndex int) {
	if l == nil || l.rec == nil {
		return
	}
	l.rec.CurrentLevel = levelIndex + 1
	l.rec.LevelsCompleted = levelIndex + 1
	l.persist(ctx, "level_completed")
	sessions.LevelRecorded(ctx, l.publisher, l.ref(), sessions.LevelPayload{
		CurrentLevel:    l.rec.CurrentLevel,
		LevelsCompleted: l.rec.LevelsCompleted,
	})
}

// CompleteSession marks the session inactive and persists.
func (l *Ledger) CompleteSession(ctx context.Context) {
	if l == nil || l.rec == nil || !l.rec.Active {
		return
	}
	l.rec.Active = false
	l.persist(ctx, "complete")
	sessions.Completed(ctx, l.publisher, l.ref())
	if l.hooks.SessionCompleted != nil {
		l.hooks.SessionCompleted(l.rec.Clone())
	}
}

// HasActiveSession reports whether a live session exists.
func (l *Ledger) HasActiveSession() bool {
	return l != nil && l.rec != nil && l.rec.Active
}

// Snapshot returns a copy of the current record, or nil.
func (l *Ledger) Snapshot() *Record {
	if l == nil {
		return nil
	}
	return l.rec.Clone()
}

// TotalScore reports the accumulated score, 0 without a session.
func (l *Ledger) TotalScore() int {
	if l == nil || l.rec == nil {
		return 0
	}
	return l.rec.TotalScore
}

// Delete drops the persisted record and the in-memory session.
func (l *Ledger) Delete(ctx context.Context) {
	if l == nil {
		return
	}
	l.rec = nil
	if err := l.store.Delete(ctx); err != nil {
		l.printf("failed to delete session record: %v", err)
	}
}

// Persist flushes the current record, used on app suspend.
func (l *Ledger) Persist(ctx context.Context) {
	if l == nil || l.rec == nil {
		return
	}
	l.persist(ctx, "suspend")
}

func (l *Ledger) persist(ctx context.Context, op string) {
	if err := l.store.Save(ctx, l.rec); err != nil {
		l.printf("session persist (%s) failed: %v", op, err)
		sessions.PersistFailed(ctx, l.publisher, l.ref(), op, err)
	}
}

func (l *Ledger) ref() logging.EntityRef {
	id := ""
	if l.rec != nil {
		id = l.rec.ID
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindSession}
}

func (l *Ledger) printf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}
