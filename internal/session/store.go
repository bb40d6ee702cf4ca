package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Record is the flat persisted session shape. One record exists under one
// well-known key; there is no versioning or migration.
type Record struct {
	ID              string    `json:"id"`
	TotalScore      int       `json:"totalScore"`
	CurrentLevel    int       `json:"currentLevel"`
	LevelsCompleted int       `json:"levelsCompleted"`
	StartedAt       time.Time `json:"startedAt"`
	Active          bool      `json:"isActive"`
}

// Clone returns a copy safe to hand to observers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

// ErrCorruptRecord marks a persisted record that failed to parse. Callers
// treat it as "no session".
var ErrCorruptRecord = errors.New("corrupt session record")

// Store persists the single session record.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	// Load returns (nil, nil) when no record exists.
	Load(ctx context.Context) (*Record, error)
	Delete(ctx context.Context) error
	Close() error
}

// MemoryStore keeps the record in memory; used in tests and as the fallback
// when the on-disk store cannot be opened.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec.Clone()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
