// Package memory is a process-local Transaction store. It keeps the same
// contract as the SQLite store and loses its data when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/live"
	"expensetracker/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	items    map[int64]core.Transaction
	lastID   int64
	now      func() time.Time
	notifier *live.Notifier
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock uses now to stamp CreatedAt on insert.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		items:    make(map[int64]core.Transaction),
		now:      now,
		notifier: live.NewNotifier(),
	}
}

// Upsert stores t under a fresh id when t.ID is zero or unknown, and
// overwrites the existing row otherwise. CreatedAt is never changed by an
// overwrite.
func (s *Store) Upsert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	if existing, ok := s.items[t.ID]; ok && t.ID != 0 {
		t.CreatedAt = existing.CreatedAt
	} else {
		s.lastID++
		t.ID = s.lastID
		t.CreatedAt = s.now().Truncate(time.Millisecond).UTC()
	}
	s.items[t.ID] = t
	s.mu.Unlock()

	s.notifier.Notify()
	return t, nil
}

// Update overwrites an existing row; a missing id is a silent no-op.
func (s *Store) Update(_ context.Context, t core.Transaction) (bool, error) {
	s.mu.Lock()
	existing, ok := s.items[t.ID]
	if ok {
		t.CreatedAt = existing.CreatedAt
		s.items[t.ID] = t
	}
	s.mu.Unlock()

	if ok {
		s.notifier.Notify()
	}
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, t core.Transaction) (bool, error) {
	return s.DeleteByID(ctx, t.ID)
}

func (s *Store) DeleteByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if ok {
		s.notifier.Notify()
	}
	return ok, nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	return s.list(func(core.Transaction) bool { return true }), nil
}

// ListByType matches the stored type exactly.
func (s *Store) ListByType(_ context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	return s.list(func(t core.Transaction) bool { return t.Type == typ }), nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) WatchAll(ctx context.Context) *live.Subscription[[]core.Transaction] {
	return live.Watch(ctx, s.notifier, s.ListAll)
}

func (s *Store) WatchByType(ctx context.Context, typ core.TransactionType) *live.Subscription[[]core.Transaction] {
	return live.Watch(ctx, s.notifier, func(ctx context.Context) ([]core.Transaction, error) {
		return s.ListByType(ctx, typ)
	})
}

func (s *Store) WatchByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction] {
	return live.Watch(ctx, s.notifier, func(ctx context.Context) (*core.Transaction, error) {
		t, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil
		}
		return &t, nil
	})
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) list(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.RLock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

var _ repository.Store = (*Store)(nil)
