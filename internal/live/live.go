// Package live implements live queries: a registry of subscribed queries that
// are re-evaluated after every committed mutation and pushed to subscribers.
package live

import (
	"context"
	"sync"
)

// Snapshot is one evaluation of a watched query.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Notifier holds the active queries of one store.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func()
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[uint64]func())}
}

// Notify re-evaluates every active query. Stores call it after a mutation
// that changed at least one row. Evaluations are serialized so subscribers
// never observe an older state after a newer one.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, refresh := range n.subs {
		refresh()
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Subscription delivers the latest result of a watched query. The channel
// holds at most one pending snapshot; a newer one replaces an unread older
// one.
type Subscription[T any] struct {
	ch        chan Snapshot[T]
	mu        sync.Mutex
	closed    bool
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan Snapshot[T] {
	return s.ch
}

// Close stops further deliveries. Pending mutations are unaffected.
func (s *Subscription[T]) Close() {
	s.cancel()
}

func (s *Subscription[T]) deliver(v Snapshot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

func (s *Subscription[T]) shutdown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// Watch registers query with n, evaluates it once right away and again on
// every Notify until ctx is done or the subscription is closed.
func Watch[T any](ctx context.Context, n *Notifier, query func(context.Context) (T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		ch:     make(chan Snapshot[T], 1),
		cancel: cancel,
	}

	refresh := func() {
		if ctx.Err() != nil {
			return
		}
		v, err := query(ctx)
		if ctx.Err() != nil {
			return
		}
		sub.deliver(Snapshot[T]{Value: v, Err: err})
	}

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = refresh
	refresh()
	n.mu.Unlock()

	context.AfterFunc(ctx, func() {
		n.remove(id)
		sub.shutdown()
	})

	return sub
}
