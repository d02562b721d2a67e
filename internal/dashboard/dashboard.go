// Package dashboard holds the state of a transaction list screen: the
// selected filter, the resulting Loading/Empty/Success/Error stream with
// totals, and the single-step undo of the last delete.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/live"
)

// Service is the part of services.TransactionService the dashboard uses.
type Service interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, t core.Transaction) error
	Watch(ctx context.Context, f core.Filter) *live.Subscription[[]core.Transaction]
	WatchByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction]
}

// stateBuffer bounds how many undelivered states a slow reader can fall
// behind; the oldest is dropped first.
const stateBuffer = 8

type Dashboard struct {
	svc  Service
	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu          sync.Mutex
	filter      core.Filter
	gen         uint64
	cancelWatch context.CancelFunc
	states      chan core.ViewState
	pending     *core.Transaction
	closed      bool
}

// New returns a dashboard showing every transaction.
func New(svc Service) *Dashboard {
	ctx, stop := context.WithCancel(context.Background())
	d := &Dashboard{
		svc:    svc,
		ctx:    ctx,
		stop:   stop,
		states: make(chan core.ViewState, stateBuffer),
	}
	d.SetFilter(core.FilterAll)
	return d
}

// States delivers view states in order. It is closed by Close.
func (d *Dashboard) States() <-chan core.ViewState {
	return d.states
}

func (d *Dashboard) Filter() core.Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// SetFilter drops the current query, emits Loading and then follows the list
// for f. States of the previous filter are never emitted after Loading.
func (d *Dashboard) SetFilter(f core.Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.cancelWatch != nil {
		d.cancelWatch()
	}
	d.gen++
	d.filter = f
	offer(d.states, core.LoadingState(f))

	ctx, cancel := context.WithCancel(d.ctx)
	d.cancelWatch = cancel
	sub := d.svc.Watch(ctx, f)

	d.wg.Add(1)
	go d.follow(d.gen, f, sub)
}

func (d *Dashboard) follow(gen uint64, f core.Filter, sub *live.Subscription[[]core.Transaction]) {
	defer d.wg.Done()
	for snap := range sub.C() {
		if snap.Err != nil {
			slog.Error("Transaction list query failed", "filter", f.String(), "error", snap.Err)
		}
		d.emit(gen, core.ResolveViewState(f, snap.Value, snap.Err))
	}
}

func (d *Dashboard) emit(gen uint64, st core.ViewState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		return
	}
	offer(d.states, st)
}

// Delete removes t and remembers it so Undo can restore it. Only the most
// recent delete is remembered.
func (d *Dashboard) Delete(ctx context.Context, t core.Transaction) error {
	if err := d.svc.Delete(ctx, t); err != nil {
		return err
	}
	d.mu.Lock()
	d.pending = &t
	d.mu.Unlock()
	return nil
}

// Undo re-inserts the last deleted transaction. The restored record gets a
// new id and creation time. It returns core.ErrNothingToUndo when there is
// nothing to restore.
func (d *Dashboard) Undo(ctx context.Context) (core.Transaction, error) {
	d.mu.Lock()
	t := d.pending
	d.pending = nil
	d.mu.Unlock()
	if t == nil {
		return core.Transaction{}, core.ErrNothingToUndo
	}

	restored := *t
	restored.ID = 0
	stored, err := d.svc.Create(ctx, restored)
	if err != nil {
		d.mu.Lock()
		if d.pending == nil {
			d.pending = t
		}
		d.mu.Unlock()
		return core.Transaction{}, err
	}
	return stored, nil
}

// CanUndo reports whether a deleted transaction is waiting to be restored.
func (d *Dashboard) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Detail follows one transaction. The channel starts with Loading, reports
// Empty once the row is gone and is closed when ctx is done or the
// dashboard is closed.
func (d *Dashboard) Detail(ctx context.Context, id int64) <-chan core.DetailState {
	out := make(chan core.DetailState, stateBuffer)
	out <- core.DetailState{Status: core.StatusLoading}

	ctx, cancel := context.WithCancel(ctx)
	stopOnClose := context.AfterFunc(d.ctx, cancel)
	sub := d.svc.WatchByID(ctx, id)

	go func() {
		defer close(out)
		defer stopOnClose()
		defer cancel()
		for snap := range sub.C() {
			offer(out, core.ResolveDetailState(snap.Value, snap.Err))
		}
	}()
	return out
}

// Close stops all queries and closes the States channel.
func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.stop()
	d.wg.Wait()
	close(d.states)
}

// offer sends v, discarding the oldest buffered value when ch is full. Each
// channel has a single sender at a time.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
