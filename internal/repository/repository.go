// Package repository is the access contract over a transaction store. Every
// call is forwarded unchanged except filter resolution.
package repository

import (
	"context"

	"expensetracker/internal/core"
	"expensetracker/internal/live"
)

// Store is durable keyed storage for transactions with live queries.
type Store interface {
	Upsert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// Update, Delete and DeleteByID report whether a row was changed. A
	// missing id yields false and no error.
	Update(ctx context.Context, t core.Transaction) (bool, error)
	Delete(ctx context.Context, t core.Transaction) (bool, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)

	ListAll(ctx context.Context) ([]core.Transaction, error)
	ListByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)

	WatchAll(ctx context.Context) *live.Subscription[[]core.Transaction]
	WatchByType(ctx context.Context, typ core.TransactionType) *live.Subscription[[]core.Transaction]
	WatchByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction]

	Close() error
}

type TransactionRepo struct {
	store Store
}

func NewTransactionRepo(store Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

func (r *TransactionRepo) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.store.Upsert(ctx, t)
}

func (r *TransactionRepo) Update(ctx context.Context, t core.Transaction) (bool, error) {
	return r.store.Update(ctx, t)
}

func (r *TransactionRepo) Delete(ctx context.Context, t core.Transaction) (bool, error) {
	return r.store.Delete(ctx, t)
}

func (r *TransactionRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return r.store.DeleteByID(ctx, id)
}

// GetFiltered returns a live listing: every transaction for FilterAll, and
// only the matching type otherwise.
func (r *TransactionRepo) GetFiltered(ctx context.Context, f core.Filter) *live.Subscription[[]core.Transaction] {
	if typ, ok := f.Type(); ok {
		return r.store.WatchByType(ctx, typ)
	}
	return r.store.WatchAll(ctx)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction] {
	return r.store.WatchByID(ctx, id)
}

// List is the one-shot form of GetFiltered.
func (r *TransactionRepo) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	if typ, ok := f.Type(); ok {
		return r.store.ListByType(ctx, typ)
	}
	return r.store.ListAll(ctx)
}

// Get returns core.ErrNotFound when the id does not exist.
func (r *TransactionRepo) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return r.store.Get(ctx, id)
}

func (r *TransactionRepo) Close() error {
	return r.store.Close()
}
