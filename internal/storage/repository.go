package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/live"
	"expensetracker/internal/repository"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db       *sql.DB
	queries  *Queries
	notifier *live.Notifier
	now      func() time.Time
}

// Option customizes a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithClock replaces the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) {
		r.now = now
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes statements; each statement is atomic on its own.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:       db,
		queries:  New(db),
		notifier: live.NewNotifier(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Upsert inserts t when its id is zero and overwrites the matching row
// otherwise. An id that matches no row is treated as a new record: the store
// assigns a fresh id, since ids are never caller-chosen or reused.
func (r *SQLiteRepository) Upsert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID != 0 {
		n, err := r.queries.UpdateTransaction(ctx, updateParams(t))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("upsert transaction %d: %w", t.ID, err)
		}
		if n > 0 {
			stored, err := r.Get(ctx, t.ID)
			r.notifier.Notify()
			if err != nil {
				return core.Transaction{}, err
			}
			return stored, nil
		}
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Title:           t.Title,
		Amount:          t.Amount.InexactFloat64(),
		TransactionType: string(t.Type),
		Tag:             t.Tag,
		Date:            t.Date,
		Note:            t.Note,
		CreatedAt:       r.now().UnixMilli(),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"title", row.Title,
		"transaction_type", row.TransactionType)

	r.notifier.Notify()
	return toCore(row), nil
}

// Update overwrites the row with t's id and reports whether it existed. A
// missing id changes nothing and is not an error.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) (bool, error) {
	n, err := r.queries.UpdateTransaction(ctx, updateParams(t))
	if err != nil {
		return false, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return false, nil
	}
	r.notifier.Notify()
	return true, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, t core.Transaction) (bool, error) {
	return r.DeleteByID(ctx, t.ID)
}

// DeleteByID removes the row with id. Deleting a missing id is a no-op and
// reports false.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return false, nil
	}
	slog.DebugContext(ctx, "Transaction deleted from SQLite", "id", id)
	r.notifier.Notify()
	return true, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreList(rows), nil
}

func (r *SQLiteRepository) ListByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByType(ctx, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", typ, err)
	}
	return toCoreList(rows), nil
}

// Get returns core.ErrNotFound when no row has the id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return toCore(row), nil
}

func (r *SQLiteRepository) WatchAll(ctx context.Context) *live.Subscription[[]core.Transaction] {
	return live.Watch(ctx, r.notifier, r.ListAll)
}

func (r *SQLiteRepository) WatchByType(ctx context.Context, typ core.TransactionType) *live.Subscription[[]core.Transaction] {
	return live.Watch(ctx, r.notifier, func(ctx context.Context) ([]core.Transaction, error) {
		return r.ListByType(ctx, typ)
	})
}

// WatchByID tracks one row; a nil value means the row does not exist.
func (r *SQLiteRepository) WatchByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction] {
	return live.Watch(ctx, r.notifier, func(ctx context.Context) (*core.Transaction, error) {
		t, err := r.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &t, nil
	})
}

func updateParams(t core.Transaction) UpdateTransactionParams {
	return UpdateTransactionParams{
		Title:           t.Title,
		Amount:          t.Amount.InexactFloat64(),
		TransactionType: string(t.Type),
		Tag:             t.Tag,
		Date:            t.Date,
		Note:            t.Note,
		ID:              t.ID,
	}
}

func toCore(row TransactionRow) core.Transaction {
	return core.Transaction{
		ID:        row.ID,
		Title:     row.Title,
		Amount:    row.Amount,
		Type:      core.TransactionType(row.TransactionType),
		Tag:       row.Tag,
		Date:      row.Date,
		Note:      row.Note,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}
}

var _ repository.Store = (*SQLiteRepository)(nil)

func toCoreList(rows []TransactionRow) []core.Transaction {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = toCore(row)
	}
	return out
}
