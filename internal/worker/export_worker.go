package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
)

const (
	dedupeSize = 4096
	dedupeTTL  = time.Hour
)

// Reader loads the current state of a transaction.
type Reader interface {
	Get(ctx context.Context, id int64) (core.Transaction, error)
}

// ExportWorker appends every change event to the CSV journal, together with
// the state of the record at the time the event is handled.
type ExportWorker struct {
	store   Reader
	journal *export.Journal
	seen    *cache.LRU[struct{}]
}

func NewExportWorker(store Reader, journal *export.Journal) *ExportWorker {
	return &ExportWorker{
		store:   store,
		journal: journal,
		seen:    cache.NewLRU[struct{}](dedupeSize, dedupeTTL),
	}
}

// Seen exposes the redelivery cache so callers can schedule its cleanup.
func (w *ExportWorker) Seen() cache.Cleaner {
	return w.seen
}

// HandleEvent writes one journal line for msg. Redeliveries of an already
// journaled message are skipped. A record that no longer exists is journaled
// as deleted.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if msg.MessageID != "" {
		if _, dup := w.seen.Get(msg.MessageID); dup {
			slog.DebugContext(ctx, "Skipping redelivered event", "message_id", msg.MessageID)
			return nil
		}
	}

	ev := export.Event{
		Action:        string(msg.Action),
		TransactionID: msg.TransactionID,
		Time:          msg.Timestamp,
	}

	if msg.Action != amqp.ActionDeleted {
		t, err := w.store.Get(ctx, msg.TransactionID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			slog.InfoContext(ctx, "Transaction gone before export, journaling as deleted",
				"id", msg.TransactionID,
				"action", msg.Action)
			ev.Action = string(amqp.ActionDeleted)
		case err != nil:
			return fmt.Errorf("load transaction %d: %w", msg.TransactionID, err)
		default:
			ev.Transaction = &t
		}
	}

	if err := w.journal.Append(ev); err != nil {
		return fmt.Errorf("append to journal: %w", err)
	}
	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, struct{}{})
	}

	slog.InfoContext(ctx, "Exported transaction event",
		"id", msg.TransactionID,
		"action", ev.Action,
		"journal", w.journal.Path())
	return nil
}
