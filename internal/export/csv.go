// Package export writes transactions and change events as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
)

// TransactionHeader is the header of a transaction listing.
const TransactionHeader = "id,title,amount,transaction_type,tag,date,note,created_at"

// EventHeader is the header of the change journal.
const EventHeader = "action,id,title,amount,transaction_type,tag,date,note,created_at,event_time"

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// WriteTransactions writes list to w, header first.
func WriteTransactions(w io.Writer, list []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(TransactionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range list {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts t to a CSV row.
func MarshalTransaction(t core.Transaction) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Title,
		t.Amount.StringFixed(2),
		string(t.Type),
		t.Tag,
		t.Date,
		t.Note,
		formatTime(t.CreatedAt),
	}
}

// Event is one journal line. Transaction is nil when the record no longer
// exists; only the id is written then.
type Event struct {
	Action        string
	TransactionID int64
	Transaction   *core.Transaction
	Time          time.Time
}

// MarshalEvent converts e to a CSV row.
func MarshalEvent(e Event) []string {
	row := make([]string, 10)
	row[0] = e.Action
	row[1] = strconv.FormatInt(e.TransactionID, 10)
	if t := e.Transaction; t != nil {
		copy(row[2:9], MarshalTransaction(*t)[1:])
	}
	row[9] = formatTime(e.Time)
	return row
}

// Journal appends events to a CSV file, writing the header when the file is
// new or empty. It is safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	path string
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) Path() string {
	return j.path
}

// Append writes events as one batch.
func (j *Journal) Append(events ...Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(strings.Split(EventHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, e := range events {
		if err := cw.Write(MarshalEvent(e)); err != nil {
			return fmt.Errorf("writing event for %d: %w", e.TransactionID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(timeFormat)
}
