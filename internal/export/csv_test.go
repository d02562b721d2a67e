package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func sampleTransaction() core.Transaction {
	return core.Transaction{
		ID:        7,
		Title:     "Books, stationery",
		Amount:    decimal.RequireFromString("349.5"),
		Type:      core.Expense,
		Tag:       "Education",
		Date:      "12/10/2026",
		Note:      "semester \"kit\"",
		CreatedAt: time.Date(2026, 10, 12, 9, 30, 0, 250_000_000, time.UTC),
	}
}

func readAll(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, []core.Transaction{sampleTransaction()}))

	records := readAll(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, strings.Split(TransactionHeader, ","), records[0])
	assert.Equal(t, []string{
		"7", "Books, stationery", "349.50", "Expense", "Education", "12/10/2026",
		"semester \"kit\"", "2026-10-12T09:30:00.250Z",
	}, records[1])
}

func TestWriteTransactionsEmptyListWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, nil))
	assert.Equal(t, TransactionHeader+"\n", buf.String())
}

func TestMarshalEvent(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	tx := sampleTransaction()

	t.Run("with record", func(t *testing.T) {
		row := MarshalEvent(Event{Action: "created", TransactionID: tx.ID, Transaction: &tx, Time: at})
		require.Len(t, row, 10)
		assert.Equal(t, "created", row[0])
		assert.Equal(t, "7", row[1])
		assert.Equal(t, "Books, stationery", row[2])
		assert.Equal(t, "349.50", row[3])
		assert.Equal(t, "2026-10-12T09:30:00.250Z", row[8])
		assert.Equal(t, "2026-10-15T08:00:00.000Z", row[9])
	})

	t.Run("missing record", func(t *testing.T) {
		row := MarshalEvent(Event{Action: "deleted", TransactionID: 9, Time: at})
		assert.Equal(t, []string{"deleted", "9", "", "", "", "", "", "", "", "2026-10-15T08:00:00.000Z"}, row)
	})
}

func TestJournalAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.csv")
	j := NewJournal(path)
	tx := sampleTransaction()

	require.NoError(t, j.Append(Event{Action: "created", TransactionID: tx.ID, Transaction: &tx, Time: time.Now()}))
	require.NoError(t, j.Append(Event{Action: "deleted", TransactionID: tx.ID, Time: time.Now()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records := readAll(t, string(data))
	require.Len(t, records, 3, "header must be written once")
	assert.Equal(t, "action", records[0][0])
	assert.Equal(t, "created", records[1][0])
	assert.Equal(t, "deleted", records[2][0])
}

func TestJournalConcurrentAppends(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "events.csv"))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, j.Append(Event{Action: "updated", TransactionID: id, Time: time.Now()}))
		}(int64(i))
	}
	wg.Wait()

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Len(t, readAll(t, string(data)), 21)
}
