package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
)

// sseReader yields the data payloads of a server-sent event stream.
type sseReader struct {
	events chan string
}

func openStream(t *testing.T, ts *httptest.Server, path string) *sseReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type=%q", ct)
	}

	r := &sseReader{events: make(chan string, 32)}
	go func() {
		defer close(r.events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				r.events <- data
			}
		}
	}()
	return r
}

func (r *sseReader) next(t *testing.T, v any) {
	t.Helper()
	select {
	case data, ok := <-r.events:
		if !ok {
			t.Fatal("stream closed")
		}
		if err := json.Unmarshal([]byte(data), v); err != nil {
			t.Fatalf("decode event %q: %v", data, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func (r *sseReader) nextList(t *testing.T, ok func(listResponse) bool) listResponse {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case data, open := <-r.events:
			if !open {
				t.Fatal("stream closed")
			}
			var resp listResponse
			if err := json.Unmarshal([]byte(data), &resp); err != nil {
				t.Fatalf("decode event %q: %v", data, err)
			}
			if ok(resp) {
				return resp
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching event")
		}
	}
}

func TestStreamTransactions(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	stream := openStream(t, ts, "/transactions/stream?filter=Expense")

	var first listResponse
	stream.next(t, &first)
	if first.Status != core.StatusLoading || first.Filter != "Expense" {
		t.Fatalf("first event = %+v, want loading Expense", first)
	}
	stream.nextList(t, func(r listResponse) bool { return r.Status == core.StatusEmpty })

	createTransaction(t, srv, validBody)
	createTransaction(t, srv, `{"title":"Rent","amount":"400","transactionType":"Expense","tag":"Home","date":"02/10/2026","note":"October"}`)

	got := stream.nextList(t, func(r listResponse) bool { return r.Status == core.StatusSuccess })
	if len(got.Transactions) != 1 || got.Transactions[0].Title != "Rent" {
		t.Fatalf("unexpected transactions: %+v", got.Transactions)
	}
	if got.Totals.Expense.String() != "400" || got.Totals.Income.String() != "0" {
		t.Fatalf("totals = %+v", got.Totals)
	}
	if got.Filter != "Expense" {
		t.Fatalf("filter = %q", got.Filter)
	}
}

func TestStreamTransactionsRejectsBadFilter(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/transactions/stream?filter=All", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestStreamTransactionDetail(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	created := createTransaction(t, srv, validBody)
	stream := openStream(t, ts, "/transactions/1/stream")

	var st detailResponse
	stream.next(t, &st)
	if st.Status != core.StatusLoading {
		t.Fatalf("first event = %+v, want loading", st)
	}
	stream.next(t, &st)
	if st.Status != core.StatusSuccess || st.Transaction == nil || st.Transaction.ID != created.ID {
		t.Fatalf("second event = %+v, want success", st)
	}

	if rr := do(t, srv, http.MethodDelete, "/transactions/1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}

	deadline := time.Now().Add(3 * time.Second)
	for st.Status != core.StatusEmpty {
		if time.Now().After(deadline) {
			t.Fatal("record deletion never reported")
		}
		stream.next(t, &st)
	}
	if st.Transaction != nil {
		t.Fatalf("empty state carries a transaction: %+v", st.Transaction)
	}
}
