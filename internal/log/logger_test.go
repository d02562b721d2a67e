package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestLoggerComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Output: &buf})

	ctx := WithLogger(context.Background(), logger.With(FieldRequestID, "r-1"))
	FromContext(ctx).InfoContext(ctx, "hello")

	out := buf.String()
	for _, want := range []string{"component=worker", "request_id=r-1", "msg=hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Logger == nil {
		t.Fatal("FromContext should never return nil")
	}
}

func TestLogFields(t *testing.T) {
	tx := core.Transaction{ID: 3, Type: core.Income, Amount: decimal.RequireFromString("10.5"), Tag: "Salary", Title: "private"}
	got := NewFields().WithTransaction(tx).WithError(errors.New("boom")).WithOperation(OpCreate).ToSlice()

	want := []any{
		FieldAmount, "10.5",
		FieldError, "boom",
		FieldTransactionID, int64(3),
		FieldOperation, OpCreate,
		FieldTag, "Salary",
		FieldTransactionType, "Income",
	}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentHTTP})

	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		got.InfoContext(r.Context(), "handled")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != logger {
		t.Fatalf("handler logger = %v, want the middleware logger", got)
	}
	if !strings.Contains(buf.String(), "component=http") {
		t.Errorf("output %q missing component", buf.String())
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{503, "level=ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		ctx := WithLogger(context.Background(), New(Config{Output: &buf, Component: ComponentHTTP}))
		r := httptest.NewRequest("GET", "/transactions?filter=Income", nil)

		LogHTTPEnd(ctx, r, tt.status, 5, "10.0.0.1")

		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("status %d logged %q, want %s", tt.status, buf.String(), tt.level)
		}
	}
}
