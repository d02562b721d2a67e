package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/dashboard"
	applog "expensetracker/internal/log"
)

// handleStreamTransactions streams the view states of one filter as
// server-sent events until the client goes away.
func (s *Server) handleStreamTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	d := dashboard.New(s.svc)
	defer d.Close()
	if f != core.FilterAll {
		d.SetFilter(f)
	}

	startStream(w)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-d.States():
			if !ok {
				return
			}
			if st.Filter != f {
				continue
			}
			if err := writeEvent(w, "state", newListResponse(st)); err != nil {
				applog.LogError(ctx, "Failed to write stream event", err, applog.OpStream,
					applog.NewFields().WithComponent(applog.ComponentHTTP).WithFilter(f))
				return
			}
			flusher.Flush()
		}
	}
}

// handleStreamTransaction follows one record: Loading first, then Success on
// every change and Empty once it is deleted.
func (s *Server) handleStreamTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	states := s.session.Detail(ctx, id)

	startStream(w)
	for st := range states {
		if err := writeEvent(w, "state", newDetailResponse(st)); err != nil {
			applog.LogError(ctx, "Failed to write stream event", err, applog.OpStream,
				applog.NewFields().WithComponent(applog.ComponentHTTP))
			return
		}
		flusher.Flush()
	}
}

func startStream(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
