package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/trace"
)

// listResponse is the body of GET /transactions and the payload of each
// list stream event.
type listResponse struct {
	Filter       string             `json:"filter"`
	Status       core.Status        `json:"status"`
	Transactions []core.Transaction `json:"transactions"`
	Totals       core.Totals        `json:"totals"`
	Error        string             `json:"error,omitempty"`
}

func newListResponse(st core.ViewState) listResponse {
	resp := listResponse{
		Filter:       st.Filter.String(),
		Status:       st.Status,
		Transactions: st.Transactions,
		Totals:       st.Totals,
	}
	if resp.Transactions == nil {
		resp.Transactions = []core.Transaction{}
	}
	if st.Err != nil {
		resp.Error = "failed to load transactions"
	}
	return resp
}

type detailResponse struct {
	Status      core.Status       `json:"status"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// undoResponse reports whether a deleted transaction can be restored.
type undoResponse struct {
	Available bool `json:"available"`
}

func newDetailResponse(st core.DetailState) detailResponse {
	resp := detailResponse{Status: st.Status, Transaction: st.Transaction}
	if st.Err != nil {
		resp.Error = "failed to load transaction"
	}
	return resp
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{
		Error:     msg,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

var validationErrors = []error{
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrEmptyTag,
	core.ErrEmptyDate,
	core.ErrEmptyNote,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		applog.LogError(r.Context(), "Transaction operation failed", err, op,
			applog.NewFields().WithComponent(applog.ComponentHTTP))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
