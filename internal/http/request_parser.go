package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// maxBodyBytes caps request bodies for the JSON endpoints.
const maxBodyBytes = 64 << 10

var errInvalidID = errors.New("transaction id must be a positive integer")

// transactionRequest is the body of POST and PUT. Amount accepts both a JSON
// number and a string such as "12,50".
type transactionRequest struct {
	Title  string          `json:"title"`
	Amount json.RawMessage `json:"amount"`
	Type   string          `json:"transactionType"`
	Tag    string          `json:"tag"`
	Date   string          `json:"date"`
	Note   string          `json:"note"`
}

// ParseFilter reads the filter query parameter. An absent parameter means
// Overall; any other value must be a filter name exactly.
func ParseFilter(r *http.Request) (core.Filter, error) {
	v := r.URL.Query().Get("filter")
	if v == "" {
		return core.FilterAll, nil
	}
	return core.ParseFilter(v)
}

// ParseID reads the {id} path value.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// ParseTransaction decodes a transaction body. Field validation is left to
// the service; only the amount is checked here because it must be parsed.
func ParseTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req transactionRequest
	if err := dec.Decode(&req); err != nil {
		return core.Transaction{}, fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return core.Transaction{}, errors.New("request body must contain a single JSON object")
	}

	amount, err := core.ParseAmount(rawAmount(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		Title:  sanitizeInput(req.Title),
		Amount: amount,
		Type:   core.TransactionType(strings.TrimSpace(req.Type)),
		Tag:    sanitizeInput(req.Tag),
		Date:   sanitizeInput(req.Date),
		Note:   sanitizeInput(req.Note),
	}, nil
}

func rawAmount(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
