// Package core holds the transaction domain: records and their validation,
// list filters, totals, amount formatting and the view states screens render.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// DateLayout is the format the clients use for the user-entered date.
// The store keeps the date as opaque text and never parses it.
const DateLayout = "02/01/2006"

type (
	// TransactionType is the persisted kind of a transaction.
	TransactionType string

	Transaction struct {
		ID        int64           `json:"id"`
		Title     string          `json:"title"`
		Amount    decimal.Decimal `json:"amount"`
		Type      TransactionType `json:"transactionType"`
		Tag       string          `json:"tag"`
		Date      string          `json:"date"`
		Note      string          `json:"note"`
		CreatedAt time.Time       `json:"createdAt"`
	}
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("transaction type must be Income or Expense")
	ErrEmptyTag      = errors.New("tag must not be empty")
	ErrEmptyDate     = errors.New("date must not be empty")
	ErrEmptyNote     = errors.New("note must not be empty")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrNothingToUndo = errors.New("no deleted transaction to restore")
	ErrInvalidFilter = errors.New("filter must be Overall, Income or Expense")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// Validate checks the form-level rules a client applies before handing a
// record to the store. The store itself accepts any well-typed record.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return ErrTitleTooLong
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Tag) == "" {
		return ErrEmptyTag
	}
	if strings.TrimSpace(t.Date) == "" {
		return ErrEmptyDate
	}
	if strings.TrimSpace(t.Note) == "" {
		return ErrEmptyNote
	}
	return nil
}

// SameContent reports whether two records carry the same user-entered fields,
// ignoring the store-assigned id and creation time.
func (t Transaction) SameContent(o Transaction) bool {
	return t.Title == o.Title &&
		t.Amount.Equal(o.Amount) &&
		t.Type == o.Type &&
		t.Tag == o.Tag &&
		t.Date == o.Date &&
		t.Note == o.Note
}
