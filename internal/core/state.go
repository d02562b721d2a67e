package core

import "fmt"

// Status is the retrieval state of a listing or a detail view.
type Status int

const (
	StatusLoading Status = iota
	StatusEmpty
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusEmpty:
		return "empty"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusLoading, StatusEmpty, StatusSuccess, StatusError} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// ViewState is what a list screen renders for one filter selection.
type ViewState struct {
	Status       Status        `json:"status"`
	Filter       Filter        `json:"-"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Totals       Totals        `json:"totals"`
	Err          error         `json:"-"`
}

// DetailState is what a detail screen renders for one transaction.
type DetailState struct {
	Status      Status       `json:"status"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Err         error        `json:"-"`
}

func LoadingState(f Filter) ViewState {
	return ViewState{Status: StatusLoading, Filter: f}
}

// ResolveViewState turns one query result into Empty, Success or Error.
func ResolveViewState(f Filter, list []Transaction, err error) ViewState {
	switch {
	case err != nil:
		return ViewState{Status: StatusError, Filter: f, Err: err}
	case len(list) == 0:
		return ViewState{Status: StatusEmpty, Filter: f}
	default:
		return ViewState{
			Status:       StatusSuccess,
			Filter:       f,
			Transactions: list,
			Totals:       Summarize(list),
		}
	}
}

// ResolveDetailState maps a single-row lookup to a DetailState. A nil
// transaction means the row no longer exists.
func ResolveDetailState(t *Transaction, err error) DetailState {
	switch {
	case err != nil:
		return DetailState{Status: StatusError, Err: err}
	case t == nil:
		return DetailState{Status: StatusEmpty}
	default:
		return DetailState{Status: StatusSuccess, Transaction: t}
	}
}
