package core

// Filter selects which transactions a listing returns. It is a query
// selector only; FilterAll has no persisted TransactionType counterpart.
type Filter int

const (
	FilterAll Filter = iota
	FilterIncome
	FilterExpense
)

// FilterOverall is the wire name of FilterAll.
const FilterOverall = "Overall"

// ParseFilter maps the wire names Overall, Income and Expense to a Filter.
// Matching is exact and case-sensitive.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case FilterOverall:
		return FilterAll, nil
	case string(Income):
		return FilterIncome, nil
	case string(Expense):
		return FilterExpense, nil
	default:
		return FilterAll, ErrInvalidFilter
	}
}

func (f Filter) String() string {
	switch f {
	case FilterIncome:
		return string(Income)
	case FilterExpense:
		return string(Expense)
	default:
		return FilterOverall
	}
}

// Type returns the persisted type the filter matches. ok is false for FilterAll.
func (f Filter) Type() (t TransactionType, ok bool) {
	switch f {
	case FilterIncome:
		return Income, true
	case FilterExpense:
		return Expense, true
	default:
		return "", false
	}
}

// Filters lists every selectable filter in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterIncome, FilterExpense}
}
