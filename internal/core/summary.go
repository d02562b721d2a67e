package core

import "github.com/shopspring/decimal"

// Totals is the aggregate of a transaction list.
type Totals struct {
	Income  decimal.Decimal `json:"totalIncome"`
	Expense decimal.Decimal `json:"totalExpense"`
	Balance decimal.Decimal `json:"netBalance"`
}

// Summarize partitions the list by type and sums each side. Records of any
// other type count towards neither total.
func Summarize(list []Transaction) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range list {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}
