package storage

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransactionRow mirrors one all_transactions row.
type TransactionRow struct {
	ID              int64
	Title           string
	Amount          decimal.Decimal
	TransactionType string
	Tag             string
	Date            string
	Note            string
	CreatedAt       int64
}

const transactionColumns = `id, title, amount, transaction_type, tag, date, note, created_at`

const createTransaction = `INSERT INTO all_transactions (title, amount, transaction_type, tag, date, note, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	Title           string
	Amount          float64
	TransactionType string
	Tag             string
	Date            string
	Note            string
	CreatedAt       int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Title,
		arg.Amount,
		arg.TransactionType,
		arg.Tag,
		arg.Date,
		arg.Note,
		arg.CreatedAt,
	)
	var i TransactionRow
	err := scanTransaction(row, &i)
	return i, err
}

const updateTransaction = `UPDATE all_transactions
SET title = ?, amount = ?, transaction_type = ?, tag = ?, date = ?, note = ?
WHERE id = ?`

type UpdateTransactionParams struct {
	Title           string
	Amount          float64
	TransactionType string
	Tag             string
	Date            string
	Note            string
	ID              int64
}

// UpdateTransaction leaves created_at untouched and reports the number of
// rows changed.
func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Title,
		arg.Amount,
		arg.TransactionType,
		arg.Tag,
		arg.Date,
		arg.Note,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM all_transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM all_transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := scanTransaction(row, &i)
	return i, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM all_transactions
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.list(ctx, listTransactions)
}

const listTransactionsByType = `SELECT ` + transactionColumns + ` FROM all_transactions
WHERE transaction_type = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListTransactionsByType(ctx context.Context, transactionType string) ([]TransactionRow, error) {
	return q.list(ctx, listTransactionsByType, transactionType)
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := scanTransaction(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner, i *TransactionRow) error {
	return s.Scan(
		&i.ID,
		&i.Title,
		&i.Amount,
		&i.TransactionType,
		&i.Tag,
		&i.Date,
		&i.Note,
		&i.CreatedAt,
	)
}
