package audit

import "context"

type Repository interface {
	// Append inserts one log entry. Entries are never updated or deleted.
	Append(ctx context.Context, l *ExpenseLog) error

	// ListByExpense returns entries for an expense, oldest first.
	ListByExpense(ctx context.Context, expenseNumericID uint64, limit int) ([]ExpenseLog, error)
}
