package uow

import (
	"context"

	"expense-approval-backend/internal/domain/audit"
	"expense-approval-backend/internal/domain/expense"
)

type Repos struct {
	Expenses expense.Repository
	Logs     audit.Repository
}

// UnitOfWork serializes writes to the same expense row. Every workflow
// mutation goes through WithinExpenseTx, which locks the row before the
// read-modify-write cycle starts; the engine itself holds no locks.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the expense row first, then pass it in
	WithinExpenseTx(ctx context.Context, expenseID string, fn func(r Repos, e *expense.Expense) error) error
}
