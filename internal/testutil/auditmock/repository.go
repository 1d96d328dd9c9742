package auditmock

import (
	"context"

	domain "expense-approval-backend/internal/domain/audit"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	AppendFn        func(ctx context.Context, l *domain.ExpenseLog) error
	ListByExpenseFn func(ctx context.Context, expenseNumericID uint64, limit int) ([]domain.ExpenseLog, error)
}

func (m *Repo) Append(ctx context.Context, l *domain.ExpenseLog) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListByExpense(ctx context.Context, expenseNumericID uint64, limit int) ([]domain.ExpenseLog, error) {
	if m.ListByExpenseFn != nil {
		return m.ListByExpenseFn(ctx, expenseNumericID, limit)
	}
	return nil, nil
}
