package notification

import (
	"context"

	"expense-approval-backend/internal/domain/expense"
)

// Notifier delivers best-effort messages about workflow events. Callers must
// treat every returned error as log-and-continue: delivery failure never
// fails or rolls back the transition that triggered it.
type Notifier interface {
	// ApprovalRequested tells the approver of the given step that the
	// expense is waiting on them.
	ApprovalRequested(ctx context.Context, e *expense.Expense, step expense.ApprovalStep) error

	// Finalized tells the owning employee the expense reached a terminal
	// status.
	Finalized(ctx context.Context, e *expense.Expense, status expense.Status) error
}
