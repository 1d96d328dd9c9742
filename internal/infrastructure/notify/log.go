package notify

import (
	"context"
	"log"

	"expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/notification"
)

// LogNotifier writes would-be emails to the application log. Stands in for a
// real mail/chat integration; callers already treat delivery as best-effort,
// so swapping it out is transparent.
type LogNotifier struct{}

var _ notification.Notifier = LogNotifier{}

func (LogNotifier) ApprovalRequested(_ context.Context, e *expense.Expense, step expense.ApprovalStep) error {
	log.Printf("notify: approval requested from %s (%s) for expense %s: %.2f %s, category %s",
		step.ApproverRole, step.ApproverID, e.ExpenseID, e.ConvertedAmount, e.Currency, e.Category)
	return nil
}

func (LogNotifier) Finalized(_ context.Context, e *expense.Expense, status expense.Status) error {
	log.Printf("notify: expense %s for employee %s finalized as %s: %.2f %s, category %s",
		e.ExpenseID, e.EmployeeID, status, e.ConvertedAmount, e.Currency, e.Category)
	return nil
}
