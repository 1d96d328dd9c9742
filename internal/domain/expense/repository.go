package expense

import (
	"context"
	"time"
)

// ListFilter narrows and pages list queries. Zero values mean "no filter".
type ListFilter struct {
	Status    Status
	Category  Category
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortBy    string // created_at (default), expense_date, converted_amount
	SortDesc  bool
}

// StatusTotal is one row of a status aggregate (count + summed converted amount).
type StatusTotal struct {
	Status      Status  `json:"status"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category    Category `json:"category"`
	Count       int64    `json:"count"`
	TotalAmount float64  `json:"total_amount"`
}

// MonthlyTotal is one row of a per-month aggregate (Month is "2006-01").
type MonthlyTotal struct {
	Month       string  `json:"month"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type Repository interface {
	Create(ctx context.Context, e *Expense) error
	Save(ctx context.Context, e *Expense) error

	GetByExpenseID(ctx context.Context, expenseID string) (*Expense, error)
	// GetByExpenseIDForUpdate locks the row for the surrounding transaction;
	// the workflow's read-modify-write cycle depends on it.
	GetByExpenseIDForUpdate(ctx context.Context, expenseID string) (*Expense, error)
	GetByExpenseIDAndOwner(ctx context.Context, expenseID, employeeID, companyID string) (*Expense, error)

	// ListPendingForRole returns company expenses with status PENDING whose
	// current step is gated on the given role.
	ListPendingForRole(ctx context.Context, companyID string, role Role) ([]Expense, error)
	ListByEmployee(ctx context.Context, employeeID string, f ListFilter) ([]Expense, int64, error)
	ListByCompany(ctx context.Context, companyID string, f ListFilter) ([]Expense, int64, error)

	CountByStatus(ctx context.Context, companyID string) ([]StatusTotal, error)
	CountByStatusForEmployee(ctx context.Context, employeeID string) ([]StatusTotal, error)
	TotalsByCategory(ctx context.Context, companyID string, from, to *time.Time) ([]CategoryTotal, error)
	MonthlyTotals(ctx context.Context, companyID string, months int) ([]MonthlyTotal, error)
}
