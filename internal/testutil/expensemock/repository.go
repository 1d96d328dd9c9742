package expensemock

import (
	"context"
	"time"

	domain "expense-approval-backend/internal/domain/expense"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only the fields a test sets are active; the rest fall back to harmless defaults.
type Repo struct {
	CreateFn                   func(ctx context.Context, e *domain.Expense) error
	SaveFn                     func(ctx context.Context, e *domain.Expense) error
	GetByExpenseIDFn           func(ctx context.Context, expenseID string) (*domain.Expense, error)
	GetByExpenseIDForUpdateFn  func(ctx context.Context, expenseID string) (*domain.Expense, error)
	GetByExpenseIDAndOwnerFn   func(ctx context.Context, expenseID, employeeID, companyID string) (*domain.Expense, error)
	ListPendingForRoleFn       func(ctx context.Context, companyID string, role domain.Role) ([]domain.Expense, error)
	ListByEmployeeFn           func(ctx context.Context, employeeID string, f domain.ListFilter) ([]domain.Expense, int64, error)
	ListByCompanyFn            func(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Expense, int64, error)
	CountByStatusFn            func(ctx context.Context, companyID string) ([]domain.StatusTotal, error)
	CountByStatusForEmployeeFn func(ctx context.Context, employeeID string) ([]domain.StatusTotal, error)
	TotalsByCategoryFn         func(ctx context.Context, companyID string, from, to *time.Time) ([]domain.CategoryTotal, error)
	MonthlyTotalsFn            func(ctx context.Context, companyID string, months int) ([]domain.MonthlyTotal, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Expense) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, e *domain.Expense) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, e)
	}
	return nil
}

func (m *Repo) GetByExpenseID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	if m.GetByExpenseIDFn != nil {
		return m.GetByExpenseIDFn(ctx, expenseID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByExpenseIDForUpdate(ctx context.Context, expenseID string) (*domain.Expense, error) {
	if m.GetByExpenseIDForUpdateFn != nil {
		return m.GetByExpenseIDForUpdateFn(ctx, expenseID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByExpenseIDAndOwner(ctx context.Context, expenseID, employeeID, companyID string) (*domain.Expense, error) {
	if m.GetByExpenseIDAndOwnerFn != nil {
		return m.GetByExpenseIDAndOwnerFn(ctx, expenseID, employeeID, companyID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListPendingForRole(ctx context.Context, companyID string, role domain.Role) ([]domain.Expense, error) {
	if m.ListPendingForRoleFn != nil {
		return m.ListPendingForRoleFn(ctx, companyID, role)
	}
	return nil, nil
}

func (m *Repo) ListByEmployee(ctx context.Context, employeeID string, f domain.ListFilter) ([]domain.Expense, int64, error) {
	if m.ListByEmployeeFn != nil {
		return m.ListByEmployeeFn(ctx, employeeID, f)
	}
	return nil, 0, nil
}

func (m *Repo) ListByCompany(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Expense, int64, error) {
	if m.ListByCompanyFn != nil {
		return m.ListByCompanyFn(ctx, companyID, f)
	}
	return nil, 0, nil
}

func (m *Repo) CountByStatus(ctx context.Context, companyID string) ([]domain.StatusTotal, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, companyID)
	}
	return nil, nil
}

func (m *Repo) CountByStatusForEmployee(ctx context.Context, employeeID string) ([]domain.StatusTotal, error) {
	if m.CountByStatusForEmployeeFn != nil {
		return m.CountByStatusForEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (m *Repo) TotalsByCategory(ctx context.Context, companyID string, from, to *time.Time) ([]domain.CategoryTotal, error) {
	if m.TotalsByCategoryFn != nil {
		return m.TotalsByCategoryFn(ctx, companyID, from, to)
	}
	return nil, nil
}

func (m *Repo) MonthlyTotals(ctx context.Context, companyID string, months int) ([]domain.MonthlyTotal, error) {
	if m.MonthlyTotalsFn != nil {
		return m.MonthlyTotalsFn(ctx, companyID, months)
	}
	return nil, nil
}
