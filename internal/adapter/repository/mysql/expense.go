package mysql

import (
	"context"
	"fmt"
	"time"

	expenseDomain "expense-approval-backend/internal/domain/expense"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExpenseRepository struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository { return &ExpenseRepository{db: db} }

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *ExpenseRepository) Tx(ctx context.Context, fn func(repo expenseDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ExpenseRepository{db: tx})
	})
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expenseDomain.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ExpenseRepository) Save(ctx context.Context, e *expenseDomain.Expense) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *ExpenseRepository) GetByExpenseID(ctx context.Context, expenseID string) (*expenseDomain.Expense, error) {
	var out expenseDomain.Expense
	res := r.db.WithContext(ctx).Where("expense_id = ?", expenseID).First(&out)
	return &out, res.Error
}

func (r *ExpenseRepository) GetByExpenseIDForUpdate(ctx context.Context, expenseID string) (*expenseDomain.Expense, error) {
	var out expenseDomain.Expense
	q := r.db.WithContext(ctx)
	// sqlite (tests) has no FOR UPDATE; its writes serialize on the file lock
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	res := q.Where("expense_id = ?", expenseID).First(&out)
	return &out, res.Error
}

func (r *ExpenseRepository) GetByExpenseIDAndOwner(ctx context.Context, expenseID, employeeID, companyID string) (*expenseDomain.Expense, error) {
	var out expenseDomain.Expense
	res := r.db.WithContext(ctx).
		Where("expense_id = ? AND employee_id = ? AND company_id = ?", expenseID, employeeID, companyID).
		First(&out)
	return &out, res.Error
}

func (r *ExpenseRepository) ListPendingForRole(ctx context.Context, companyID string, role expenseDomain.Role) ([]expenseDomain.Expense, error) {
	var out []expenseDomain.Expense
	res := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND current_approver_role = ?", companyID, expenseDomain.StatusPending, role).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID string, f expenseDomain.ListFilter) ([]expenseDomain.Expense, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("employee_id = ?", employeeID), f)
}

func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID string, f expenseDomain.ListFilter) ([]expenseDomain.Expense, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("company_id = ?", companyID), f)
}

func (r *ExpenseRepository) list(ctx context.Context, q *gorm.DB, f expenseDomain.ListFilter) ([]expenseDomain.Expense, int64, error) {
	q = q.Model(&expenseDomain.Expense{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.StartDate != nil {
		q = q.Where("expense_date >= ?", f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("expense_date <= ?", f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var out []expenseDomain.Expense
	res := q.Order(orderClause(f)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out)
	return out, total, res.Error
}

// orderClause whitelists sortable columns; anything else falls back to
// created_at so filter input can't reach the SQL.
func orderClause(f expenseDomain.ListFilter) string {
	col := "created_at"
	switch f.SortBy {
	case "expense_date", "converted_amount", "created_at":
		col = f.SortBy
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func (r *ExpenseRepository) CountByStatus(ctx context.Context, companyID string) ([]expenseDomain.StatusTotal, error) {
	var out []expenseDomain.StatusTotal
	res := r.db.WithContext(ctx).
		Model(&expenseDomain.Expense{}).
		Select("status, COUNT(*) AS count, ROUND(SUM(converted_amount), 2) AS total_amount").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&out)
	return out, res.Error
}

func (r *ExpenseRepository) CountByStatusForEmployee(ctx context.Context, employeeID string) ([]expenseDomain.StatusTotal, error) {
	var out []expenseDomain.StatusTotal
	res := r.db.WithContext(ctx).
		Model(&expenseDomain.Expense{}).
		Select("status, COUNT(*) AS count, ROUND(SUM(converted_amount), 2) AS total_amount").
		Where("employee_id = ?", employeeID).
		Group("status").
		Scan(&out)
	return out, res.Error
}

func (r *ExpenseRepository) TotalsByCategory(ctx context.Context, companyID string, from, to *time.Time) ([]expenseDomain.CategoryTotal, error) {
	q := r.db.WithContext(ctx).
		Model(&expenseDomain.Expense{}).
		Select("category, COUNT(*) AS count, ROUND(SUM(converted_amount), 2) AS total_amount").
		Where("company_id = ?", companyID)
	if from != nil {
		q = q.Where("expense_date >= ?", from)
	}
	if to != nil {
		q = q.Where("expense_date <= ?", to)
	}
	var out []expenseDomain.CategoryTotal
	res := q.Group("category").Order("total_amount DESC").Scan(&out)
	return out, res.Error
}

func (r *ExpenseRepository) MonthlyTotals(ctx context.Context, companyID string, months int) ([]expenseDomain.MonthlyTotal, error) {
	if months <= 0 {
		months = 12
	}
	since := time.Now().UTC().AddDate(0, -months, 0)

	// strftime on sqlite, DATE_FORMAT on mysql
	expr := "DATE_FORMAT(expense_date, '%Y-%m')"
	if r.db.Dialector.Name() == "sqlite" {
		expr = "strftime('%Y-%m', expense_date)"
	}

	var out []expenseDomain.MonthlyTotal
	res := r.db.WithContext(ctx).
		Model(&expenseDomain.Expense{}).
		Select(expr+" AS month, COUNT(*) AS count, ROUND(SUM(converted_amount), 2) AS total_amount").
		Where("company_id = ? AND expense_date >= ?", companyID, since).
		Group("month").
		Order("month ASC").
		Scan(&out)
	return out, res.Error
}
