package mysql

import (
	"context"

	auditDomain "expense-approval-backend/internal/domain/audit"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Append(ctx context.Context, l *auditDomain.ExpenseLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *AuditRepository) ListByExpense(ctx context.Context, expenseNumericID uint64, limit int) ([]auditDomain.ExpenseLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []auditDomain.ExpenseLog
	res := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseNumericID).
		Order("timestamp ASC, id ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
