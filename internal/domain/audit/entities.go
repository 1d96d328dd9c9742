package audit

import (
	"errors"
	"time"

	"expense-approval-backend/internal/domain/expense"
)

var ErrNotFound = errors.New("expense log not found")

type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionSubmitted     Action = "SUBMITTED"
	ActionApproved      Action = "APPROVED"
	ActionRejected      Action = "REJECTED"
	ActionCancelled     Action = "CANCELLED"
	ActionAutoApproved  Action = "AUTO_APPROVED"
	ActionRuleEvaluated Action = "RULE_EVALUATED"
	ActionEscalated     Action = "ESCALATED"
)

// ExpenseLog is one immutable audit entry: a single transition (or owner
// action) on a single expense. Rows are only ever inserted.
type ExpenseLog struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// FK to expenses.id (numeric)
	ExpenseID       uint64         `gorm:"column:expense_id;not null;index:idx_expense_logs_expense_ts" json:"-"`
	Action          Action         `gorm:"column:action;size:32;not null;index" json:"action"`
	PerformedBy     string         `gorm:"column:performed_by;type:char(32);not null" json:"performed_by"`
	PerformedByRole expense.Role   `gorm:"column:performed_by_role;size:16;not null" json:"performed_by_role"`
	PreviousStatus  expense.Status `gorm:"column:previous_status;size:16" json:"previous_status,omitempty"`
	NewStatus       expense.Status `gorm:"column:new_status;size:16" json:"new_status,omitempty"`
	PreviousStep    int            `gorm:"column:previous_step" json:"previous_step"`
	NewStep         int            `gorm:"column:new_step" json:"new_step"`
	Comments        string         `gorm:"column:comments;size:1000" json:"comments,omitempty"`
	Metadata        map[string]any `gorm:"column:metadata;type:json;serializer:json" json:"metadata,omitempty"`
	Timestamp       time.Time      `gorm:"column:timestamp;not null;index:idx_expense_logs_expense_ts" json:"timestamp"`
}

func (ExpenseLog) TableName() string { return "expense_logs" }
