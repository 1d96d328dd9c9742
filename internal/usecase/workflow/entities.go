package workflow

import (
	"time"

	"expense-approval-backend/internal/domain/audit"
	"expense-approval-backend/internal/domain/expense"
)

type StartInput struct {
	ExpenseID  string
	EmployeeID string
	CompanyID  string
	Options    ChainOptions
}

type ActionInput struct {
	ExpenseID    string
	ApproverID   string
	ApproverRole expense.Role
	Comments     string
}

type ExpenseDTO struct {
	ExpenseID           string                 `json:"expense_id"`
	EmployeeID          string                 `json:"employee_id"`
	Amount              float64                `json:"amount"`
	Currency            string                 `json:"currency"`
	ConvertedAmount     float64                `json:"converted_amount"`
	Category            expense.Category       `json:"category"`
	Status              expense.Status         `json:"status"`
	CurrentApprovalStep int                    `json:"current_approval_step"`
	TotalApprovalSteps  int                    `json:"total_approval_steps"`
	Approvals           []expense.ApprovalStep `json:"approvals"`
	ApprovalRules       expense.RulesDescriptor `json:"approval_rules"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

func toDTO(e *expense.Expense) *ExpenseDTO {
	return &ExpenseDTO{
		ExpenseID:           e.ExpenseID,
		EmployeeID:          e.EmployeeID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		ConvertedAmount:     e.ConvertedAmount,
		Category:            e.Category,
		Status:              e.Status,
		CurrentApprovalStep: e.CurrentApprovalStep,
		TotalApprovalSteps:  e.TotalApprovalSteps,
		Approvals:           e.Approvals,
		ApprovalRules:       e.ApprovalRules,
		UpdatedAt:           e.UpdatedAt,
	}
}

// HistoryDTO is the full approval trail of one expense.
type HistoryDTO struct {
	Expense      *ExpenseDTO            `json:"expense"`
	ApprovalFlow []expense.ApprovalStep `json:"approval_flow"`
	History      []audit.ExpenseLog     `json:"history"`
}

// RuleSummaryDTO condenses the append-only evaluation history.
type RuleSummaryDTO struct {
	TotalRules     int                      `json:"total_rules"`
	TriggeredRules int                      `json:"triggered_rules"`
	AutoApproved   bool                     `json:"auto_approved"`
	AutoRejected   bool                     `json:"auto_rejected"`
	LastEvaluation *time.Time               `json:"last_evaluation,omitempty"`
	Rules          []expense.RuleEvaluation `json:"rules"`
}
