package expense

import (
	"time"

	domain "expense-approval-backend/internal/domain/expense"
)

type CreateInput struct {
	Amount      float64          `json:"amount"`
	Currency    string           `json:"currency"`
	Category    domain.Category  `json:"category"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
	ReceiptURL  string           `json:"receipt_url"`
	OCRData     *domain.OCRData  `json:"ocr_data"`
}

type UpdateInput struct {
	Amount      *float64         `json:"amount"`
	Currency    *string          `json:"currency"`
	Category    *domain.Category `json:"category"`
	Description *string          `json:"description"`
	Date        *time.Time       `json:"date"`
	ReceiptURL  *string          `json:"receipt_url"`
}

type ExpenseDTO struct {
	ExpenseID           string                `json:"expense_id"`
	EmployeeID          string                `json:"employee_id"`
	CompanyID           string                `json:"company_id"`
	Amount              float64               `json:"amount"`
	Currency            string                `json:"currency"`
	ConvertedAmount     float64               `json:"converted_amount"`
	ConversionRate      float64               `json:"conversion_rate"`
	Category            domain.Category       `json:"category"`
	Description         string                `json:"description"`
	Date                time.Time             `json:"date"`
	ReceiptURL          string                `json:"receipt_url,omitempty"`
	OCRData             *domain.OCRData       `json:"ocr_data,omitempty"`
	Status              domain.Status         `json:"status"`
	Approvals           []domain.ApprovalStep `json:"approvals,omitempty"`
	CurrentApprovalStep int                   `json:"current_approval_step"`
	TotalApprovalSteps  int                   `json:"total_approval_steps"`
	CreatedAt           time.Time             `json:"created_at"`
}

func toDTO(e *domain.Expense) *ExpenseDTO {
	return &ExpenseDTO{
		ExpenseID:           e.ExpenseID,
		EmployeeID:          e.EmployeeID,
		CompanyID:           e.CompanyID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		ConvertedAmount:     e.ConvertedAmount,
		ConversionRate:      e.ConversionRate,
		Category:            e.Category,
		Description:         e.Description,
		Date:                e.Date,
		ReceiptURL:          e.ReceiptURL,
		OCRData:             e.OCRData,
		Status:              e.Status,
		Approvals:           e.Approvals,
		CurrentApprovalStep: e.CurrentApprovalStep,
		TotalApprovalSteps:  e.TotalApprovalSteps,
		CreatedAt:           e.CreatedAt,
	}
}

// ListPage is a paginated slice of expenses.
type ListPage struct {
	Items      []*ExpenseDTO `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int64         `json:"total_pages"`
}
