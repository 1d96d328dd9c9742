package expense

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"expense-approval-backend/internal/domain/audit"
	domain "expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/uow"
	"expense-approval-backend/pkg/id"

	"gorm.io/gorm"
)

// Converter turns an amount in one currency into another. Rate sourcing is
// an adapter concern; the usecase only needs the conversion result.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (converted float64, rate float64, err error)
}

// Usecase covers the employee-facing expense lifecycle: create, read, list,
// edit while still untouched, cancel. Approval transitions live in the
// workflow usecase.
type Usecase struct {
	repo         domain.Repository
	logs         audit.Repository
	tx           uow.UnitOfWork
	converter    Converter
	baseCurrency string
}

func NewUsecase(repo domain.Repository, logs audit.Repository, tx uow.UnitOfWork, converter Converter, baseCurrency string) *Usecase {
	return &Usecase{repo: repo, logs: logs, tx: tx, converter: converter, baseCurrency: baseCurrency}
}

func (u *Usecase) Create(ctx context.Context, in CreateInput, employeeID, companyID string) (*ExpenseDTO, error) {
	if in.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	currency := strings.ToUpper(in.Currency)
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid currency %q", in.Currency)
	}
	if !in.Category.IsValid() {
		return nil, fmt.Errorf("invalid category %q", in.Category)
	}

	converted, rate := in.Amount, 1.0
	if currency != u.baseCurrency {
		var err error
		converted, rate, err = u.converter.Convert(ctx, in.Amount, currency, u.baseCurrency)
		if err != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", currency, u.baseCurrency, err)
		}
	}

	e := &domain.Expense{
		ExpenseID:       id.NewID32(),
		EmployeeID:      employeeID,
		CompanyID:       companyID,
		Amount:          in.Amount,
		Currency:        currency,
		ConvertedAmount: converted,
		ConversionRate:  rate,
		Category:        in.Category,
		Description:     in.Description,
		Date:            in.Date.UTC(),
		ReceiptURL:      in.ReceiptURL,
		OCRData:         in.OCRData,
		Status:          domain.StatusPending,
		Approvals:       []domain.ApprovalStep{},
		ApprovalRules:   domain.RulesDescriptor{Type: "SEQUENTIAL"},
		StatusUpdatedAt: time.Now().UTC(),
	}

	if err := u.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	u.appendLog(ctx, e, audit.ActionCreated, employeeID, map[string]any{
		"amount":   e.Amount,
		"currency": e.Currency,
		"category": e.Category,
	})
	return toDTO(e), nil
}

func (u *Usecase) Get(ctx context.Context, expenseID, employeeID, companyID string) (*ExpenseDTO, error) {
	e, err := u.repo.GetByExpenseIDAndOwner(ctx, expenseID, employeeID, companyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return toDTO(e), nil
}

func (u *Usecase) ListMine(ctx context.Context, employeeID string, f domain.ListFilter) (*ListPage, error) {
	items, total, err := u.repo.ListByEmployee(ctx, employeeID, f)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, f), nil
}

// Update edits a PENDING expense nobody has acted on yet. Changing amount or
// currency re-runs the conversion so rule thresholds stay comparable.
func (u *Usecase) Update(ctx context.Context, expenseID, employeeID, companyID string, in UpdateInput) (*ExpenseDTO, error) {
	if u.tx == nil {
		return nil, domain.ErrInvalidState
	}

	var done *domain.Expense
	err := u.tx.WithinExpenseTx(ctx, expenseID, func(r uow.Repos, e *domain.Expense) error {
		if e.EmployeeID != employeeID || e.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if e.Status != domain.StatusPending || e.HasActedStep() {
			return domain.ErrImmutable
		}

		if in.Category != nil {
			if !in.Category.IsValid() {
				return fmt.Errorf("invalid category %q", *in.Category)
			}
			e.Category = *in.Category
		}
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.Date != nil {
			e.Date = in.Date.UTC()
		}
		if in.ReceiptURL != nil {
			e.ReceiptURL = *in.ReceiptURL
		}

		if in.Amount != nil || in.Currency != nil {
			if in.Amount != nil {
				if *in.Amount <= 0 {
					return errors.New("amount must be positive")
				}
				e.Amount = *in.Amount
			}
			if in.Currency != nil {
				cur := strings.ToUpper(*in.Currency)
				if len(cur) != 3 {
					return fmt.Errorf("invalid currency %q", *in.Currency)
				}
				e.Currency = cur
			}
			e.ConvertedAmount, e.ConversionRate = e.Amount, 1.0
			if e.Currency != u.baseCurrency {
				converted, rate, err := u.converter.Convert(ctx, e.Amount, e.Currency, u.baseCurrency)
				if err != nil {
					return fmt.Errorf("convert %s to %s: %w", e.Currency, u.baseCurrency, err)
				}
				e.ConvertedAmount, e.ConversionRate = converted, rate
			}
		}

		if err := r.Expenses.Save(ctx, e); err != nil {
			return err
		}
		done = e
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.appendLog(ctx, done, audit.ActionUpdated, employeeID, map[string]any{
		"amount":   done.Amount,
		"currency": done.Currency,
	})
	return toDTO(done), nil
}

// Cancel is the employee-initiated terminal transition, permitted only while
// PENDING with no acted step. The workflow engine never reaches CANCELLED.
func (u *Usecase) Cancel(ctx context.Context, expenseID, employeeID, companyID string) error {
	if u.tx == nil {
		return domain.ErrInvalidState
	}

	var done *domain.Expense
	err := u.tx.WithinExpenseTx(ctx, expenseID, func(r uow.Repos, e *domain.Expense) error {
		if e.EmployeeID != employeeID || e.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if e.Status != domain.StatusPending || e.HasActedStep() {
			return domain.ErrImmutable
		}

		now := time.Now().UTC()
		e.Status = domain.StatusCancelled
		e.CurrentApproverRole = ""
		e.StatusUpdatedAt = now
		e.DeletedBy = &employeeID

		if err := r.Expenses.Save(ctx, e); err != nil {
			return err
		}
		done = e
		return nil
	})
	if err != nil {
		return mapStoreErr(err)
	}

	u.appendLog(ctx, done, audit.ActionCancelled, employeeID, nil)
	return nil
}

// Statistics groups the employee's own expenses by status.
func (u *Usecase) Statistics(ctx context.Context, employeeID string) ([]domain.StatusTotal, error) {
	return u.repo.CountByStatusForEmployee(ctx, employeeID)
}

// Logs returns the audit trail for an expense the caller owns.
func (u *Usecase) Logs(ctx context.Context, expenseID, employeeID, companyID string, limit int) ([]audit.ExpenseLog, error) {
	e, err := u.repo.GetByExpenseIDAndOwner(ctx, expenseID, employeeID, companyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if limit <= 0 {
		limit = 50
	}
	return u.logs.ListByExpense(ctx, e.ID, limit)
}

func (u *Usecase) appendLog(ctx context.Context, e *domain.Expense, action audit.Action, performedBy string, meta map[string]any) {
	entry := &audit.ExpenseLog{
		ExpenseID:       e.ID,
		Action:          action,
		PerformedBy:     performedBy,
		PerformedByRole: domain.RoleEmployee,
		PreviousStatus:  domain.StatusPending,
		NewStatus:       e.Status,
		Metadata:        meta,
		Timestamp:       time.Now().UTC(),
	}
	if err := u.logs.Append(ctx, entry); err != nil {
		log.Printf("expense: audit append failed for expense %s: %v", e.ExpenseID, err)
	}
}

func newPage(items []domain.Expense, total int64, f domain.ListFilter) *ListPage {
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	dtos := make([]*ExpenseDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, toDTO(&items[i]))
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return &ListPage{Items: dtos, Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

func mapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
