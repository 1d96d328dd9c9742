package workflow

import (
	"context"
	"errors"
	"log"
	"time"

	"expense-approval-backend/internal/domain/audit"
	"expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/notification"
	"expense-approval-backend/internal/domain/uow"

	"gorm.io/gorm"
)

// Usecase drives an expense through its approval lifecycle: chain build at
// start, step-by-step approve/reject, conditional-rule short-circuits. All
// mutations run inside a row-locking transaction; audit entries and
// notifications are dispatched only after the durable commit, and their
// failures are logged and swallowed.
type Usecase struct {
	expenses expense.Repository
	logs     audit.Repository
	tx       uow.UnitOfWork

	chain    *ChainBuilder
	eval     Evaluator
	catalog  RuleCatalog
	notifier notification.Notifier

	// legacy: let a second start rebuild the chain and reset progress
	allowRestart bool
}

func NewUsecase(expenses expense.Repository, logs audit.Repository, tx uow.UnitOfWork, chain *ChainBuilder, catalog RuleCatalog, notifier notification.Notifier, allowRestart bool) *Usecase {
	return &Usecase{
		expenses:     expenses,
		logs:         logs,
		tx:           tx,
		chain:        chain,
		catalog:      catalog,
		notifier:     notifier,
		allowRestart: allowRestart,
	}
}

// StartApproval builds and persists the approval chain for a PENDING expense
// owned by the caller, then notifies the first approver.
func (u *Usecase) StartApproval(ctx context.Context, in StartInput) (*ExpenseDTO, error) {
	if u.tx == nil {
		return nil, expense.ErrInvalidState
	}

	var done *expense.Expense
	err := u.tx.WithinExpenseTx(ctx, in.ExpenseID, func(r uow.Repos, e *expense.Expense) error {
		if e.EmployeeID != in.EmployeeID || e.CompanyID != in.CompanyID {
			return expense.ErrNotFound
		}
		if e.Status != expense.StatusPending {
			return expense.ErrInvalidState
		}
		if e.TotalApprovalSteps > 0 && !u.allowRestart {
			return expense.ErrAlreadyStarted
		}

		steps, descriptor, err := u.chain.Build(ctx, e, in.Options)
		if err != nil {
			return err
		}

		e.Approvals = steps
		e.CurrentApprovalStep = 0
		e.TotalApprovalSteps = len(steps)
		e.ApprovalRules = descriptor
		e.CurrentApproverRole = steps[0].ApproverRole
		e.StatusUpdatedAt = time.Now().UTC()

		if err := r.Expenses.Save(ctx, e); err != nil {
			return err
		}
		done = e
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.appendLog(ctx, &audit.ExpenseLog{
		ExpenseID:       done.ID,
		Action:          audit.ActionSubmitted,
		PerformedBy:     in.EmployeeID,
		PerformedByRole: expense.RoleEmployee,
		PreviousStatus:  expense.StatusPending,
		NewStatus:       expense.StatusPending,
		Metadata: map[string]any{
			"message":        "Expense submitted for approval",
			"approval_rules": done.ApprovalRules.Type,
			"total_steps":    done.TotalApprovalSteps,
		},
	})
	u.notifyCurrentStep(ctx, done)

	return toDTO(done), nil
}

// Approve marks the current step approved and advances, finalizes, or
// short-circuits according to the conditional rules.
func (u *Usecase) Approve(ctx context.Context, in ActionInput) (*ExpenseDTO, error) {
	if u.tx == nil {
		return nil, expense.ErrInvalidState
	}

	var (
		done      *expense.Expense
		prevStep  int
		autoFired bool
	)
	err := u.tx.WithinExpenseTx(ctx, in.ExpenseID, func(r uow.Repos, e *expense.Expense) error {
		if e.Status != expense.StatusPending {
			return expense.ErrInvalidState
		}
		step := e.CurrentStep()
		if step == nil {
			return expense.ErrNoCurrentStep
		}
		if step.Status != expense.StepPending {
			return expense.ErrInvalidState
		}
		if step.ApproverRole != in.ApproverRole {
			return expense.ErrNotAuthorized
		}

		prevStep = e.CurrentApprovalStep
		now := time.Now().UTC()
		step.Status = expense.StepApproved
		step.Comments = in.Comments
		step.ActedAt = &now

		outcome := u.eval.Evaluate(e, expense.StepApproved, in.ApproverRole, in.ApproverID)

		switch {
		case outcome.ShouldAutoReject:
			autoFired = true
			u.finalize(e, expense.StatusRejected, in)
		case outcome.ShouldAutoApprove:
			autoFired = true
			u.finalize(e, expense.StatusApproved, in)
		case e.CurrentApprovalStep == e.TotalApprovalSteps-1:
			u.finalize(e, expense.StatusApproved, in)
		default:
			e.CurrentApprovalStep++
			e.CurrentApproverRole = e.Approvals[e.CurrentApprovalStep].ApproverRole
			e.StatusUpdatedAt = now
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

	action := audit.ActionApproved
	if autoFired && done.Status == expense.StatusApproved {
		action = audit.ActionAutoApproved
	}
	u.appendLog(ctx, &audit.ExpenseLog{
		ExpenseID:       done.ID,
		Action:          action,
		PerformedBy:     in.ApproverID,
		PerformedByRole: in.ApproverRole,
		PreviousStatus:  expense.StatusPending,
		NewStatus:       done.Status,
		PreviousStep:    prevStep,
		NewStep:         done.CurrentApprovalStep,
		Comments:        in.Comments,
		Metadata: map[string]any{
			"rules_evaluated":   len(done.ConditionalRules),
			"is_final_approval": done.Status == expense.StatusApproved,
		},
	})

	if done.Status == expense.StatusPending {
		u.notifyCurrentStep(ctx, done)
	} else {
		u.notifyFinalized(ctx, done)
	}
	return toDTO(done), nil
}

// Reject marks the current step rejected and terminates the workflow.
// Rejection is always terminal; conditional rules are not consulted.
func (u *Usecase) Reject(ctx context.Context, in ActionInput) (*ExpenseDTO, error) {
	if u.tx == nil {
		return nil, expense.ErrInvalidState
	}

	var (
		done     *expense.Expense
		prevStep int
	)
	err := u.tx.WithinExpenseTx(ctx, in.ExpenseID, func(r uow.Repos, e *expense.Expense) error {
		if e.Status != expense.StatusPending {
			return expense.ErrInvalidState
		}
		step := e.CurrentStep()
		if step == nil {
			return expense.ErrNoCurrentStep
		}
		if step.Status != expense.StepPending {
			return expense.ErrInvalidState
		}
		if step.ApproverRole != in.ApproverRole {
			return expense.ErrNotAuthorized
		}

		prevStep = e.CurrentApprovalStep
		now := time.Now().UTC()
		step.Status = expense.StepRejected
		step.Comments = in.Comments
		step.ActedAt = &now

		// The cursor stays where it was; only the status turns terminal.
		u.finalize(e, expense.StatusRejected, in)

		if err := r.Expenses.Save(ctx, e); err != nil {
			return err
		}
		done = e
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.appendLog(ctx, &audit.ExpenseLog{
		ExpenseID:       done.ID,
		Action:          audit.ActionRejected,
		PerformedBy:     in.ApproverID,
		PerformedByRole: in.ApproverRole,
		PreviousStatus:  expense.StatusPending,
		NewStatus:       expense.StatusRejected,
		PreviousStep:    prevStep,
		NewStep:         done.CurrentApprovalStep,
		Comments:        in.Comments,
	})
	u.notifyFinalized(ctx, done)

	return toDTO(done), nil
}

// GetPending returns PENDING expenses in the company whose current step is
// gated on the caller's role. The store narrows by the denormalized role
// column; the current step is re-verified here.
func (u *Usecase) GetPending(ctx context.Context, approverID string, approverRole expense.Role, companyID string) ([]*ExpenseDTO, error) {
	list, err := u.expenses.ListPendingForRole(ctx, companyID, approverRole)
	if err != nil {
		return nil, err
	}
	out := make([]*ExpenseDTO, 0, len(list))
	for i := range list {
		e := &list[i]
		step := e.CurrentStep()
		if step == nil || step.Status != expense.StepPending || step.ApproverRole != approverRole {
			continue
		}
		out = append(out, toDTO(e))
	}
	return out, nil
}

// ApplyRules attaches catalog rules to a PENDING expense. An empty id list
// attaches the whole catalog. The evaluation history is never reset.
func (u *Usecase) ApplyRules(ctx context.Context, expenseID string, ruleIDs []string) (*ExpenseDTO, error) {
	if u.tx == nil {
		return nil, expense.ErrInvalidState
	}

	var done *expense.Expense
	err := u.tx.WithinExpenseTx(ctx, expenseID, func(r uow.Repos, e *expense.Expense) error {
		if e.Status != expense.StatusPending {
			return expense.ErrInvalidState
		}
		e.ConditionalRules = Select(u.catalog, ruleIDs)
		if err := r.Expenses.Save(ctx, e); err != nil {
			return err
		}
		done = e
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return toDTO(done), nil
}

// AvailableRules exposes the catalog.
func (u *Usecase) AvailableRules() []expense.ConditionalRule {
	return u.catalog.Load()
}

// History returns the expense, its chain, and its audit trail, scoped to the
// owning employee.
func (u *Usecase) History(ctx context.Context, expenseID, employeeID, companyID string) (*HistoryDTO, error) {
	e, err := u.expenses.GetByExpenseIDAndOwner(ctx, expenseID, employeeID, companyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	logs, err := u.logs.ListByExpense(ctx, e.ID, 50)
	if err != nil {
		return nil, err
	}
	return &HistoryDTO{
		Expense:      toDTO(e),
		ApprovalFlow: e.Approvals,
		History:      logs,
	}, nil
}

// RuleSummary condenses the rule evaluation history of an expense.
func (u *Usecase) RuleSummary(ctx context.Context, expenseID string) (*RuleSummaryDTO, error) {
	e, err := u.expenses.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	sum := &RuleSummaryDTO{
		TotalRules: len(e.RulesEvaluated),
		Rules:      e.RulesEvaluated,
	}
	for _, ev := range e.RulesEvaluated {
		if !ev.Triggered {
			continue
		}
		sum.TriggeredRules++
		if ev.Action == expense.RuleActionApprove {
			sum.AutoApproved = true
		}
		if ev.Action == expense.RuleActionReject {
			sum.AutoRejected = true
		}
	}
	if n := len(e.RulesEvaluated); n > 0 {
		t := e.RulesEvaluated[n-1].EvaluatedAt
		sum.LastEvaluation = &t
	}
	return sum, nil
}

// Statistics groups company expenses by status with summed amounts.
func (u *Usecase) Statistics(ctx context.Context, companyID string) ([]expense.StatusTotal, error) {
	return u.expenses.CountByStatus(ctx, companyID)
}

func (u *Usecase) finalize(e *expense.Expense, status expense.Status, in ActionInput) {
	now := time.Now().UTC()
	e.Status = status
	e.CurrentApproverRole = ""
	e.StatusUpdatedAt = now
	e.FinalActionAt = &now
	e.FinalComments = in.Comments
	if status == expense.StatusApproved {
		e.FinalApprovedBy = in.ApproverID
	} else {
		e.FinalRejectedBy = in.ApproverID
	}
}

// appendLog writes one audit entry after a committed transition. A sink
// failure is logged, never surfaced.
func (u *Usecase) appendLog(ctx context.Context, l *audit.ExpenseLog) {
	l.Timestamp = time.Now().UTC()
	if err := u.logs.Append(ctx, l); err != nil {
		log.Printf("workflow: audit append failed for expense %d: %v", l.ExpenseID, err)
	}
}

func (u *Usecase) notifyCurrentStep(ctx context.Context, e *expense.Expense) {
	step := e.CurrentStep()
	if step == nil || u.notifier == nil {
		return
	}
	if err := u.notifier.ApprovalRequested(ctx, e, *step); err != nil {
		log.Printf("workflow: notify approver failed for expense %s: %v", e.ExpenseID, err)
	}
}

func (u *Usecase) notifyFinalized(ctx context.Context, e *expense.Expense) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Finalized(ctx, e, e.Status); err != nil {
		log.Printf("workflow: notify finalized failed for expense %s: %v", e.ExpenseID, err)
	}
}

// mapStoreErr folds gorm's not-found into the domain sentinel.
func mapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return expense.ErrNotFound
	}
	return err
}
