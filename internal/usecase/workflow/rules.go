package workflow

import (
	"fmt"
	"time"

	"expense-approval-backend/internal/domain/expense"
)

// Outcome aggregates one pass of the evaluator over every attached rule.
// RejectWins: if both flags end up set, FinalDecision is REJECTED.
type Outcome struct {
	ShouldAutoApprove bool
	ShouldAutoReject  bool
	FinalDecision     expense.Status // empty when no rule fired
	Evaluated         []expense.RuleEvaluation
}

// Evaluator checks an expense's conditional rules against the action just
// performed. Stateless; safe to share.
type Evaluator struct{}

// Evaluate runs every attached rule in storage order. Each rule always gets
// a RuleEvaluation appended to e.RulesEvaluated, triggered or not; a rule
// that cannot be evaluated is recorded as not triggered with an error detail
// and never aborts the others. Persistence is the caller's job.
func (Evaluator) Evaluate(e *expense.Expense, action expense.StepStatus, approverRole expense.Role, approverID string) Outcome {
	out := Outcome{}
	if len(e.ConditionalRules) == 0 {
		return out
	}

	now := time.Now().UTC()
	for _, rule := range e.ConditionalRules {
		ev := evaluateOne(e, rule, action, approverRole, approverID)
		ev.EvaluatedAt = now
		out.Evaluated = append(out.Evaluated, ev)

		if ev.Triggered && ev.Action == expense.RuleActionApprove {
			out.ShouldAutoApprove = true
		}
		if ev.Triggered && ev.Action == expense.RuleActionReject {
			out.ShouldAutoReject = true
		}
	}

	// Reject wins over approve when rules conflict.
	switch {
	case out.ShouldAutoReject:
		out.FinalDecision = expense.StatusRejected
	case out.ShouldAutoApprove:
		out.FinalDecision = expense.StatusApproved
	}

	e.RulesEvaluated = append(e.RulesEvaluated, out.Evaluated...)
	return out
}

func evaluateOne(e *expense.Expense, rule expense.ConditionalRule, action expense.StepStatus, approverRole expense.Role, approverID string) expense.RuleEvaluation {
	ev := expense.RuleEvaluation{
		RuleID:          rule.ID,
		RuleType:        rule.Type,
		RuleDescription: rule.Description,
		EvaluatedBy:     approverID,
		EvaluatedByRole: approverRole,
	}
	if ev.RuleID == "" {
		ev.RuleID = fmt.Sprintf("rule_%d", time.Now().UnixMilli())
	}

	switch rule.Type {
	case expense.RulePercentage:
		ev.Triggered = action == expense.StepApproved && e.ApprovalPercentage() >= int(rule.Threshold)
		ev.Details = map[string]any{
			"threshold":          rule.Threshold,
			"current_percentage": e.ApprovalPercentage(),
		}

	case expense.RuleSpecific:
		ev.Triggered = action == expense.StepApproved &&
			((rule.ApproverRole != "" && approverRole == rule.ApproverRole) ||
				(rule.ApproverID != "" && approverID == rule.ApproverID))
		ev.Details = map[string]any{
			"required_role":         rule.ApproverRole,
			"required_approver_id":  rule.ApproverID,
			"current_approver_role": approverRole,
			"current_approver_id":   approverID,
		}

	case expense.RuleHybrid:
		ev.Triggered = action == expense.StepApproved && anyHybridConditionMet(e, rule.Conditions, approverRole)
		ev.Details = map[string]any{
			"conditions":         rule.Conditions,
			"current_percentage": e.ApprovalPercentage(),
			"approved_steps":     e.ApprovedSteps(),
			"total_steps":        e.TotalApprovalSteps,
		}

	case expense.RuleAmountThreshold:
		ev.Triggered = action == expense.StepApproved && e.ConvertedAmount >= rule.Threshold
		ev.Details = map[string]any{
			"threshold":      rule.Threshold,
			"current_amount": e.ConvertedAmount,
			"currency":       e.Currency,
		}

	case expense.RuleCategorySpecific:
		ev.Triggered = action == expense.StepApproved &&
			e.Category == rule.Category && approverRole == rule.ApproverRole
		ev.Details = map[string]any{
			"required_category": rule.Category,
			"current_category":  e.Category,
			"required_role":     rule.ApproverRole,
		}

	default:
		ev.Details = map[string]any{"error": fmt.Sprintf("unknown rule type: %s", rule.Type)}
	}

	if ev.Triggered {
		ev.Action = expense.RuleActionApprove
	}
	return ev
}

// anyHybridConditionMet is a logical OR; the first satisfied sub-condition
// short-circuits.
func anyHybridConditionMet(e *expense.Expense, conds []expense.HybridCondition, approverRole expense.Role) bool {
	for _, c := range conds {
		switch c.Type {
		case expense.RulePercentage:
			if e.ApprovalPercentage() >= int(c.Threshold) {
				return true
			}
		case expense.RuleSpecific:
			if c.ApproverRole != "" && approverRole == c.ApproverRole {
				return true
			}
		}
	}
	return false
}
