package expense

import "time"

type RuleType string

const (
	RulePercentage       RuleType = "PERCENTAGE"
	RuleSpecific         RuleType = "SPECIFIC"
	RuleHybrid           RuleType = "HYBRID"
	RuleAmountThreshold  RuleType = "AMOUNT_THRESHOLD"
	RuleCategorySpecific RuleType = "CATEGORY_SPECIFIC"
)

// RuleAction is what a triggered rule demands. Only APPROVE-producing rule
// types exist today; REJECT is reserved for future rule kinds.
type RuleAction string

const (
	RuleActionApprove RuleAction = "APPROVE"
	RuleActionReject  RuleAction = "REJECT"
)

// HybridCondition is one OR-branch of a HYBRID rule. Only PERCENTAGE and
// SPECIFIC sub-conditions are defined.
type HybridCondition struct {
	Type         RuleType `json:"type"`
	Threshold    float64  `json:"threshold,omitempty"`
	ApproverRole Role     `json:"approver_role,omitempty"`
}

// ConditionalRule is a configured predicate attached to an expense. The Type
// tag decides which parameter fields are meaningful:
//
//	PERCENTAGE        Threshold (percent of approved steps)
//	SPECIFIC          ApproverRole and/or ApproverID
//	HYBRID            Conditions (OR of sub-conditions)
//	AMOUNT_THRESHOLD  Threshold (converted amount)
//	CATEGORY_SPECIFIC Category + ApproverRole
type ConditionalRule struct {
	ID           string            `json:"id"`
	Type         RuleType          `json:"type"`
	Description  string            `json:"description,omitempty"`
	Threshold    float64           `json:"threshold,omitempty"`
	ApproverRole Role              `json:"approver_role,omitempty"`
	ApproverID   string            `json:"approver_id,omitempty"`
	Category     Category          `json:"category,omitempty"`
	Conditions   []HybridCondition `json:"conditions,omitempty"`
}

// RuleEvaluation is one append-only history entry: a single rule checked
// against a single approval action.
type RuleEvaluation struct {
	RuleID          string         `json:"rule_id"`
	RuleType        RuleType       `json:"rule_type"`
	RuleDescription string         `json:"rule_description,omitempty"`
	Triggered       bool           `json:"triggered"`
	Action          RuleAction     `json:"action,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
	EvaluatedBy     string         `json:"evaluated_by"`
	EvaluatedByRole Role           `json:"evaluated_by_role"`
}
