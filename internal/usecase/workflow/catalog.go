package workflow

import "expense-approval-backend/internal/domain/expense"

// RuleCatalog supplies the conditional rules a caller may attach. The engine
// does not validate definitions beyond the per-type parameter shape.
type RuleCatalog interface {
	Load() []expense.ConditionalRule
}

// StaticCatalog is the configuration-sourced catalog used today.
type StaticCatalog struct{}

func (StaticCatalog) Load() []expense.ConditionalRule {
	return []expense.ConditionalRule{
		{
			ID:          "rule_percentage_60",
			Type:        expense.RulePercentage,
			Description: "Auto-approve when 60% of approvals are received",
			Threshold:   60,
		},
		{
			ID:           "rule_specific_cfo",
			Type:         expense.RuleSpecific,
			Description:  "Auto-approve when CFO approves",
			ApproverRole: expense.RoleCFO,
		},
		{
			ID:          "rule_hybrid_60_or_cfo",
			Type:        expense.RuleHybrid,
			Description: "Auto-approve when 60% OR CFO approves",
			Conditions: []expense.HybridCondition{
				{Type: expense.RulePercentage, Threshold: 60},
				{Type: expense.RuleSpecific, ApproverRole: expense.RoleCFO},
			},
		},
		{
			ID:          "rule_amount_1000",
			Type:        expense.RuleAmountThreshold,
			Description: "Auto-approve when amount >= $1000",
			Threshold:   1000,
		},
		{
			ID:           "rule_category_office_supplies",
			Type:         expense.RuleCategorySpecific,
			Description:  "Auto-approve when OFFICE_SUPPLIES category and DIRECTOR approves",
			Category:     expense.CategoryOfficeSupplies,
			ApproverRole: expense.RoleDirector,
		},
	}
}

// Select returns catalog rules matching the ids; an empty id list selects
// the whole catalog.
func Select(c RuleCatalog, ruleIDs []string) []expense.ConditionalRule {
	all := c.Load()
	if len(ruleIDs) == 0 {
		return all
	}
	want := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		want[id] = true
	}
	out := make([]expense.ConditionalRule, 0, len(ruleIDs))
	for _, r := range all {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
