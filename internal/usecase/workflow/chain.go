package workflow

import (
	"context"
	"fmt"

	"expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/identity"
)

// ChainConfig holds the amount tiers the builder cuts on. Amounts are in the
// company base currency (the expense's converted amount).
type ChainConfig struct {
	ManagerOnlyMax    float64 // <= : [MANAGER]
	ManagerFinanceMax float64 // <= : [MANAGER, FINANCE]; above: + DIRECTOR
}

// ChainOptions are caller overrides. DirectorOnly wins over ManagerOnly.
type ChainOptions struct {
	DirectorOnly bool `json:"director_only"`
	ManagerOnly  bool `json:"manager_only"`
}

// ChainBuilder turns an expense into an ordered list of approval steps. It
// is pure apart from approver-identity resolution and never mutates the
// expense; the caller assigns the result.
type ChainBuilder struct {
	cfg ChainConfig
	ids identity.Resolver
}

func NewChainBuilder(cfg ChainConfig, ids identity.Resolver) *ChainBuilder {
	return &ChainBuilder{cfg: cfg, ids: ids}
}

// Roles returns the role sequence for the given converted amount and
// overrides. Deterministic: same inputs, same sequence.
func (b *ChainBuilder) Roles(convertedAmount float64, opts ChainOptions) []expense.Role {
	switch {
	case opts.DirectorOnly:
		return []expense.Role{expense.RoleDirector}
	case opts.ManagerOnly:
		return []expense.Role{expense.RoleManager}
	case convertedAmount <= b.cfg.ManagerOnlyMax:
		return []expense.Role{expense.RoleManager}
	case convertedAmount <= b.cfg.ManagerFinanceMax:
		return []expense.Role{expense.RoleManager, expense.RoleFinance}
	default:
		return []expense.Role{expense.RoleManager, expense.RoleFinance, expense.RoleDirector}
	}
}

// Build produces the approval chain plus the descriptor recording how it was
// built. A role the resolver cannot map is a configuration error surfaced to
// the caller, not swallowed.
func (b *ChainBuilder) Build(ctx context.Context, e *expense.Expense, opts ChainOptions) ([]expense.ApprovalStep, expense.RulesDescriptor, error) {
	roles := b.Roles(e.ConvertedAmount, opts)

	steps := make([]expense.ApprovalStep, 0, len(roles))
	for i, role := range roles {
		approverID, err := b.ids.Resolve(ctx, role, e.CompanyID)
		if err != nil {
			return nil, expense.RulesDescriptor{}, fmt.Errorf("resolve approver for %s: %w", role, err)
		}
		steps = append(steps, expense.ApprovalStep{
			Step:         i + 1,
			ApproverID:   approverID,
			ApproverRole: role,
			Status:       expense.StepPending,
		})
	}

	return steps, b.describe(opts, roles), nil
}

func (b *ChainBuilder) describe(opts ChainOptions, roles []expense.Role) expense.RulesDescriptor {
	switch {
	case opts.DirectorOnly:
		return expense.RulesDescriptor{
			Type:        "DIRECTOR_ONLY",
			Description: "Director approval only - special authorization required",
		}
	case opts.ManagerOnly:
		return expense.RulesDescriptor{
			Type:        "MANAGER_ONLY",
			Description: "Manager approval only - expedited process",
		}
	default:
		return expense.RulesDescriptor{
			Type:        "SEQUENTIAL",
			Description: fmt.Sprintf("Sequential approval through %d step(s)", len(roles)),
		}
	}
}
