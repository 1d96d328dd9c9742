package identity

import (
	"context"
	"fmt"

	"expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/identity"
)

// StaticResolver maps roles to fixed approver ids from configuration. It
// ignores the company id: the mock mapping is the same for every tenant. A
// real deployment swaps this for an org-chart lookup.
type StaticResolver struct {
	byRole map[expense.Role]string
}

var _ identity.Resolver = (*StaticResolver)(nil)

func NewStaticResolver(managerID, financeID, directorID string) *StaticResolver {
	return &StaticResolver{
		byRole: map[expense.Role]string{
			expense.RoleManager:  managerID,
			expense.RoleFinance:  financeID,
			expense.RoleDirector: directorID,
			// CFO and ADMIN share the director mock until real org data exists
			expense.RoleCFO:   directorID,
			expense.RoleAdmin: directorID,
		},
	}
}

func (r *StaticResolver) Resolve(_ context.Context, role expense.Role, _ string) (string, error) {
	id, ok := r.byRole[role]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %s", identity.ErrUnknownRole, role)
	}
	return id, nil
}
