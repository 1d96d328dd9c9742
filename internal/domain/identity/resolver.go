package identity

import (
	"context"
	"errors"

	"expense-approval-backend/internal/domain/expense"
)

var ErrUnknownRole = errors.New("no approver configured for role")

// Resolver answers "who is the approver for role X in company Y". The chain
// builder depends on this interface only; today's implementation is a static
// per-company mapping, a real one would query an org chart.
type Resolver interface {
	Resolve(ctx context.Context, role expense.Role, companyID string) (string, error)
}
