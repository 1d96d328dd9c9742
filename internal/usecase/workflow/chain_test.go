package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/identity"
)

// resolverFunc adapts a plain func to identity.Resolver for tests.
type resolverFunc func(ctx context.Context, role expense.Role, companyID string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, role expense.Role, companyID string) (string, error) {
	return f(ctx, role, companyID)
}

func testResolver() identity.Resolver {
	ids := map[expense.Role]string{
		expense.RoleManager:  "6d616e616765726d616e616765726d61",
		expense.RoleFinance:  "66696e616e636566696e616e63656669",
		expense.RoleDirector: "6469726563746f726469726563746f72",
	}
	return resolverFunc(func(_ context.Context, role expense.Role, _ string) (string, error) {
		id, ok := ids[role]
		if !ok {
			return "", identity.ErrUnknownRole
		}
		return id, nil
	})
}

func defaultChainConfig() ChainConfig {
	return ChainConfig{ManagerOnlyMax: 100, ManagerFinanceMax: 1000}
}

func TestRoles_AmountTiers(t *testing.T) {
	b := NewChainBuilder(defaultChainConfig(), testResolver())

	cases := []struct {
		name   string
		amount float64
		opts   ChainOptions
		want   []expense.Role
	}{
		{"small goes to manager only", 50, ChainOptions{}, []expense.Role{expense.RoleManager}},
		{"boundary 100 stays manager only", 100, ChainOptions{}, []expense.Role{expense.RoleManager}},
		{"medium adds finance", 500, ChainOptions{}, []expense.Role{expense.RoleManager, expense.RoleFinance}},
		{"boundary 1000 stays two steps", 1000, ChainOptions{}, []expense.Role{expense.RoleManager, expense.RoleFinance}},
		{"large adds director", 5000, ChainOptions{}, []expense.Role{expense.RoleManager, expense.RoleFinance, expense.RoleDirector}},
		{"director override skips tiers", 50, ChainOptions{DirectorOnly: true}, []expense.Role{expense.RoleDirector}},
		{"manager override skips tiers", 5000, ChainOptions{ManagerOnly: true}, []expense.Role{expense.RoleManager}},
		{"director override beats manager override", 5000, ChainOptions{DirectorOnly: true, ManagerOnly: true}, []expense.Role{expense.RoleDirector}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := b.Roles(tc.amount, tc.opts)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Roles(%v, %+v) = %v, want %v", tc.amount, tc.opts, got, tc.want)
			}
		})
	}
}

func TestRoles_Deterministic(t *testing.T) {
	b := NewChainBuilder(defaultChainConfig(), testResolver())
	first := b.Roles(750, ChainOptions{})
	for i := 0; i < 10; i++ {
		if got := b.Roles(750, ChainOptions{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("Roles not deterministic: run %d got %v, want %v", i, got, first)
		}
	}
}

func TestBuild_StepsAndDescriptor(t *testing.T) {
	b := NewChainBuilder(defaultChainConfig(), testResolver())
	e := &expense.Expense{ConvertedAmount: 5000, CompanyID: "c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0"}

	steps, desc, err := b.Build(context.Background(), e, ChainOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("want 3 steps, got %d", len(steps))
	}
	for i, s := range steps {
		if s.Step != i+1 {
			t.Errorf("step %d numbered %d", i, s.Step)
		}
		if s.Status != expense.StepPending {
			t.Errorf("step %d status = %s, want PENDING", i, s.Status)
		}
		if s.ApproverID == "" {
			t.Errorf("step %d has no approver id", i)
		}
	}
	if steps[0].ApproverRole != expense.RoleManager || steps[2].ApproverRole != expense.RoleDirector {
		t.Fatalf("unexpected role order: %+v", steps)
	}
	if desc.Type != "SEQUENTIAL" {
		t.Fatalf("descriptor type = %s, want SEQUENTIAL", desc.Type)
	}
}

func TestBuild_DescriptorOverrides(t *testing.T) {
	b := NewChainBuilder(defaultChainConfig(), testResolver())
	e := &expense.Expense{ConvertedAmount: 50}

	_, desc, err := b.Build(context.Background(), e, ChainOptions{DirectorOnly: true})
	if err != nil {
		t.Fatalf("Build director-only: %v", err)
	}
	if desc.Type != "DIRECTOR_ONLY" {
		t.Fatalf("descriptor = %s, want DIRECTOR_ONLY", desc.Type)
	}

	_, desc, err = b.Build(context.Background(), e, ChainOptions{ManagerOnly: true})
	if err != nil {
		t.Fatalf("Build manager-only: %v", err)
	}
	if desc.Type != "MANAGER_ONLY" {
		t.Fatalf("descriptor = %s, want MANAGER_ONLY", desc.Type)
	}
}

func TestBuild_ResolverErrorSurfaces(t *testing.T) {
	failing := resolverFunc(func(context.Context, expense.Role, string) (string, error) {
		return "", identity.ErrUnknownRole
	})
	b := NewChainBuilder(defaultChainConfig(), failing)

	_, _, err := b.Build(context.Background(), &expense.Expense{ConvertedAmount: 50}, ChainOptions{})
	if !errors.Is(err, identity.ErrUnknownRole) {
		t.Fatalf("want ErrUnknownRole, got %v", err)
	}
}
