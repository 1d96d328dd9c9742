package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	domain "expense-approval-backend/internal/domain/expense"
	"expense-approval-backend/internal/domain/identity"
	"expense-approval-backend/internal/domain/uow"
	"expense-approval-backend/internal/testutil/auditmock"
	"expense-approval-backend/internal/testutil/expensemock"
	"expense-approval-backend/internal/testutil/uowmock"
	uc "expense-approval-backend/internal/usecase/workflow"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// -------- helpers --------

type staticResolver map[domain.Role]string

func (r staticResolver) Resolve(_ context.Context, role domain.Role, _ string) (string, error) {
	id, ok := r[role]
	if !ok {
		return "", identity.ErrUnknownRole
	}
	return id, nil
}

type nopNotifier struct{}

func (nopNotifier) ApprovalRequested(context.Context, *domain.Expense, domain.ApprovalStep) error {
	return nil
}
func (nopNotifier) Finalized(context.Context, *domain.Expense, domain.Status) error { return nil }

// newWorkflowUsecase wires the workflow against a single in-memory expense,
// the same way the real UoW hands the locked row to the transaction body.
func newWorkflowUsecase(store *domain.Expense) *uc.Usecase {
	repo := &expensemock.Repo{
		GetByExpenseIDFn: func(_ context.Context, id string) (*domain.Expense, error) {
			if store != nil && store.ExpenseID == id {
				return store, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		GetByExpenseIDAndOwnerFn: func(_ context.Context, id, emp, co string) (*domain.Expense, error) {
			if store != nil && store.ExpenseID == id && store.EmployeeID == emp && store.CompanyID == co {
				return store, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		ListPendingForRoleFn: func(_ context.Context, co string, role domain.Role) ([]domain.Expense, error) {
			if store != nil && store.CompanyID == co && store.Status == domain.StatusPending && store.CurrentApproverRole == role {
				return []domain.Expense{*store}, nil
			}
			return nil, nil
		},
	}
	logs := &auditmock.Repo{}
	tx := &uowmock.UoW{
		WithinExpenseTxFn: func(ctx context.Context, id string, fn func(r uow.Repos, e *domain.Expense) error) error {
			if store == nil || store.ExpenseID != id {
				return gorm.ErrRecordNotFound
			}
			return fn(uow.Repos{Expenses: repo, Logs: logs}, store)
		},
	}
	resolver := staticResolver{
		domain.RoleManager:  "6d616e616765726d616e616765726d61",
		domain.RoleFinance:  "66696e616e636566696e616e63656669",
		domain.RoleDirector: "6469726563746f726469726563746f72",
	}
	chain := uc.NewChainBuilder(uc.ChainConfig{ManagerOnlyMax: 100, ManagerFinanceMax: 1000}, resolver)
	return uc.NewUsecase(repo, logs, tx, chain, uc.StaticCatalog{}, nopNotifier{}, false)
}

func pendingStoreExpense(converted float64) *domain.Expense {
	return &domain.Expense{
		ID:              11,
		ExpenseID:       "abababababababababababababababab",
		EmployeeID:      testEmployeeID,
		CompanyID:       testCompanyID,
		Amount:          converted,
		Currency:        "USD",
		ConvertedAmount: converted,
		ConversionRate:  1,
		Category:        domain.CategoryTravel,
		Status:          domain.StatusPending,
	}
}

func approvalCtx(e *echo.Echo, method, target, role string, body map[string]any, expenseID string) (echo.Context, *httptest.ResponseRecorder) {
	var req *stdhttp.Request
	if body != nil {
		req = httptest.NewRequest(method, target, mustJSON(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	authHeaders(req, role)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if expenseID != "" {
		c.SetParamNames("expense_id")
		c.SetParamValues(expenseID)
	}
	return c, rec
}

// -------- tests --------

func TestStartApproval_Success(t *testing.T) {
	e := newEchoWithValidator()
	store := pendingStoreExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPost, "/api/approvals/start/"+store.ExpenseID, "", map[string]any{}, store.ExpenseID)
	if err := h.Start(c); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var got uc.ExpenseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.TotalApprovalSteps != 2 {
		t.Fatalf("500 should need two steps, got %d", got.TotalApprovalSteps)
	}
	if store.CurrentApproverRole != domain.RoleManager {
		t.Fatalf("cursor role = %s, want MANAGER", store.CurrentApproverRole)
	}
}

func TestStartApproval_DirectorOnlyOverride(t *testing.T) {
	e := newEchoWithValidator()
	store := pendingStoreExpense(50)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPost, "/api/approvals/start/"+store.ExpenseID, "",
		map[string]any{"director_only": true}, store.ExpenseID)
	if err := h.Start(c); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if len(store.Approvals) != 1 || store.Approvals[0].ApproverRole != domain.RoleDirector {
		t.Fatalf("override not applied: %+v", store.Approvals)
	}
}

func TestStartApproval_AlreadyStarted(t *testing.T) {
	e := newEchoWithValidator()
	store := pendingStoreExpense(500)
	store.Approvals = []domain.ApprovalStep{
		{Step: 1, ApproverRole: domain.RoleManager, Status: domain.StepPending},
	}
	store.TotalApprovalSteps = 1
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPost, "/api/approvals/start/"+store.ExpenseID, "", map[string]any{}, store.ExpenseID)
	if err := h.Start(c); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body)
	}
}

func TestStartApproval_NotOwner(t *testing.T) {
	e := newEchoWithValidator()
	store := pendingStoreExpense(500)
	store.EmployeeID = "f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0" // someone else's
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPost, "/api/approvals/start/"+store.ExpenseID, "", map[string]any{}, store.ExpenseID)
	if err := h.Start(c); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
}

func startedExpense(converted float64) *domain.Expense {
	store := pendingStoreExpense(converted)
	store.Approvals = []domain.ApprovalStep{
		{Step: 1, ApproverID: "6d616e616765726d616e616765726d61", ApproverRole: domain.RoleManager, Status: domain.StepPending},
		{Step: 2, ApproverID: "66696e616e636566696e616e63656669", ApproverRole: domain.RoleFinance, Status: domain.StepPending},
	}
	store.TotalApprovalSteps = 2
	store.CurrentApproverRole = domain.RoleManager
	store.ApprovalRules = domain.RulesDescriptor{Type: "SEQUENTIAL"}
	return store
}

func TestApprove_Success(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPatch, "/api/approvals/approve/"+store.ExpenseID, "MANAGER",
		map[string]any{"comments": "looks fine"}, store.ExpenseID)
	if err := h.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var got uc.ExpenseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.CurrentApprovalStep != 1 || got.Status != domain.StatusPending {
		t.Fatalf("cursor should advance to finance: %+v", got)
	}
	if store.CurrentApproverRole != domain.RoleFinance {
		t.Fatalf("role = %s, want FINANCE", store.CurrentApproverRole)
	}
}

func TestApprove_RoleMismatch(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	// finance acting while the cursor waits on manager
	c, rec := approvalCtx(e, stdhttp.MethodPatch, "/api/approvals/approve/"+store.ExpenseID, "FINANCE",
		map[string]any{}, store.ExpenseID)
	if err := h.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body)
	}
	if store.Approvals[0].Status != domain.StepPending {
		t.Fatalf("step must stay untouched on refusal: %+v", store.Approvals[0])
	}
}

func TestApprove_CommentsTooLong(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	c, rec := approvalCtx(e, stdhttp.MethodPatch, "/api/approvals/approve/"+store.ExpenseID, "MANAGER",
		map[string]any{"comments": string(long)}, store.ExpenseID)
	if err := h.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body)
	}
}

func TestReject_Success(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPatch, "/api/approvals/reject/"+store.ExpenseID, "MANAGER",
		map[string]any{"comments": "no receipt"}, store.ExpenseID)
	if err := h.Reject(c); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if store.Status != domain.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", store.Status)
	}
}

func TestPending_ForRole(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodGet, "/api/approvals/pending", "MANAGER", nil, "")
	if err := h.Pending(c); err != nil {
		t.Fatalf("Pending error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		Expenses []uc.ExpenseDTO `json:"expenses"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Count != 1 || len(got.Expenses) != 1 {
		t.Fatalf("manager should see the queued expense: %+v", got)
	}
}

func TestApplyRules_TerminalConflict(t *testing.T) {
	e := newEchoWithValidator()
	store := startedExpense(500)
	store.Status = domain.StatusApproved
	h := NewApprovalHandler(newWorkflowUsecase(store))

	c, rec := approvalCtx(e, stdhttp.MethodPost, "/api/approvals/rules/"+store.ExpenseID, "",
		map[string]any{"rule_ids": []string{"rule-percentage-60"}}, store.ExpenseID)
	if err := h.ApplyRules(c); err != nil {
		t.Fatalf("ApplyRules error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body)
	}
}

func TestAvailableRules(t *testing.T) {
	e := newEchoWithValidator()
	h := NewApprovalHandler(newWorkflowUsecase(nil))

	c, rec := approvalCtx(e, stdhttp.MethodGet, "/api/approvals/rules", "", nil, "")
	if err := h.AvailableRules(c); err != nil {
		t.Fatalf("AvailableRules error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		Rules []domain.ConditionalRule `json:"rules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got.Rules) == 0 {
		t.Fatalf("catalog should not be empty")
	}
}

func TestHistory_NotFound(t *testing.T) {
	e := newEchoWithValidator()
	h := NewApprovalHandler(newWorkflowUsecase(nil))

	c, rec := approvalCtx(e, stdhttp.MethodGet, "/api/approvals/history/ffffffffffffffffffffffffffffffff", "", nil,
		"ffffffffffffffffffffffffffffffff")
	if err := h.History(c); err != nil {
		t.Fatalf("History error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
}
