package http

import (
	"context"
	"net/http"

	uc "expense-approval-backend/internal/usecase/workflow"

	"github.com/labstack/echo/v4"
)

type ApprovalHandler struct{ uc *uc.Usecase }

func NewApprovalHandler(u *uc.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: u} }

type startApprovalReq struct {
	DirectorOnly bool `json:"director_only"`
	ManagerOnly  bool `json:"manager_only"`
}

type approvalActionReq struct {
	Comments string `json:"comments" validate:"omitempty,max=500"`
}

type applyRulesReq struct {
	RuleIDs []string `json:"rule_ids"`
}

func (h *ApprovalHandler) Start(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	var req startApprovalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	dto, err := h.uc.StartApproval(c.Request().Context(), uc.StartInput{
		ExpenseID:  c.Param("expense_id"),
		EmployeeID: who.EmployeeID,
		CompanyID:  who.CompanyID,
		Options:    uc.ChainOptions{DirectorOnly: req.DirectorOnly, ManagerOnly: req.ManagerOnly},
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	return h.act(c, h.uc.Approve)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	return h.act(c, h.uc.Reject)
}

func (h *ApprovalHandler) act(c echo.Context, do func(ctx context.Context, in uc.ActionInput) (*uc.ExpenseDTO, error)) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	var req approvalActionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := do(c.Request().Context(), uc.ActionInput{
		ExpenseID:    c.Param("expense_id"),
		ApproverID:   who.EmployeeID,
		ApproverRole: who.Role,
		Comments:     req.Comments,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Pending(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	list, err := h.uc.GetPending(c.Request().Context(), who.EmployeeID, who.Role, who.CompanyID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"expenses": list, "count": len(list)})
}

func (h *ApprovalHandler) ApplyRules(c echo.Context) error {
	if _, err := callerIdentity(c); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	var req applyRulesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	dto, err := h.uc.ApplyRules(c.Request().Context(), c.Param("expense_id"), req.RuleIDs)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) AvailableRules(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"rules": h.uc.AvailableRules()})
}

func (h *ApprovalHandler) History(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.History(c.Request().Context(), c.Param("expense_id"), who.EmployeeID, who.CompanyID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RuleSummary(c echo.Context) error {
	dto, err := h.uc.RuleSummary(c.Request().Context(), c.Param("expense_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Statistics(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	totals, err := h.uc.Statistics(c.Request().Context(), who.CompanyID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"statistics": totals})
}
