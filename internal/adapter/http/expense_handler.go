package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "expense-approval-backend/internal/domain/expense"
	uc "expense-approval-backend/internal/usecase/expense"

	"github.com/labstack/echo/v4"
)

type ExpenseHandler struct{ uc *uc.Usecase }

func NewExpenseHandler(u *uc.Usecase) *ExpenseHandler { return &ExpenseHandler{uc: u} }

type createExpenseReq struct {
	Amount      float64 `json:"amount"        validate:"required,gt=0,dec2"`
	Currency    string  `json:"currency"      validate:"required,currency3"`
	Category    string  `json:"category"      validate:"required,category"`
	Description string  `json:"description"   validate:"required,max=1000"`
	// Canonical date `YYYY-MM-DD`
	Date       string `json:"date"          validate:"required,datetime=2006-01-02"`
	ReceiptURL string `json:"receipt_url"   validate:"omitempty,url"`
}

type updateExpenseReq struct {
	Amount      *float64 `json:"amount"        validate:"omitempty,gt=0,dec2"`
	Currency    *string  `json:"currency"      validate:"omitempty,currency3"`
	Category    *string  `json:"category"      validate:"omitempty,category"`
	Description *string  `json:"description"   validate:"omitempty,max=1000"`
	Date        *string  `json:"date"          validate:"omitempty,datetime=2006-01-02"`
	ReceiptURL  *string  `json:"receipt_url"   validate:"omitempty,url"`
}

func (h *ExpenseHandler) Create(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	var req createExpenseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	dto, err := h.uc.Create(c.Request().Context(), uc.CreateInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    domain.Category(strings.ToUpper(req.Category)),
		Description: req.Description,
		Date:        date,
		ReceiptURL:  req.ReceiptURL,
	}, who.EmployeeID, who.CompanyID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ExpenseHandler) Get(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("expense_id"), who.EmployeeID, who.CompanyID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ExpenseHandler) ListMine(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	page, err := h.uc.ListMine(c.Request().Context(), who.EmployeeID, listFilterFromQuery(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ExpenseHandler) Update(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	var req updateExpenseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	in := uc.UpdateInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		ReceiptURL:  req.ReceiptURL,
	}
	if req.Category != nil {
		cat := domain.Category(strings.ToUpper(*req.Category))
		in.Category = &cat
	}
	if req.Date != nil {
		d, _ := time.Parse("2006-01-02", *req.Date)
		in.Date = &d
	}

	dto, err := h.uc.Update(c.Request().Context(), c.Param("expense_id"), who.EmployeeID, who.CompanyID, in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ExpenseHandler) Cancel(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	if err := h.uc.Cancel(c.Request().Context(), c.Param("expense_id"), who.EmployeeID, who.CompanyID); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ExpenseHandler) Statistics(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	totals, err := h.uc.Statistics(c.Request().Context(), who.EmployeeID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"statistics": totals})
}

func (h *ExpenseHandler) Logs(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logs, err := h.uc.Logs(c.Request().Context(), c.Param("expense_id"), who.EmployeeID, who.CompanyID, limit)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": logs})
}

func (h *ExpenseHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"categories": domain.Categories()})
}
