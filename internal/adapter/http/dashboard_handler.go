package http

import (
	"fmt"
	"net/http"
	"time"

	uc "expense-approval-backend/internal/usecase/dashboard"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct{ uc *uc.Usecase }

func NewDashboardHandler(u *uc.Usecase) *DashboardHandler { return &DashboardHandler{uc: u} }

func (h *DashboardHandler) Pending(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	items, total, err := h.uc.Pending(c.Request().Context(), who.CompanyID, listFilterFromQuery(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"expenses": items, "total": total})
}

func (h *DashboardHandler) History(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	items, total, err := h.uc.History(c.Request().Context(), who.CompanyID, listFilterFromQuery(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"expenses": items, "total": total})
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	f := listFilterFromQuery(c)
	stats, err := h.uc.Stats(c.Request().Context(), who.CompanyID, f.StartDate, f.EndDate)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Export(c echo.Context) error {
	who, err := callerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	format := uc.Format(c.QueryParam("format"))
	data, mime, err := h.uc.Export(c.Request().Context(), who.CompanyID, listFilterFromQuery(c), format)
	if err != nil {
		return writeDomainError(c, err)
	}

	ext := "csv"
	if format == uc.FormatXLSX {
		ext = "xlsx"
	}
	filename := fmt.Sprintf("expenses-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, mime, data)
}
