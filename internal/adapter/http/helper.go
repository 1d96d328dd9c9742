package http

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	domain "expense-approval-backend/internal/domain/expense"

	"github.com/labstack/echo/v4"
)

// ---- caller identity (auth middleware stand-in) ----

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type caller struct {
	EmployeeID string
	CompanyID  string
	Role       domain.Role
}

// callerIdentity reads the Ax-* identity headers a gateway would inject
// after authenticating the request.
func callerIdentity(c echo.Context) (caller, error) {
	id := caller{
		EmployeeID: strings.TrimSpace(c.Request().Header.Get("Ax-Employee-Id")),
		CompanyID:  strings.TrimSpace(c.Request().Header.Get("Ax-Company-Id")),
		Role:       domain.Role(strings.ToUpper(strings.TrimSpace(c.Request().Header.Get("Ax-Role")))),
	}
	if !reHex32.MatchString(id.EmployeeID) {
		return id, errors.New("missing or invalid Ax-Employee-Id")
	}
	if !reHex32.MatchString(id.CompanyID) {
		return id, errors.New("missing or invalid Ax-Company-Id")
	}
	if id.Role == "" {
		id.Role = domain.RoleEmployee
	}
	if !id.Role.IsValid() {
		return id, errors.New("invalid Ax-Role")
	}
	return id, nil
}

// ---- domain error mapping ----

func domainStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrNoCurrentStep),
		errors.Is(err, domain.ErrImmutable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeDomainError(c echo.Context, err error) error {
	return c.JSON(domainStatus(err), ErrorResponse{Error: err.Error()})
}

// ---- query-string parsing ----

func listFilterFromQuery(c echo.Context) domain.ListFilter {
	f := domain.ListFilter{
		Status:   domain.Status(strings.ToUpper(c.QueryParam("status"))),
		Category: domain.Category(strings.ToUpper(c.QueryParam("category"))),
		SortBy:   c.QueryParam("sort_by"),
		SortDesc: c.QueryParam("sort_order") != "asc",
	}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		f.Page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if t, ok := parseDate(c.QueryParam("start_date")); ok {
		f.StartDate = &t
	}
	if t, ok := parseDate(c.QueryParam("end_date")); ok {
		f.EndDate = &t
	}
	return f
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
