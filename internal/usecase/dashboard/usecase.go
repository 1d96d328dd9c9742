package dashboard

import (
	"context"
	"time"

	domain "expense-approval-backend/internal/domain/expense"
)

// Usecase serves the manager-facing read side: company-wide listings,
// aggregates, and exports. Strictly read-only over the expense store.
type Usecase struct {
	repo domain.Repository
}

func NewUsecase(repo domain.Repository) *Usecase { return &Usecase{repo: repo} }

// Stats is the dashboard aggregate bundle.
type Stats struct {
	ByStatus   []domain.StatusTotal   `json:"by_status"`
	ByCategory []domain.CategoryTotal `json:"by_category"`
	Monthly    []domain.MonthlyTotal  `json:"monthly"`
}

func (u *Usecase) Pending(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Expense, int64, error) {
	f.Status = domain.StatusPending
	return u.repo.ListByCompany(ctx, companyID, f)
}

func (u *Usecase) History(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Expense, int64, error) {
	return u.repo.ListByCompany(ctx, companyID, f)
}

func (u *Usecase) Stats(ctx context.Context, companyID string, from, to *time.Time) (*Stats, error) {
	byStatus, err := u.repo.CountByStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byCategory, err := u.repo.TotalsByCategory(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	monthly, err := u.repo.MonthlyTotals(ctx, companyID, 12)
	if err != nil {
		return nil, err
	}
	return &Stats{ByStatus: byStatus, ByCategory: byCategory, Monthly: monthly}, nil
}

// Export renders the filtered company expenses in the requested format.
func (u *Usecase) Export(ctx context.Context, companyID string, f domain.ListFilter, format Format) ([]byte, string, error) {
	// exports are unpaginated; cap the row count
	f.Page = 1
	if f.Limit <= 0 || f.Limit > 10000 {
		f.Limit = 10000
	}
	items, _, err := u.repo.ListByCompany(ctx, companyID, f)
	if err != nil {
		return nil, "", err
	}
	return render(items, format)
}
