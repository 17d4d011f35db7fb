package crawler

import (
	"context"
	"log/slog"

	apperrors "nationcli/internal/errors"
	"nationcli/pkg/contracts/domain"
)

// CompanySelector toggles one supplier at a time on the supplier facet
type CompanySelector struct {
	dash   Dashboard
	logger *slog.Logger
}

// NewCompanySelector creates a selector for the dashboard's supplier facet
func NewCompanySelector(dash Dashboard, logger *slog.Logger) *CompanySelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanySelector{
		dash:   dash,
		logger: logger.With(slog.String("component", "companies")),
	}
}

// Prepare opens the supplier facet and unchecks everything. It runs once per agency.
func (s *CompanySelector) Prepare(ctx context.Context) error {
	if err := s.dash.CloseDropdowns(ctx); err != nil {
		return apperrors.NewInteractionError("close dropdowns", err)
	}
	facet := s.dash.SupplierFacet()
	if err := facet.Open(ctx); err != nil {
		return apperrors.NewInteractionError("open supplier facet", err)
	}
	if err := facet.ClearAll(ctx); err != nil {
		return apperrors.NewInteractionError("clear supplier facet", err)
	}
	return nil
}

// Activate narrows the supplier facet to the company name and checks it
func (s *CompanySelector) Activate(ctx context.Context, c domain.Company) error {
	facet := s.dash.SupplierFacet()
	if err := facet.Open(ctx); err != nil {
		return s.wrap("open supplier facet", c, err)
	}
	if err := facet.Search(ctx, ""); err != nil {
		return s.wrap("clear supplier search", c, err)
	}
	if err := facet.Search(ctx, c.Name); err != nil {
		return s.wrap("search supplier", c, err)
	}
	if err := facet.SetChecked(ctx, c.Name, true); err != nil {
		return s.wrap("check supplier", c, err)
	}
	s.logger.DebugContext(ctx, "Company activated", slog.String("company", c.Name))
	return nil
}

// Deactivate unchecks the company and clears the search text
func (s *CompanySelector) Deactivate(ctx context.Context, c domain.Company) error {
	facet := s.dash.SupplierFacet()
	if err := facet.Open(ctx); err != nil {
		return s.wrap("open supplier facet", c, err)
	}
	if err := facet.SetChecked(ctx, c.Name, false); err != nil {
		return s.wrap("uncheck supplier", c, err)
	}
	if err := facet.Search(ctx, ""); err != nil {
		return s.wrap("clear supplier search", c, err)
	}
	return nil
}

func (s *CompanySelector) wrap(action string, c domain.Company, err error) error {
	return apperrors.NewInteractionError(action, err).
		WithContext("company", c.Name).
		WithContext("ticker", c.Ticker)
}
