package crawler

import "context"

// Facet is one filter dropdown of the embedded visualization
type Facet interface {
	// Open opens the dropdown; it is a no-op when already open
	Open(ctx context.Context) error
	// Options returns the titles of the options currently listed
	Options(ctx context.Context) ([]string, error)
	// Search replaces the dropdown search text; "" clears it
	Search(ctx context.Context, text string) error
	// SetChecked checks or unchecks a single option
	SetChecked(ctx context.Context, value string, checked bool) error
	// SelectOnly leaves value as the only checked option and verifies it
	SelectOnly(ctx context.Context, value string) error
	// ClearAll unchecks every option
	ClearAll(ctx context.Context) error
}

// Dashboard is the authenticated reporting screen the crawler drives
type Dashboard interface {
	AgencyFacet() Facet
	SupplierFacet() Facet
	// CloseDropdowns dismisses any open dropdown or overlay
	CloseDropdowns(ctx context.Context) error
	// Recover returns to the top-level document and reattaches to the
	// embedded visualization frame
	Recover(ctx context.Context) error
	// TriggerExport starts the crosstab download
	TriggerExport(ctx context.Context) error
}
