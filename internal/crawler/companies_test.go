package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nationcli/internal/errors"
	"nationcli/internal/infrastructure"
	"nationcli/pkg/contracts/domain"
)

func TestCompanySelectorLifecycle(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir())
	dash.supplier.checked["(All)"] = true
	s := NewCompanySelector(dash, infrastructure.DiscardLogger())
	ctx := context.Background()
	bah := domain.Company{Name: "Booz Allen Hamilton", Ticker: "BAH"}

	require.NoError(t, s.Prepare(ctx))
	assert.Empty(t, dash.supplier.current(), "prepare clears every option")

	require.NoError(t, s.Activate(ctx, bah))
	assert.Equal(t, "Booz Allen Hamilton", dash.supplier.search)
	assert.Equal(t, "Booz Allen Hamilton", dash.supplier.current())

	// the export flow may close the dropdown; deactivate reopens it
	dash.supplier.open = false
	require.NoError(t, s.Deactivate(ctx, bah))
	assert.Empty(t, dash.supplier.current())
	assert.Empty(t, dash.supplier.search)
}

func TestCompanySelectorActivationFailure(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir())
	dash.supplier.checkFails["CACI"] = true
	s := NewCompanySelector(dash, infrastructure.DiscardLogger())

	require.NoError(t, s.Prepare(context.Background()))
	err := s.Activate(context.Background(), domain.Company{Name: "CACI", Ticker: "CACI"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInteraction))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CACI", appErr.Context["ticker"])
}

func TestCompanySelectorPrepareFailure(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir())
	dash.supplier.openFails = 1
	s := NewCompanySelector(dash, infrastructure.DiscardLogger())

	err := s.Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUI))
}
