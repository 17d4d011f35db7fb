package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nationcli/internal/errors"
	"nationcli/internal/infrastructure"
	"nationcli/pkg/contracts/domain"
)

func newTestEnumerator(t *testing.T, dash *fakeDashboard, strategy string, agencies []string, maxAttempts int) (*Enumerator, *infrastructure.CrawlMetrics) {
	t.Helper()
	source, err := NewAgencySource(strategy, dash.AgencyFacet(), agencies)
	require.NoError(t, err)
	metrics := infrastructure.NewCrawlMetrics()
	return NewEnumerator(dash, source, EnumeratorOptions{
		MaxAttempts: maxAttempts,
		Logger:      infrastructure.DiscardLogger(),
		Metrics:     metrics,
	}), metrics
}

func drain(t *testing.T, e *Enumerator) []domain.FundingAgency {
	t.Helper()
	var out []domain.FundingAgency
	for i := 0; i < 100; i++ {
		a, ok, err := e.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, a)
	}
	t.Fatal("enumerator never terminated")
	return nil
}

func TestEnumeratorYieldsEachAgencyOnce(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "Department of Defense", " Department of Energy ", "Department of Defense", "NASA")
	e, metrics := newTestEnumerator(t, dash, "dynamic", nil, 3)

	got := drain(t, e)
	assert.Equal(t, []domain.FundingAgency{"Department of Defense", "Department of Energy", "NASA"}, got)
	assert.Equal(t, got, e.Processed())
	assert.Equal(t, StateDone, e.State())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.AgenciesProcessed))

	// sentinels are never selected
	assert.NotContains(t, dash.agency.selected, "(All)")
	assert.NotContains(t, dash.agency.selected, "Null")
}

func TestEnumeratorTerminalIsSticky(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA")
	e, _ := newTestEnumerator(t, dash, "dynamic", nil, 3)
	drain(t, e)

	opens := dash.agency.openCalls
	closes := dash.closeCalls
	for i := 0; i < 3; i++ {
		a, ok, err := e.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, a)
	}
	assert.Equal(t, opens, dash.agency.openCalls, "terminal state must not touch the UI")
	assert.Equal(t, closes, dash.closeCalls)
}

func TestEnumeratorEmptyFacet(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir())
	e, _ := newTestEnumerator(t, dash, "dynamic", nil, 3)

	a, ok, err := e.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, a)
}

func TestEnumeratorRecoversAndRetries(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA")
	dash.agency.openFails = 2
	dash.recoverErr = errors.New("frame gone")
	e, metrics := newTestEnumerator(t, dash, "dynamic", nil, 3)

	a, ok, err := e.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.FundingAgency("NASA"), a)
	assert.Equal(t, 2, dash.recoverCalls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.EnumeratorRetries))
	assert.Equal(t, StateSelecting, e.State())
}

func TestEnumeratorSelectionFailureIsNotRecorded(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA", "DOE")
	dash.agency.selectFails["NASA"] = 1
	e, _ := newTestEnumerator(t, dash, "dynamic", nil, 3)

	a, ok, err := e.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.FundingAgency("NASA"), a, "a failed selection is retried, not skipped")
	assert.Equal(t, 1, dash.recoverCalls)
}

func TestEnumeratorExhaustion(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA")
	dash.agency.openFails = -1
	e, metrics := newTestEnumerator(t, dash, "dynamic", nil, 4)

	a, ok, err := e.Next(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, a)
	assert.True(t, errors.Is(err, apperrors.ErrEnumerationExhausted))
	assert.True(t, errors.Is(err, errUI), "exhaustion wraps the last interaction error")
	assert.Equal(t, 4, dash.agency.openCalls)
	assert.Equal(t, 3, dash.recoverCalls)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.EnumeratorRetries))
	assert.Equal(t, StateExhausted, e.State())

	opens := dash.agency.openCalls
	_, ok, err2 := e.Next(context.Background())
	assert.False(t, ok)
	assert.Same(t, err, err2)
	assert.Equal(t, opens, dash.agency.openCalls)
}

func TestEnumeratorCancelled(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA")
	e, _ := newTestEnumerator(t, dash, "dynamic", nil, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := e.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateSelecting, e.State())
}

func TestEnumeratorSnapshotStrategy(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA", "DOE")
	e, _ := newTestEnumerator(t, dash, "snapshot", nil, 3)

	a, ok, err := e.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.FundingAgency("NASA"), a)

	// options that appear later are not part of the snapshot
	dash.agency.options = append(dash.agency.options, "DHS")

	assert.Equal(t, []domain.FundingAgency{"DOE"}, drain(t, e))
	assert.Equal(t, 1, dash.agency.openCalls)
}

func TestEnumeratorDynamicSeesNewOptions(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "NASA")
	e, _ := newTestEnumerator(t, dash, "dynamic", nil, 3)

	_, ok, err := e.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	dash.agency.options = append(dash.agency.options, "DHS")
	assert.Equal(t, []domain.FundingAgency{"DHS"}, drain(t, e))
}

func TestEnumeratorStaticStrategy(t *testing.T) {
	dash := newFakeDashboard(t, t.TempDir(), "ignored")
	e, _ := newTestEnumerator(t, dash, "static", []string{"NASA", "(All)", "DOE"}, 3)

	assert.Equal(t, []domain.FundingAgency{"NASA", "DOE"}, drain(t, e))
	assert.Zero(t, dash.agency.openCalls)
	assert.Equal(t, []string{"NASA", "DOE"}, dash.agency.selected)
}

func TestNewAgencySourceErrors(t *testing.T) {
	_, err := NewAgencySource("static", newFakeFacet(), nil)
	assert.Error(t, err)

	_, err = NewAgencySource("random", newFakeFacet(), nil)
	assert.Error(t, err)
}
