package crawler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nationcli/internal/dataprocessing"
	"nationcli/internal/files"
	"nationcli/internal/infrastructure"
	logtest "nationcli/internal/shared/testutil"
	"nationcli/pkg/contracts/domain"
)

var errUI = errors.New("element not found")

// fakeFacet records interactions with one dropdown
type fakeFacet struct {
	options   []string
	checked   map[string]bool
	search    string
	open      bool
	openFails int
	// selectFails makes SelectOnly fail that many times per value
	selectFails map[string]int
	checkFails  map[string]bool
	selected    []string
	openCalls   int
}

func newFakeFacet(options ...string) *fakeFacet {
	return &fakeFacet{
		options:     options,
		checked:     make(map[string]bool),
		selectFails: make(map[string]int),
		checkFails:  make(map[string]bool),
	}
}

func (f *fakeFacet) Open(context.Context) error {
	f.openCalls++
	if f.openFails != 0 {
		if f.openFails > 0 {
			f.openFails--
		}
		return errUI
	}
	f.open = true
	return nil
}

func (f *fakeFacet) Options(context.Context) ([]string, error) {
	if !f.open {
		return nil, errUI
	}
	return slices.Clone(f.options), nil
}

func (f *fakeFacet) Search(_ context.Context, text string) error {
	if !f.open {
		return errUI
	}
	f.search = text
	return nil
}

func (f *fakeFacet) SetChecked(_ context.Context, value string, checked bool) error {
	if !f.open || f.checkFails[value] {
		return errUI
	}
	f.checked[value] = checked
	return nil
}

func (f *fakeFacet) SelectOnly(_ context.Context, value string) error {
	if n := f.selectFails[value]; n != 0 {
		if n > 0 {
			f.selectFails[value] = n - 1
		}
		return errUI
	}
	f.checked = map[string]bool{value: true}
	f.selected = append(f.selected, value)
	return nil
}

func (f *fakeFacet) ClearAll(context.Context) error {
	if !f.open {
		return errUI
	}
	f.checked = make(map[string]bool)
	return nil
}

func (f *fakeFacet) current() string {
	for v, ok := range f.checked {
		if ok {
			return v
		}
	}
	return ""
}

// fakeDashboard writes a small crosstab into the download directory on export
type fakeDashboard struct {
	t          *testing.T
	agency     *fakeFacet
	supplier   *fakeFacet
	exportPath string
	// timeouts lists "agency/company" pairs whose export never lands
	timeouts map[string]bool
	// corrupt lists pairs whose export lands but is not a workbook
	corrupt      map[string]bool
	recoverCalls int
	recoverErr   error
	closeCalls   int
	exports      int
	exportErr    error
}

func newFakeDashboard(t *testing.T, dir string, agencies ...string) *fakeDashboard {
	return &fakeDashboard{
		t:          t,
		agency:     newFakeFacet(append([]string{"(All)", "Null"}, agencies...)...),
		supplier:   newFakeFacet(),
		exportPath: filepath.Join(dir, "contracts-flow.xlsx"),
		timeouts:   make(map[string]bool),
		corrupt:    make(map[string]bool),
	}
}

func (d *fakeDashboard) AgencyFacet() Facet   { return d.agency }
func (d *fakeDashboard) SupplierFacet() Facet { return d.supplier }

func (d *fakeDashboard) CloseDropdowns(context.Context) error {
	d.closeCalls++
	d.agency.open = false
	d.supplier.open = false
	return nil
}

func (d *fakeDashboard) Recover(context.Context) error {
	d.recoverCalls++
	return d.recoverErr
}

func (d *fakeDashboard) TriggerExport(context.Context) error {
	d.exports++
	if d.exportErr != nil {
		return d.exportErr
	}
	key := d.agency.current() + "/" + d.supplier.current()
	if d.timeouts[key] {
		// the browser never finishes this one
		require.NoError(d.t, os.WriteFile(d.exportPath+".crdownload", nil, 0644))
		return nil
	}
	if d.corrupt[key] {
		require.NoError(d.t, os.WriteFile(d.exportPath, []byte("<html>session expired</html>"), 0644))
		return nil
	}
	writeExport(d.t, d.exportPath)
	return nil
}

// writeExport saves a one-series, two-period crosstab
func writeExport(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Contracts Flow"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"", "January", "February"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"2024", 10, 20}))
	require.NoError(t, f.SaveAs(path))
}

// harness wires a pipeline over a fake dashboard with short waits
type harness struct {
	dash     *fakeDashboard
	files    *files.Manager
	enum     *Enumerator
	pipeline *Pipeline
	metrics  *infrastructure.CrawlMetrics
	logs     *logtest.BufferedSlogHandler
}

func newHarness(t *testing.T, dash *fakeDashboard, companies []domain.Company, policy string, retries int) *harness {
	t.Helper()
	dir := filepath.Dir(dash.exportPath)
	logs := logtest.NewBufferedSlogHandler(nil)
	logger := slog.New(logs)
	metrics := infrastructure.NewCrawlMetrics()

	fm := files.NewManager(dir, ".crdownload", logger)
	source, err := NewAgencySource("dynamic", dash.AgencyFacet(), nil)
	require.NoError(t, err)

	enum := NewEnumerator(dash, source, EnumeratorOptions{MaxAttempts: 3, Logger: logger, Metrics: metrics})
	sync := NewSynchronizer(fm, SynchronizerOptions{
		ExpectedPath: dash.exportPath,
		StalePattern: "contracts-flow*.xlsx",
		PollInterval: 5 * time.Millisecond,
		Timeout:      60 * time.Millisecond,
		Logger:       logger,
		Metrics:      metrics,
	})
	reshaper := dataprocessing.NewReshaper(dataprocessing.ReshaperOptions{HeaderRow: 1, Logger: logger})

	p := NewPipeline(dash, enum, NewCompanySelector(dash, logger), sync, reshaper, fm, PipelineOptions{
		Companies:       companies,
		Field:           "Federal Obligations PIT",
		TimeoutPolicy:   policy,
		DownloadRetries: retries,
		Logger:          logger,
		Metrics:         metrics,
	})

	return &harness{dash: dash, files: fm, enum: enum, pipeline: p, metrics: metrics, logs: logs}
}

func defaultCompanies(t *testing.T) []domain.Company {
	t.Helper()
	companies, err := domain.ParseCompanies(domain.DefaultCompanies)
	require.NoError(t, err)
	return companies
}
