package crawler

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"nationcli/internal/config"
	"nationcli/internal/dataprocessing"
	apperrors "nationcli/internal/errors"
	"nationcli/internal/files"
	"nationcli/internal/infrastructure"
	"nationcli/pkg/contracts/domain"
)

// OutcomeExportFailed marks a combination whose export could not be triggered
const OutcomeExportFailed = "export_failed"

// Reshaper converts one downloaded export into tagged records
type Reshaper interface {
	Reshape(path string, tags domain.Tags) ([]domain.TidyRecord, error)
}

// PipelineOptions configures a Pipeline
type PipelineOptions struct {
	Companies       []domain.Company
	Field           string
	TimeoutPolicy   string
	DownloadRetries int
	Logger          *slog.Logger
	Metrics         *infrastructure.CrawlMetrics
}

// RunReport summarizes one run
type RunReport struct {
	RunID    string
	Agencies []domain.FundingAgency
	Outcomes map[string]int
	Records  int
	Started  time.Time
	Finished time.Time
}

// Combinations returns the number of agency and company pairs attempted
func (r *RunReport) Combinations() int {
	n := 0
	for _, c := range r.Outcomes {
		n += c
	}
	return n
}

// Pipeline runs the nested agency and company traversal
type Pipeline struct {
	dash       Dashboard
	enumerator *Enumerator
	companies  *CompanySelector
	sync       *Synchronizer
	reshaper   Reshaper
	files      *files.Manager
	aggregator *dataprocessing.Aggregator
	opts       PipelineOptions
	logger     *slog.Logger
	metrics    *infrastructure.CrawlMetrics
	report     RunReport
}

// NewPipeline wires the traversal components together
func NewPipeline(
	dash Dashboard,
	enumerator *Enumerator,
	companies *CompanySelector,
	sync *Synchronizer,
	reshaper Reshaper,
	fm *files.Manager,
	opts PipelineOptions,
) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Field == "" {
		opts.Field = config.DefaultField
	}
	if opts.TimeoutPolicy == "" {
		opts.TimeoutPolicy = config.TimeoutPolicySkip
	}
	return &Pipeline{
		dash:       dash,
		enumerator: enumerator,
		companies:  companies,
		sync:       sync,
		reshaper:   reshaper,
		files:      fm,
		aggregator: dataprocessing.NewAggregator(),
		opts:       opts,
		logger:     infrastructure.WithComponent(logger, "pipeline"),
		metrics:    opts.Metrics,
		report:     RunReport{Outcomes: make(map[string]int)},
	}
}

// Report returns the statistics of the last run
func (p *Pipeline) Report() RunReport {
	return p.report
}

// Run traverses every agency and company and returns the fact table. On
// enumeration exhaustion or cancellation the partial aggregate is discarded
// and no table is returned.
func (p *Pipeline) Run(ctx context.Context) (*domain.FactTable, error) {
	p.report = RunReport{
		RunID:    infrastructure.GetTraceID(ctx),
		Outcomes: make(map[string]int),
		Started:  time.Now(),
	}
	p.aggregator.Reset()

	ctx, span := infrastructure.StartSpan(ctx, "crawl.run",
		attribute.Int("companies", len(p.opts.Companies)),
		attribute.String("timeout_policy", p.opts.TimeoutPolicy))
	defer span.End()

	p.logger.InfoContext(ctx, "Crawl started",
		slog.Int("companies", len(p.opts.Companies)),
		slog.String("timeout_policy", p.opts.TimeoutPolicy))

	for {
		agency, ok, err := p.enumerator.Next(ctx)
		if err != nil {
			return nil, p.abort(ctx, err)
		}
		if !ok {
			break
		}

		p.report.Agencies = append(p.report.Agencies, agency)
		if err := p.processAgency(ctx, agency); err != nil {
			return nil, p.abort(ctx, err)
		}
	}

	table, err := p.aggregator.Finalize()
	p.finish(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.ErrorContext(ctx, "No data collected", slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("records", table.Len()))
	return table, nil
}

func (p *Pipeline) processAgency(ctx context.Context, agency domain.FundingAgency) error {
	ctx, span := infrastructure.StartSpan(ctx, "crawl.agency",
		attribute.String("funding_agency", agency.String()))
	defer span.End()

	if err := p.companies.Prepare(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		infrastructure.RecordError(ctx, err)
		p.logger.WarnContext(ctx, "Supplier facet unavailable, skipping agency",
			slog.String("funding_agency", agency.String()),
			slog.String("error", err.Error()))
		for range p.opts.Companies {
			p.skip(infrastructure.OutcomeActivationFailed)
		}
		return nil
	}

	for _, company := range p.opts.Companies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processCombination(ctx, agency, company); err != nil {
			return err
		}
	}

	p.closeDropdowns(ctx)
	return nil
}

// processCombination handles one agency and company pair. Only
// cancellation is returned; every other failure skips the pair.
func (p *Pipeline) processCombination(ctx context.Context, agency domain.FundingAgency, company domain.Company) error {
	ctx, span := infrastructure.StartSpan(ctx, "crawl.combination",
		attribute.String("funding_agency", agency.String()),
		attribute.String("ticker", company.Ticker))
	defer span.End()

	logger := p.logger.With(
		slog.String("funding_agency", agency.String()),
		slog.String("company", company.Name))
	logger.InfoContext(ctx, "Processing company")

	if err := p.companies.Activate(ctx, company); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		infrastructure.RecordError(ctx, err)
		logger.WarnContext(ctx, "Company activation failed, skipping", slog.String("error", err.Error()))
		p.skip(infrastructure.OutcomeActivationFailed)
		return nil
	}

	defer func() {
		if err := p.companies.Deactivate(ctx, company); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "Company deactivation failed", slog.String("error", err.Error()))
		}
	}()

	path, ok, err := p.fetch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		infrastructure.RecordError(ctx, err)
		logger.WarnContext(ctx, "Export failed, skipping", slog.String("error", err.Error()))
		p.closeDropdowns(ctx)
		p.skip(OutcomeExportFailed)
		return nil
	}
	if !ok {
		timeout := apperrors.NewDownloadTimeoutError(p.sync.opts.ExpectedPath)
		infrastructure.RecordError(ctx, timeout)
		logger.WarnContext(ctx, "No data or download timeout, skipping", slog.String("error", timeout.Error()))
		p.closeDropdowns(ctx)
		p.skip(infrastructure.OutcomeTimeout)
		return nil
	}

	tags := domain.Tags{
		Ticker:        company.Ticker,
		Company:       company.Name,
		FundingAgency: agency.String(),
		Field:         p.opts.Field,
	}
	records, rerr := p.reshaper.Reshape(path, tags)
	if err := p.files.DeleteFile(path); err != nil {
		logger.WarnContext(ctx, "Failed to remove export", slog.String("error", err.Error()))
	}
	if rerr != nil {
		infrastructure.RecordError(ctx, rerr)
		logger.ErrorContext(ctx, "Export could not be reshaped, skipping", slog.String("error", rerr.Error()))
		p.skip(infrastructure.OutcomeReshapeFailed)
		return nil
	}

	p.aggregator.Add(records)
	p.report.Records += len(records)
	p.report.Outcomes[infrastructure.OutcomeDownloaded]++
	p.metrics.Combination(infrastructure.OutcomeDownloaded)
	p.metrics.RecordsAdded(len(records))
	span.SetAttributes(attribute.Int("records", len(records)))
	logger.InfoContext(ctx, "Export collected", slog.Int("records", len(records)))
	return nil
}

// fetch applies the timeout policy around Synchronizer.Fetch
func (p *Pipeline) fetch(ctx context.Context) (string, bool, error) {
	attempts := 1
	if p.opts.TimeoutPolicy == config.TimeoutPolicyRetry {
		attempts += p.opts.DownloadRetries
	}

	for i := 1; i <= attempts; i++ {
		path, ok, err := p.sync.Fetch(ctx, p.dash.TriggerExport)
		if err != nil || ok {
			return path, ok, err
		}
		if i < attempts {
			p.logger.InfoContext(ctx, "Retrying export download",
				slog.Int("attempt", i+1),
				slog.Int("attempts", attempts))
		}
	}
	return "", false, nil
}

func (p *Pipeline) skip(outcome string) {
	p.aggregator.Skip()
	p.report.Outcomes[outcome]++
	p.metrics.Combination(outcome)
}

func (p *Pipeline) closeDropdowns(ctx context.Context) {
	if err := p.dash.CloseDropdowns(ctx); err != nil && ctx.Err() == nil {
		p.logger.DebugContext(ctx, "Closing dropdowns failed", slog.String("error", err.Error()))
	}
}

// abort discards the partial aggregate
func (p *Pipeline) abort(ctx context.Context, err error) error {
	p.aggregator.Reset()
	p.report.Records = 0
	p.finish(ctx)
	infrastructure.RecordError(ctx, err)
	p.logger.ErrorContext(ctx, "Crawl aborted, partial data discarded", slog.String("error", err.Error()))
	return err
}

func (p *Pipeline) finish(ctx context.Context) {
	p.report.Finished = time.Now()
	p.logger.InfoContext(ctx, "Crawl finished",
		slog.Int("agencies", len(p.report.Agencies)),
		slog.Int("combinations", p.report.Combinations()),
		slog.Int("downloaded", p.report.Outcomes[infrastructure.OutcomeDownloaded]),
		slog.Int("timeouts", p.report.Outcomes[infrastructure.OutcomeTimeout]),
		slog.Int("records", p.report.Records),
		slog.Duration("duration", p.report.Finished.Sub(p.report.Started)))
}
