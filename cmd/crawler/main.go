package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"nationcli/internal/config"
	"nationcli/internal/crawler"
	"nationcli/internal/dashboard"
	"nationcli/internal/dataprocessing"
	apperrors "nationcli/internal/errors"
	"nationcli/internal/exporter"
	"nationcli/internal/files"
	"nationcli/internal/infrastructure"
	"nationcli/internal/validation"
	"nationcli/pkg/contracts"
	"nationcli/pkg/contracts/domain"

	"golang.org/x/sync/errgroup"
)

// options holds the command line overrides
type options struct {
	configFile  string
	out         string
	format      string
	downloadDir string
	strategy    string
	metrics     string
	headless    bool
	headlessSet bool
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("crawler", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.out, "out", "", "output file (defaults to data/Nation_Analytics_Funding_Data.csv relative to executable)")
	fs.StringVar(&opts.format, "format", "", "output format: csv | xlsx (defaults to the output file extension)")
	fs.StringVar(&opts.downloadDir, "download-dir", "", "directory the browser downloads exports to")
	fs.StringVar(&opts.strategy, "strategy", "", "agency enumeration: dynamic | snapshot | static")
	fs.StringVar(&opts.metrics, "metrics", "", "write Prometheus metrics to this textfile at the end of the run")
	fs.BoolVar(&opts.headless, "headless", true, "run browser headless")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			opts.headlessSet = true
		}
	})
	return opts, nil
}

// applyOverrides lets explicit flags win over file and environment values
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.downloadDir != "" {
		cfg.Paths.DownloadDir = opts.downloadDir
	}
	if opts.out != "" {
		cfg.Paths.OutputFile = opts.out
	}
	if opts.strategy != "" {
		cfg.Crawler.Strategy = opts.strategy
	}
	if opts.metrics != "" {
		cfg.Metrics.TextfilePath = opts.metrics
	}
	if opts.headlessSet {
		cfg.Dashboard.Headless = opts.headless
	}
}

// outputTarget picks the format and makes the file extension agree with it
func outputTarget(file, format string) (string, exporter.Format, error) {
	if format == "" {
		return file, exporter.FormatFromPath(file), nil
	}
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return "", "", err
	}
	return exporter.WithExtension(file, f), f, nil
}

func main() {
	// Add panic recovery at the very start to catch any crashes
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Crawler panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, opts)

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		fmt.Printf("Error: Failed to initialize paths: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: Failed to create required directories: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("crawler.log")
	}
	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, paths, opts, logger); err != nil {
		logger.Error("Crawl failed",
			slog.String("error", err.Error()),
			slog.Bool("enumeration_exhausted", errors.Is(err, apperrors.ErrEnumerationExhausted)),
			slog.Bool("empty_result", errors.Is(err, apperrors.ErrEmptyResult)))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}

func run(cfg *config.Config, paths *config.Paths, opts *options, logger *slog.Logger) error {
	outFile, format, err := outputTarget(paths.OutputFile, opts.format)
	if err != nil {
		return apperrors.NewConfigError("invalid output format", err)
	}
	companies, err := cfg.ParsedCompanies()
	if err != nil {
		return apperrors.NewConfigError("invalid company list", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Dashboard.SessionTimeout)
	defer cancel()
	ctx = infrastructure.EnsureTraceID(ctx)

	shutdown, err := infrastructure.InitTracing(cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("Tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Nation Analytics contracts crawler starting",
		slog.String("version", contracts.Version),
		slog.String("strategy", cfg.Crawler.Strategy),
		slog.String("timeout_policy", cfg.Crawler.TimeoutPolicy),
		slog.Int("companies", len(companies)),
		slog.String("format", string(format)),
		slog.Bool("headless", cfg.Dashboard.Headless))
	paths.LogPathResolution(logger)

	validator := validation.NewFileValidator(logger)
	for _, dir := range []string{paths.DownloadsDir, paths.OutputDir} {
		if err := validator.ValidateWritableDirectory(dir); err != nil {
			return apperrors.NewStorageError("pre-flight check failed", err)
		}
	}

	metrics := infrastructure.NewCrawlMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to write metrics textfile",
				slog.String("path", cfg.Metrics.TextfilePath),
				slog.String("error", err.Error()))
		}
	}()

	return supervise(ctx, logger, func(ctx context.Context) error {
		return crawl(ctx, cfg, paths, companies, outFile, format, metrics, logger)
	})
}

// supervise runs the crawl next to the resource monitor. The monitor stops
// as soon as the crawl returns.
func supervise(ctx context.Context, logger *slog.Logger, crawl func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitorResources(gctx, logger)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return crawl(gctx)
	})
	return g.Wait()
}

// sessionOptions maps the loaded configuration onto the browser session
func sessionOptions(cfg *config.Config, paths *config.Paths, logger *slog.Logger) dashboard.Options {
	return dashboard.Options{
		Dashboard:      cfg.Dashboard,
		Auth:           cfg.Auth,
		DownloadDir:    paths.DownloadsDir,
		ActionInterval: cfg.Crawler.ActionInterval,
		PollInterval:   cfg.Dashboard.PollInterval,
		Logger:         logger,
	}
}

func crawl(
	ctx context.Context,
	cfg *config.Config,
	paths *config.Paths,
	companies []domain.Company,
	outFile string,
	format exporter.Format,
	metrics *infrastructure.CrawlMetrics,
	logger *slog.Logger,
) error {
	session, err := dashboard.New(ctx, sessionOptions(cfg, paths, logger))
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return fmt.Errorf("failed to open dashboard: %w", err)
	}

	source, err := crawler.NewAgencySource(cfg.Crawler.Strategy, session.AgencyFacet(), cfg.Crawler.Agencies)
	if err != nil {
		return apperrors.NewConfigError("invalid enumeration strategy", err)
	}

	fm := files.NewManager(paths.DownloadsDir, paths.PartialSuffix, logger)
	enumerator := crawler.NewEnumerator(session, source, crawler.EnumeratorOptions{
		MaxAttempts: cfg.Crawler.MaxAttempts,
		Sentinels:   cfg.Crawler.Sentinels,
		Logger:      logger,
		Metrics:     metrics,
	})
	sync := crawler.NewSynchronizer(fm, crawler.SynchronizerOptions{
		ExpectedPath: paths.ExportPath,
		StalePattern: paths.ExportPattern(),
		PollInterval: cfg.Crawler.PollInterval,
		Timeout:      cfg.Crawler.DownloadTimeout,
		Logger:       logger,
		Metrics:      metrics,
	})
	reshaper := dataprocessing.NewReshaper(dataprocessing.ReshaperOptions{
		Sheet:     cfg.Crawler.Sheet,
		HeaderRow: cfg.Crawler.HeaderRow,
		Logger:    logger,
	})

	pipeline := crawler.NewPipeline(session, enumerator, crawler.NewCompanySelector(session, logger), sync, reshaper, fm,
		crawler.PipelineOptions{
			Companies:       companies,
			Field:           cfg.Crawler.Field,
			TimeoutPolicy:   cfg.Crawler.TimeoutPolicy,
			DownloadRetries: cfg.Crawler.DownloadRetries,
			Logger:          logger,
			Metrics:         metrics,
		})

	table, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	path, err := exporter.NewWriter(paths.OutputDir, logger).Write(outFile, table, exporter.WriteOptions{Format: format})
	if err != nil {
		return err
	}

	report := pipeline.Report()
	logger.InfoContext(ctx, "Crawl completed",
		slog.String("output", path),
		slog.Int("records", table.Len()),
		slog.Int("agencies", len(report.Agencies)),
		slog.Int("combinations", report.Combinations()),
		slog.Duration("duration", report.Finished.Sub(report.Started)))
	return nil
}

// monitorResources logs memory and goroutine usage until ctx is done
func monitorResources(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			logger.Info("Resource usage",
				slog.Uint64("memory_alloc_mb", m.Alloc/1024/1024),
				slog.Uint64("memory_sys_mb", m.Sys/1024/1024),
				slog.Int("goroutines", runtime.NumGoroutine()))
		}
	}
}
