package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "nationcli/internal/errors"
	"nationcli/internal/files"
	"nationcli/internal/infrastructure"
	"nationcli/internal/poll"
)

// Trigger starts an export in the browser
type Trigger func(ctx context.Context) error

// SynchronizerOptions configures a Synchronizer
type SynchronizerOptions struct {
	// ExpectedPath is where the browser writes the export
	ExpectedPath string
	// StalePattern matches leftovers of earlier exports
	StalePattern string
	PollInterval time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
	Metrics      *infrastructure.CrawlMetrics
}

// Synchronizer turns the browser's fire-and-forget download into a
// bounded wait for a fully written file
type Synchronizer struct {
	files   *files.Manager
	opts    SynchronizerOptions
	logger  *slog.Logger
	metrics *infrastructure.CrawlMetrics
}

// NewSynchronizer creates a synchronizer over the download directory
func NewSynchronizer(fm *files.Manager, opts SynchronizerOptions) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		files:   fm,
		opts:    opts,
		logger:  infrastructure.WithComponent(logger, "synchronizer"),
		metrics: opts.Metrics,
	}
}

// Fetch clears stale exports, runs trigger and waits for the expected file
// to land. It returns (path, true, nil) once the file is complete and
// ("", false, nil) on timeout. A trigger failure is returned as an error.
// Fetch never retries.
func (s *Synchronizer) Fetch(ctx context.Context, trigger Trigger) (string, bool, error) {
	s.files.ClearStale(s.opts.StalePattern)

	if err := trigger(ctx); err != nil {
		return "", false, apperrors.NewInteractionError("trigger export", err)
	}

	start := time.Now()
	err := poll.Until(ctx, s.opts.PollInterval, s.opts.Timeout, func(context.Context) (bool, error) {
		return s.files.IsReady(s.opts.ExpectedPath), nil
	})
	waited := time.Since(start)
	s.metrics.ObserveDownloadWait(waited)

	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "Export downloaded",
			slog.String("path", s.opts.ExpectedPath),
			slog.Duration("waited", waited))
		return s.opts.ExpectedPath, true, nil
	case errors.Is(err, poll.ErrTimeout):
		s.logger.WarnContext(ctx, "Export download timed out",
			slog.String("path", s.opts.ExpectedPath),
			slog.Duration("timeout", s.opts.Timeout))
		return "", false, nil
	default:
		return "", false, err
	}
}
