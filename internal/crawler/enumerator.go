package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/looplab/fsm"

	"nationcli/internal/config"
	apperrors "nationcli/internal/errors"
	"nationcli/internal/infrastructure"
	"nationcli/pkg/contracts/domain"
)

// Enumerator states
const (
	StateSelecting  = "selecting"
	StateRecovering = "recovering"
	StateExhausted  = "exhausted"
	StateDone       = "done"
)

// Enumerator events
const (
	EventFail    = "fail"
	EventRetry   = "retry"
	EventExhaust = "exhaust"
	EventFinish  = "finish"
)

// EnumeratorOptions configures an Enumerator
type EnumeratorOptions struct {
	MaxAttempts int
	Sentinels   []string
	Logger      *slog.Logger
	Metrics     *infrastructure.CrawlMetrics
}

// Enumerator yields each funding agency exactly once per run. It owns the
// processed set; done and exhausted are terminal and sticky.
type Enumerator struct {
	dash        Dashboard
	source      AgencySource
	processed   *domain.ProcessedSet
	sentinels   map[domain.FundingAgency]struct{}
	maxAttempts int
	machine     *fsm.FSM
	exhausted   error
	logger      *slog.Logger
	metrics     *infrastructure.CrawlMetrics
}

// NewEnumerator creates an enumerator in the selecting state
func NewEnumerator(dash Dashboard, source AgencySource, opts EnumeratorOptions) *Enumerator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = config.DefaultMaxAttempts
	}
	sentinels := opts.Sentinels
	if sentinels == nil {
		sentinels = config.DefaultSentinels
	}

	e := &Enumerator{
		dash:        dash,
		source:      source,
		processed:   domain.NewProcessedSet(),
		sentinels:   make(map[domain.FundingAgency]struct{}, len(sentinels)),
		maxAttempts: opts.MaxAttempts,
		logger:      infrastructure.WithComponent(logger, "enumerator"),
		metrics:     opts.Metrics,
	}
	for _, s := range sentinels {
		e.sentinels[domain.NewFundingAgency(s)] = struct{}{}
	}

	e.machine = fsm.NewFSM(
		StateSelecting,
		fsm.Events{
			{Name: EventFail, Src: []string{StateSelecting}, Dst: StateRecovering},
			{Name: EventRetry, Src: []string{StateRecovering}, Dst: StateSelecting},
			{Name: EventExhaust, Src: []string{StateRecovering}, Dst: StateExhausted},
			{Name: EventFinish, Src: []string{StateSelecting}, Dst: StateDone},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				e.logger.Debug("Enumerator transition",
					slog.String("event", ev.Event),
					slog.String("from", ev.Src),
					slog.String("to", ev.Dst))
			},
		},
	)

	return e
}

// State returns the current state
func (e *Enumerator) State() string {
	return e.machine.Current()
}

// Processed returns the agencies selected so far, in order
func (e *Enumerator) Processed() []domain.FundingAgency {
	return e.processed.Values()
}

// Next selects the next unprocessed agency. It returns (agency, true, nil)
// on success, ("", false, nil) once no candidates remain, and an error
// matching ErrEnumerationExhausted when every attempt failed.
func (e *Enumerator) Next(ctx context.Context) (domain.FundingAgency, bool, error) {
	switch e.machine.Current() {
	case StateDone:
		return "", false, nil
	case StateExhausted:
		return "", false, e.exhausted
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		agency, found, err := e.attempt(ctx)
		if err == nil {
			if !found {
				e.transition(EventFinish)
				e.logger.InfoContext(ctx, "All funding agencies processed",
					slog.Int("processed", e.processed.Len()))
				return "", false, nil
			}
			e.logger.InfoContext(ctx, "Funding agency selected",
				slog.String("funding_agency", agency.String()),
				slog.Int("processed", e.processed.Len()))
			return agency, true, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}

		lastErr = err
		e.metrics.EnumeratorRetry()
		e.transition(EventFail)
		e.logger.WarnContext(ctx, "Funding agency selection failed",
			slog.Int("attempt", attempt),
			slog.Int("retries_left", e.maxAttempts-attempt),
			slog.String("error", err.Error()))

		if attempt == e.maxAttempts {
			break
		}

		if rerr := e.dash.Recover(ctx); rerr != nil {
			e.logger.WarnContext(ctx, "Frame recovery failed", slog.String("error", rerr.Error()))
		}
		e.transition(EventRetry)
	}

	e.transition(EventExhaust)
	e.exhausted = apperrors.NewEnumerationExhaustedError(e.maxAttempts, lastErr)
	e.logger.ErrorContext(ctx, "Funding agency selection failed permanently",
		slog.Int("attempts", e.maxAttempts),
		slog.String("error", lastErr.Error()))
	return "", false, e.exhausted
}

// attempt performs one selection pass against the dashboard
func (e *Enumerator) attempt(ctx context.Context) (domain.FundingAgency, bool, error) {
	if err := e.dash.CloseDropdowns(ctx); err != nil {
		return "", false, apperrors.NewInteractionError("close dropdowns", err)
	}

	candidates, err := e.source.Candidates(ctx)
	if err != nil {
		return "", false, apperrors.NewInteractionError("list funding agencies", err)
	}

	next, ok := e.pick(candidates)
	if !ok {
		if err := e.dash.CloseDropdowns(ctx); err != nil {
			e.logger.DebugContext(ctx, "Closing dropdowns failed", slog.String("error", err.Error()))
		}
		return "", false, nil
	}

	if err := e.dash.AgencyFacet().SelectOnly(ctx, next.String()); err != nil {
		return "", false, apperrors.NewInteractionError(fmt.Sprintf("select funding agency %q", next), err).
			WithContext("funding_agency", next.String())
	}
	if err := e.dash.CloseDropdowns(ctx); err != nil {
		return "", false, apperrors.NewInteractionError("close dropdowns", err)
	}

	e.processed.Add(next)
	e.metrics.AgencyProcessed()
	return next, true, nil
}

// pick returns the first candidate that is neither a sentinel nor processed
func (e *Enumerator) pick(candidates []string) (domain.FundingAgency, bool) {
	for _, c := range candidates {
		a := domain.NewFundingAgency(c)
		if a == "" {
			continue
		}
		if _, sentinel := e.sentinels[a]; sentinel {
			continue
		}
		if e.processed.Contains(a) {
			continue
		}
		return a, true
	}
	return "", false
}

// transition fires an event. Transitions run on a background context so a
// cancelled run cannot leave the machine mid-transition.
func (e *Enumerator) transition(event string) {
	if err := e.machine.Event(context.Background(), event); err != nil {
		e.logger.Error("Invalid enumerator transition",
			slog.String("event", event),
			slog.String("state", e.machine.Current()),
			slog.String("error", err.Error()))
	}
}
