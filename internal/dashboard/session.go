package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"golang.org/x/time/rate"

	"nationcli/internal/config"
	"nationcli/internal/crawler"
	apperrors "nationcli/internal/errors"
)

// nativeClickTimeout bounds a CDP click before falling back to a script click
const nativeClickTimeout = 5 * time.Second

// Options configures a Session
type Options struct {
	Dashboard      config.DashboardConfig
	Auth           config.AuthConfig
	DownloadDir    string
	ActionInterval time.Duration
	PollInterval   time.Duration
	Selectors      *Selectors
	Logger         *slog.Logger
}

// Session drives one authenticated browser tab
type Session struct {
	opts    Options
	sel     Selectors
	limiter *rate.Limiter
	logger  *slog.Logger

	pageCtx  context.Context
	frameCtx context.Context
	frameID  target.ID
	frames   map[target.ID]context.Context
	cancels  []context.CancelFunc

	openFacet string
	agency    *facet
	supplier  *facet
}

var _ crawler.Dashboard = (*Session)(nil)

// New starts the browser. Call Open to log in and reach the report.
func New(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sel := DefaultSelectors(opts.Dashboard)
	if opts.Selectors != nil {
		sel = *opts.Selectors
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}

	limit := rate.Inf
	if opts.ActionInterval > 0 {
		limit = rate.Every(opts.ActionInterval)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Dashboard.Headless),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:     opts,
		sel:      sel,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With(slog.String("component", "dashboard")),
		pageCtx:  pageCtx,
		frameCtx: pageCtx,
		frames:   make(map[target.ID]context.Context),
		cancels:  []context.CancelFunc{cancelAlloc, cancelPage},
	}
	s.agency = &facet{session: s, title: opts.Dashboard.AgencyFacet}
	s.supplier = &facet{session: s, title: opts.Dashboard.SupplierFacet}

	// starts the browser
	if err := chromedp.Run(pageCtx, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(opts.DownloadDir).
		WithEventsEnabled(true)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s.logger.Info("Browser started",
		slog.Bool("headless", opts.Dashboard.Headless),
		slog.String("download_dir", opts.DownloadDir))
	return s, nil
}

// Close shuts the browser down
func (s *Session) Close() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	s.cancels = nil
}

// Open logs in, navigates to the report, attaches to the visualization
// and switches the chart to the configured period view
func (s *Session) Open(ctx context.Context) error {
	if err := s.login(ctx); err != nil {
		return err
	}
	if err := s.navigate(ctx); err != nil {
		return err
	}
	if err := s.attachFrame(ctx); err != nil {
		return err
	}
	return s.selectPeriodView(ctx)
}

func (s *Session) login(ctx context.Context) error {
	if s.opts.Auth.Email == "" || s.opts.Auth.Password == "" {
		return apperrors.NewConfigError("dashboard credentials are not configured", nil)
	}

	s.logger.InfoContext(ctx, "Logging in", slog.String("url", s.opts.Dashboard.BaseURL))
	if err := s.run(ctx, s.pageCtx, chromedp.Navigate(s.opts.Dashboard.BaseURL)); err != nil {
		return apperrors.NewInteractionError("open site", err)
	}

	steps := []struct {
		name string
		do   func() error
	}{
		{"open login form", func() error { return s.click(ctx, pageScope, s.sel.LoginLink) }},
		{"enter email", func() error { return s.typeText(ctx, pageScope, s.sel.Email, s.opts.Auth.Email) }},
		{"enter password", func() error { return s.typeText(ctx, pageScope, s.sel.Password, s.opts.Auth.Password) }},
		{"submit login", func() error { return s.click(ctx, pageScope, s.sel.Submit) }},
		{"await session", func() error { return s.waitVisible(ctx, pageScope, s.sel.AccountMenu) }},
	}
	for _, step := range steps {
		if err := step.do(); err != nil {
			return apperrors.NewInteractionError(step.name, err)
		}
	}

	s.logger.InfoContext(ctx, "Login successful")
	return nil
}

func (s *Session) navigate(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Navigating to report", slog.String("report", s.opts.Dashboard.ReportName))
	for _, xp := range []string{s.sel.AccountMenu, s.sel.ReportsLink, s.sel.MarketResearch, s.sel.ReportLink} {
		if err := s.click(ctx, pageScope, xp); err != nil {
			return apperrors.NewInteractionError("navigate to report", err).WithContext("selector", xp)
		}
	}
	return nil
}

func (s *Session) selectPeriodView(ctx context.Context) error {
	if s.opts.Dashboard.PeriodView == "" {
		return nil
	}
	if err := s.click(ctx, frameScope, s.sel.PeriodMenu); err != nil {
		return apperrors.NewInteractionError("open period menu", err)
	}
	if err := s.click(ctx, frameScope, s.sel.PeriodItem); err != nil {
		return apperrors.NewInteractionError("select period view", err).
			WithContext("view", s.opts.Dashboard.PeriodView)
	}
	s.logger.InfoContext(ctx, "Period view selected", slog.String("view", s.opts.Dashboard.PeriodView))
	return nil
}

// attachFrame waits for the visualization iframe and points frameCtx at it.
// An out-of-process frame gets its own target; otherwise the page target
// is used and scripts reach into the frame document.
func (s *Session) attachFrame(ctx context.Context) error {
	if err := s.waitPresent(ctx, pageScope, s.sel.Frame); err != nil {
		return apperrors.NewInteractionError("locate visualization frame", err)
	}

	var src string
	if err := s.eval(ctx, s.pageCtx, pageScope, frameSourceJS(s.sel.Frame), &src); err != nil {
		return apperrors.NewInteractionError("read visualization frame", err)
	}

	targets, err := chromedp.Targets(s.pageCtx)
	if err != nil {
		return apperrors.NewInteractionError("list browser targets", err)
	}

	id, ok := pickFrameTarget(targets, src)
	if !ok {
		s.frameCtx, s.frameID = s.pageCtx, ""
		s.logger.DebugContext(ctx, "Visualization frame is in-process", slog.String("src", src))
		return nil
	}
	if known, ok := s.frames[id]; ok {
		s.frameCtx, s.frameID = known, id
		return nil
	}

	frameCtx, cancel := chromedp.NewContext(s.pageCtx, chromedp.WithTargetID(id))
	if err := chromedp.Run(frameCtx); err != nil {
		cancel()
		return apperrors.NewInteractionError("attach visualization frame", err)
	}
	s.cancels = append(s.cancels, cancel)
	s.frames[id] = frameCtx
	s.frameCtx, s.frameID = frameCtx, id
	s.logger.InfoContext(ctx, "Attached to visualization frame", slog.String("target", string(id)))
	return nil
}

// pickFrameTarget prefers the iframe target on the same host as src
func pickFrameTarget(targets []*target.Info, src string) (target.ID, bool) {
	want := hostOf(src)
	var fallback target.ID
	for _, t := range targets {
		if t.Type != "iframe" {
			continue
		}
		if want != "" && hostOf(t.URL) == want {
			return t.TargetID, true
		}
		if fallback == "" {
			fallback = t.TargetID
		}
	}
	return fallback, fallback != ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// Recover returns to the top-level document and reattaches to the frame
func (s *Session) Recover(ctx context.Context) error {
	s.openFacet = ""
	s.frameCtx = s.pageCtx
	s.frameID = ""
	if err := s.attachFrame(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Recovered visualization frame")
	return nil
}

func (s *Session) AgencyFacet() crawler.Facet   { return s.agency }
func (s *Session) SupplierFacet() crawler.Facet { return s.supplier }

// CloseDropdowns sends Escape twice to dismiss dropdowns and overlays
func (s *Session) CloseDropdowns(ctx context.Context) error {
	for i := 0; i < 2; i++ {
		if err := s.run(ctx, s.frameCtx, chromedp.KeyEvent(kb.Escape)); err != nil {
			return err
		}
	}
	s.openFacet = ""
	return nil
}

// TriggerExport opens the download menu, chooses Crosstab and confirms
func (s *Session) TriggerExport(ctx context.Context) error {
	for _, xp := range []string{s.sel.DownloadButton, s.sel.CrosstabOption, s.sel.ConfirmDownload} {
		if err := s.waitPresent(ctx, frameScope, xp); err != nil {
			return fmt.Errorf("export step %s: %w", xp, err)
		}
		if err := s.scriptClick(ctx, frameScope, xp); err != nil {
			return fmt.Errorf("export step %s: %w", xp, err)
		}
	}
	// the download dialog replaces any open dropdown
	s.openFacet = ""
	s.logger.DebugContext(ctx, "Export triggered")
	return nil
}

// run executes user-visible actions on a target after waiting for the
// pacing limiter
func (s *Session) run(ctx context.Context, targetCtx context.Context, actions ...chromedp.Action) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.exec(ctx, targetCtx, actions...)
}

// exec executes actions unpaced. The run is bound by both the caller's ctx
// and the target's lifetime.
func (s *Session) exec(ctx context.Context, targetCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(targetCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (s *Session) ctxFor(sc scope) context.Context {
	if sc == frameScope {
		return s.frameCtx
	}
	return s.pageCtx
}
