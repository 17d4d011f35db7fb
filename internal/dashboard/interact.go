package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"nationcli/internal/poll"
)

// errNotFound is reported by script actions whose element is missing
var errNotFound = errors.New("element not found")

// eval runs a scoped script on targetCtx and decodes its result into res
func (s *Session) eval(ctx context.Context, targetCtx context.Context, sc scope, body string, res interface{}) error {
	return s.exec(ctx, targetCtx, chromedp.Evaluate(script(sc, s.sel.Frame, body), res))
}

// waitFor polls a boolean script until it holds or the UI timeout elapses
func (s *Session) waitFor(ctx context.Context, sc scope, body, what string) error {
	err := poll.Until(ctx, s.opts.PollInterval, s.opts.Dashboard.UITimeout, func(pctx context.Context) (bool, error) {
		var ok bool
		if err := s.eval(pctx, s.ctxFor(sc), sc, body, &ok); err != nil {
			if pctx.Err() != nil {
				return false, poll.Stop(pctx.Err())
			}
			return false, err
		}
		return ok, nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return fmt.Errorf("waiting for %s: %w", what, err)
	}
	return err
}

func (s *Session) waitPresent(ctx context.Context, sc scope, xpath string) error {
	return s.waitFor(ctx, sc, presentJS(xpath), xpath)
}

func (s *Session) waitVisible(ctx context.Context, sc scope, xpath string) error {
	return s.waitFor(ctx, sc, visibleJS(xpath), xpath)
}

// click waits for the element, tries a CDP mouse click and falls back to a
// script click when that fails
func (s *Session) click(ctx context.Context, sc scope, xpath string) error {
	if err := s.waitPresent(ctx, sc, xpath); err != nil {
		return err
	}

	var scrolled bool
	if err := s.eval(ctx, s.ctxFor(sc), sc, scrollJS(xpath), &scrolled); err != nil {
		return err
	}

	err := s.nativeClick(ctx, sc, xpath)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.DebugContext(ctx, "Native click failed, using script click",
		slog.String("selector", xpath),
		slog.String("error", err.Error()))
	return s.scriptClick(ctx, sc, xpath)
}

func (s *Session) nativeClick(ctx context.Context, sc scope, xpath string) error {
	clickCtx, cancel := context.WithTimeout(ctx, nativeClickTimeout)
	defer cancel()
	return s.run(clickCtx, s.ctxFor(sc), chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible))
}

func (s *Session) scriptClick(ctx context.Context, sc scope, xpath string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	var clicked bool
	if err := s.eval(ctx, s.ctxFor(sc), sc, clickJS(xpath), &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("click %s: %w", xpath, errNotFound)
	}
	return nil
}

// typeText replaces the content of a text control. Key events are sent
// natively; if that fails the value is set by script.
func (s *Session) typeText(ctx context.Context, sc scope, xpath, text string) error {
	if err := s.waitPresent(ctx, sc, xpath); err != nil {
		return err
	}

	nativeCtx, cancel := context.WithTimeout(ctx, nativeClickTimeout)
	actions := []chromedp.Action{chromedp.Clear(xpath, chromedp.BySearch)}
	if text != "" {
		actions = append(actions, chromedp.SendKeys(xpath, text, chromedp.BySearch))
	}
	err := s.run(nativeCtx, s.ctxFor(sc), actions...)
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var ok bool
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.eval(ctx, s.ctxFor(sc), sc, setTextJS(xpath, text), &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("type into %s: %w", xpath, errNotFound)
	}
	return nil
}
