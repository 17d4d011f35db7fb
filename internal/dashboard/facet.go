package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nationcli/internal/poll"
)

// checkTimeout bounds the wait for a checkbox to reflect a click
const checkTimeout = 5 * time.Second

// facet is a Tableau multi-select dropdown identified by its title
type facet struct {
	session *Session
	title   string
}

// Open opens the dropdown unless it is already the open one
func (f *facet) Open(ctx context.Context) error {
	s := f.session
	if s.openFacet == f.title {
		return nil
	}
	if s.openFacet != "" {
		if err := s.CloseDropdowns(ctx); err != nil {
			return err
		}
	}

	if err := s.click(ctx, frameScope, s.sel.FacetContainer(f.title)); err != nil {
		return fmt.Errorf("open %s facet: %w", f.title, err)
	}
	if err := s.waitPresent(ctx, frameScope, s.sel.Option); err != nil {
		return fmt.Errorf("open %s facet: %w", f.title, err)
	}

	s.openFacet = f.title
	s.logger.DebugContext(ctx, "Facet opened", slog.String("facet", f.title))
	return nil
}

// Options returns the trimmed titles currently listed
func (f *facet) Options(ctx context.Context) ([]string, error) {
	s := f.session
	var titles []string
	if err := s.eval(ctx, s.frameCtx, frameScope, titlesJS(s.sel.Option), &titles); err != nil {
		return nil, fmt.Errorf("read %s options: %w", f.title, err)
	}

	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// Search replaces the dropdown's search text
func (f *facet) Search(ctx context.Context, text string) error {
	s := f.session
	if err := s.typeText(ctx, frameScope, s.sel.SearchBox, text); err != nil {
		return fmt.Errorf("search %s facet: %w", f.title, err)
	}
	return nil
}

// SetChecked clicks the option's checkbox when its state differs and waits
// for the new state to show
func (f *facet) SetChecked(ctx context.Context, value string, checked bool) error {
	s := f.session
	xp := s.sel.Checkbox(value)
	if err := s.waitPresent(ctx, frameScope, xp); err != nil {
		return fmt.Errorf("%s option %q: %w", f.title, value, err)
	}

	state, err := f.checkState(ctx, xp)
	if err != nil {
		return err
	}
	if state == checked {
		return nil
	}

	if err := s.click(ctx, frameScope, xp); err != nil {
		return fmt.Errorf("toggle %s option %q: %w", f.title, value, err)
	}
	return f.awaitState(ctx, xp, checked)
}

// SelectOnly unchecks everything, then checks value and verifies it
func (f *facet) SelectOnly(ctx context.Context, value string) error {
	if err := f.Open(ctx); err != nil {
		return err
	}
	if err := f.ClearAll(ctx); err != nil {
		return err
	}
	if err := f.Search(ctx, value); err != nil {
		return err
	}
	if err := f.SetChecked(ctx, value, true); err != nil {
		return err
	}
	f.session.logger.DebugContext(ctx, "Facet value selected",
		slog.String("facet", f.title),
		slog.String("value", value))
	return nil
}

// ClearAll unchecks every option through the (All) toggle. An unchecked
// (All) may still hide checked values, so it is checked first.
func (f *facet) ClearAll(ctx context.Context) error {
	if err := f.Search(ctx, ""); err != nil {
		return err
	}
	all := f.session.sel.AllOption
	if err := f.SetChecked(ctx, all, true); err != nil {
		return err
	}
	return f.SetChecked(ctx, all, false)
}

func (f *facet) checkState(ctx context.Context, xp string) (bool, error) {
	s := f.session
	var state int
	if err := s.eval(ctx, s.frameCtx, frameScope, checkedJS(xp), &state); err != nil {
		return false, err
	}
	if state < 0 {
		return false, fmt.Errorf("%s checkbox %s: %w", f.title, xp, errNotFound)
	}
	return state == 1, nil
}

func (f *facet) awaitState(ctx context.Context, xp string, checked bool) error {
	err := poll.Until(ctx, f.session.opts.PollInterval, checkTimeout, func(pctx context.Context) (bool, error) {
		state, err := f.checkState(pctx, xp)
		if err != nil {
			return false, err
		}
		return state == checked, nil
	})
	if err != nil {
		return fmt.Errorf("%s checkbox did not become checked=%t: %w", f.title, checked, err)
	}
	return nil
}
