package crawler

import (
	"context"
	"fmt"

	"nationcli/internal/config"
)

// AgencySource yields the candidate funding agencies for one enumeration attempt
type AgencySource interface {
	Candidates(ctx context.Context) ([]string, error)
}

// NewAgencySource builds the source for a configured strategy
func NewAgencySource(strategy string, facet Facet, agencies []string) (AgencySource, error) {
	switch strategy {
	case "", config.StrategyDynamic:
		return &DynamicSource{facet: facet}, nil
	case config.StrategySnapshot:
		return &SnapshotSource{facet: facet}, nil
	case config.StrategyStatic:
		if len(agencies) == 0 {
			return nil, fmt.Errorf("static agency source needs at least one agency")
		}
		return StaticSource(agencies), nil
	default:
		return nil, fmt.Errorf("unknown enumeration strategy: %s", strategy)
	}
}

// DynamicSource re-reads the facet options on every attempt
type DynamicSource struct {
	facet Facet
}

func (s *DynamicSource) Candidates(ctx context.Context) ([]string, error) {
	return readFacet(ctx, s.facet)
}

// SnapshotSource reads the facet options once and replays that list
type SnapshotSource struct {
	facet    Facet
	snapshot []string
	loaded   bool
}

func (s *SnapshotSource) Candidates(ctx context.Context) ([]string, error) {
	if s.loaded {
		return s.snapshot, nil
	}
	options, err := readFacet(ctx, s.facet)
	if err != nil {
		return nil, err
	}
	s.snapshot = options
	s.loaded = true
	return s.snapshot, nil
}

// StaticSource is a configured list of agencies; the UI is never read
type StaticSource []string

func (s StaticSource) Candidates(context.Context) ([]string, error) {
	return s, nil
}

func readFacet(ctx context.Context, facet Facet) ([]string, error) {
	if err := facet.Open(ctx); err != nil {
		return nil, fmt.Errorf("open agency facet: %w", err)
	}
	options, err := facet.Options(ctx)
	if err != nil {
		return nil, fmt.Errorf("read agency options: %w", err)
	}
	return options, nil
}
