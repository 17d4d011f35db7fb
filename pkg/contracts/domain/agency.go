package domain

import "strings"

// FundingAgency is a funding-agency facet value as displayed by the dashboard
type FundingAgency string

// NewFundingAgency normalizes a raw facet title
func NewFundingAgency(title string) FundingAgency {
	return FundingAgency(strings.TrimSpace(title))
}

// String returns the display value
func (a FundingAgency) String() string {
	return string(a)
}

// ProcessedSet records the agencies already selected in a run.
// It only grows; Values preserves insertion order.
type ProcessedSet struct {
	seen  map[FundingAgency]struct{}
	order []FundingAgency
}

// NewProcessedSet creates an empty set
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{seen: make(map[FundingAgency]struct{})}
}

// Add inserts an agency and reports whether it was new
func (s *ProcessedSet) Add(a FundingAgency) bool {
	if _, ok := s.seen[a]; ok {
		return false
	}
	s.seen[a] = struct{}{}
	s.order = append(s.order, a)
	return true
}

// Contains reports whether the agency was already processed
func (s *ProcessedSet) Contains(a FundingAgency) bool {
	_, ok := s.seen[a]
	return ok
}

// Len returns the number of processed agencies
func (s *ProcessedSet) Len() int {
	return len(s.order)
}

// Values returns the processed agencies in the order they were added
func (s *ProcessedSet) Values() []FundingAgency {
	out := make([]FundingAgency, len(s.order))
	copy(out, s.order)
	return out
}
