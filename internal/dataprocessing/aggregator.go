package dataprocessing

import (
	apperrors "nationcli/internal/errors"
	"nationcli/pkg/contracts/domain"
)

// Aggregator concatenates tidy records in traversal order
type Aggregator struct {
	records []domain.TidyRecord
	batches int
	skipped int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends one export's records
func (a *Aggregator) Add(records []domain.TidyRecord) {
	a.records = append(a.records, records...)
	a.batches++
}

// Skip counts a combination that produced no records
func (a *Aggregator) Skip() {
	a.skipped++
}

// Len returns the number of records collected so far
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Reset drops everything collected so far
func (a *Aggregator) Reset() {
	a.records = nil
	a.batches = 0
	a.skipped = 0
}

// Finalize returns the fact table, or ErrEmptyResult when nothing was added
func (a *Aggregator) Finalize() (*domain.FactTable, error) {
	if len(a.records) == 0 {
		return nil, apperrors.NewEmptyResultError(a.batches + a.skipped)
	}
	out := make([]domain.TidyRecord, len(a.records))
	copy(out, a.records)
	return &domain.FactTable{Records: out}, nil
}
