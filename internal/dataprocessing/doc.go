// Package dataprocessing turns downloaded crosstab exports into tidy records.
//
// The Reshaper reads an export workbook with excelize, treats the row after
// the title rows as the period header and every following row as a series.
// Each (series, period) cell becomes one domain.TidyRecord whose date is the
// last day of the period's month.
//
//	r := dataprocessing.NewReshaper(dataprocessing.ReshaperOptions{HeaderRow: 1})
//	records, err := r.Reshape("contracts-flow.xlsx", tags)
//
// The Aggregator concatenates records in traversal order and finalizes them
// into a domain.FactTable.
package dataprocessing
