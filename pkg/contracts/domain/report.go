package domain

import (
	"strconv"
	"time"
)

// DateLayout is the external DATE format of the fact table
const DateLayout = "01/02/2006"

// FactColumns is the canonical column order of the fact table
var FactColumns = []string{"DATE", "TICKER", "COMPANY", "FUNDING_AGENCY", "FIELD", "VALUE"}

// Tags are the constant labels attached to every record of one export
type Tags struct {
	Ticker        string `json:"ticker"`
	Company       string `json:"company"`
	FundingAgency string `json:"funding_agency"`
	Field         string `json:"field"`
}

// TidyRecord is one (series, period) observation
type TidyRecord struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	Missing       bool      `json:"missing,omitempty"`
	Ticker        string    `json:"ticker"`
	Company       string    `json:"company"`
	FundingAgency string    `json:"funding_agency"`
	Field         string    `json:"field"`
}

// FormatValue renders VALUE the way it is exported; missing cells are empty
func (r TidyRecord) FormatValue() string {
	if r.Missing {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// Row projects the record onto FactColumns
func (r TidyRecord) Row() []string {
	return []string{
		r.Date.Format(DateLayout),
		r.Ticker,
		r.Company,
		r.FundingAgency,
		r.Field,
		r.FormatValue(),
	}
}

// FactTable is the finalized output of a run
type FactTable struct {
	Records []TidyRecord `json:"records"`
}

// Columns returns the canonical header
func (t *FactTable) Columns() []string {
	cols := make([]string, len(FactColumns))
	copy(cols, FactColumns)
	return cols
}

// Rows returns every record projected and formatted for export
func (t *FactTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, r := range t.Records {
		rows = append(rows, r.Row())
	}
	return rows
}

// Len returns the number of records
func (t *FactTable) Len() int {
	return len(t.Records)
}
