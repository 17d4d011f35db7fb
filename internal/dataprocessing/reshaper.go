package dataprocessing

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "nationcli/internal/errors"
	"nationcli/internal/validation"
	"nationcli/pkg/contracts/domain"
)

// minSerialDate separates Excel serial dates from small numbers such as a
// bare year; serial 10000 is 1927-05-18.
const minSerialDate = 10000

// periodLayouts are the label formats the crosstab export is known to use
var periodLayouts = []string{
	"January 2006",
	"Jan 2006",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01",
	"1/2006",
	yearLayout,
}

// yearLayout matches a bare year, which carries no month
const yearLayout = "2006"

// quarterPattern matches "Q3 2024" and "2024 Q3"
var quarterPattern = regexp.MustCompile(`(?i)^(?:Q([1-4])\s*(\d{4})|(\d{4})\s*-?\s*Q([1-4]))$`)

// ReshaperOptions controls how an export workbook is read
type ReshaperOptions struct {
	// Sheet is the sheet to read. Empty means the first sheet.
	Sheet string
	// HeaderRow is the number of title rows above the period header.
	HeaderRow int
	Logger    *slog.Logger
}

// Reshaper turns a wide crosstab export into tidy records
type Reshaper struct {
	opts   ReshaperOptions
	logger *slog.Logger
}

// NewReshaper creates a reshaper
func NewReshaper(opts ReshaperOptions) *Reshaper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HeaderRow < 0 {
		opts.HeaderRow = 0
	}
	return &Reshaper{
		opts:   opts,
		logger: logger.With(slog.String("component", "reshaper")),
	}
}

// Reshape reads the workbook at path and produces one record per series and
// period, series-major, with tags attached to every record.
func (r *Reshaper) Reshape(path string, tags domain.Tags) ([]domain.TidyRecord, error) {
	rows, err := r.readRows(path)
	if err != nil {
		return nil, err
	}

	if len(rows) <= r.opts.HeaderRow {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("export has %d rows, header expected at row %d", len(rows), r.opts.HeaderRow+1), nil).
			WithContext("path", path)
	}

	header := rows[r.opts.HeaderRow]
	periods := periodColumns(header)
	if len(periods) == 0 {
		return nil, apperrors.NewParsingError("export header has no period columns", nil).
			WithContext("path", path)
	}

	var records []domain.TidyRecord
	for i, row := range rows[r.opts.HeaderRow+1:] {
		if isBlankRow(row) {
			continue
		}
		series := strings.TrimSpace(cell(row, 0))

		for _, col := range periods {
			date, err := normalizePeriod(strings.TrimSpace(header[col]), series)
			if err != nil {
				return nil, apperrors.NewParsingError("unrecognized period label", err).
					WithContext("path", path).
					WithContext("row", r.opts.HeaderRow+2+i)
			}

			value, missing := parseValue(cell(row, col))
			if missing && strings.TrimSpace(cell(row, col)) != "" {
				r.logger.Warn("Non-numeric cell treated as missing",
					slog.String("path", path),
					slog.String("series", series),
					slog.String("period", header[col]),
					slog.String("content", cell(row, col)))
			}

			records = append(records, domain.TidyRecord{
				Date:          date,
				Value:         value,
				Missing:       missing,
				Ticker:        tags.Ticker,
				Company:       tags.Company,
				FundingAgency: tags.FundingAgency,
				Field:         tags.Field,
			})
		}
	}

	r.logger.Debug("Export reshaped",
		slog.String("path", path),
		slog.Int("periods", len(periods)),
		slog.Int("records", len(records)))

	return records, nil
}

// readRows opens the workbook and returns the raw cell values of the sheet
func (r *Reshaper) readRows(path string) ([][]string, error) {
	if err := validation.NewFileValidator(r.logger).ValidateExport(path); err != nil {
		return nil, apperrors.NewParsingError("invalid export", err).WithContext("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open export", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := r.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("export has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", path)
	}
	return rows, nil
}

// periodColumns returns the indexes of non-empty header cells after column 0
func periodColumns(header []string) []int {
	var cols []int
	for i := 1; i < len(header); i++ {
		if strings.TrimSpace(header[i]) != "" {
			cols = append(cols, i)
		}
	}
	return cols
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseValue parses a raw cell. Empty and non-numeric cells are missing.
func parseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, true
	}
	return v, false
}

// normalizePeriod resolves a header period to the last day of its month.
// The header wins whenever it names a month. The series label is only
// consulted to complete a header that lacks a year, such as "March" over a
// "2024" row, and never replaces the header.
func normalizePeriod(period, series string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(period, 64); err == nil && serial >= minSerialDate {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return MonthEnd(t), nil
	}

	header := strings.Fields(period)
	if len(header) == 0 {
		return time.Time{}, fmt.Errorf("empty period label")
	}

	headerOnly, monthly, ok := resolvePeriod(header, len(header))
	if ok && monthly {
		return MonthEnd(headerOnly), nil
	}

	combined := append(append([]string(nil), header...), strings.Fields(series)...)
	if t, m, found := resolvePeriod(combined, len(header)); found && m {
		return MonthEnd(t), nil
	}

	if ok {
		return MonthEnd(headerOnly), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse period label %q", strings.TrimSpace(period+" "+series))
}

// ParsePeriodLabel parses label against the known layouts, trying the whole
// label first, then shorter trailing token runs, then shorter leading ones.
// A run naming a month beats a bare year anywhere in the label.
func ParsePeriodLabel(label string) (time.Time, error) {
	tokens := strings.Fields(label)
	if len(tokens) == 0 {
		return time.Time{}, fmt.Errorf("empty period label")
	}
	t, _, ok := resolvePeriod(tokens, len(tokens))
	if !ok {
		return time.Time{}, fmt.Errorf("cannot parse period label %q", label)
	}
	return t, nil
}

// resolvePeriod tries the token runs of tokens that contain at least one of
// the first anchor tokens. monthly is false when only a bare year matched.
func resolvePeriod(tokens []string, anchor int) (t time.Time, monthly bool, ok bool) {
	candidates := make([]string, 0, 2*len(tokens))
	for i := 0; i < len(tokens) && i < anchor; i++ {
		candidates = append(candidates, strings.Join(tokens[i:], " "))
	}
	for j := len(tokens) - 1; j > 0; j-- {
		candidates = append(candidates, strings.Join(tokens[:j], " "))
	}

	var year time.Time
	var haveYear bool
	for _, c := range candidates {
		parsed, m, found := parsePeriod(c)
		if !found {
			continue
		}
		if m {
			return parsed, true, true
		}
		if !haveYear {
			year, haveYear = parsed, true
		}
	}
	return year, false, haveYear
}

// parsePeriod parses one candidate. Quarters map to their last month.
func parsePeriod(s string) (time.Time, bool, bool) {
	if m := quarterPattern.FindStringSubmatch(s); m != nil {
		q, y := m[1], m[2]
		if q == "" {
			y, q = m[3], m[4]
		}
		year, _ := strconv.Atoi(y)
		quarter, _ := strconv.Atoi(q)
		return time.Date(year, time.Month(quarter*3), 1, 0, 0, 0, 0, time.UTC), true, true
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout != yearLayout, true
		}
	}
	return time.Time{}, false, false
}

// MonthEnd returns the last calendar day of t's month at midnight UTC
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
