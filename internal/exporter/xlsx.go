package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"nationcli/pkg/contracts/domain"
)

// DefaultSheet names the single worksheet of an xlsx export
const DefaultSheet = "Funding Data"

const dateNumFmt = "mm/dd/yyyy"

// writeXLSX writes DATE as a real date cell and VALUE as a number.
// Missing values stay blank.
func writeXLSX(fullPath string, table *domain.FactTable, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(domain.FactColumns))
	for _, c := range table.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range table.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var value interface{}
		if !r.Missing {
			value = r.Value
		}
		row := []interface{}{r.Date, r.Ticker, r.Company, r.FundingAgency, r.Field, value}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if n := table.Len(); n > 0 {
		numFmt := dateNumFmt
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(1, n+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A2", last, style); err != nil {
			return err
		}
	}

	return f.SaveAs(fullPath)
}
