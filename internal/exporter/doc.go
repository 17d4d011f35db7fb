// Package exporter writes the finalized fact table.
//
// CSV is the default: a header row with DATE, TICKER, COMPANY,
// FUNDING_AGENCY, FIELD and VALUE, dates as MM/DD/YYYY and missing values
// as empty cells. An optional UTF-8 BOM helps Excel pick the encoding.
//
// XLSX output carries the same columns on a single sheet, with DATE stored
// as a date cell and VALUE as a number.
//
//	w := exporter.NewWriter(paths.OutputDir, logger)
//	path, err := w.Write(paths.OutputFile, table, exporter.WriteOptions{Format: exporter.FormatCSV})
package exporter
