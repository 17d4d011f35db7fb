package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "nationcli/internal/errors"
	"nationcli/internal/infrastructure"
	"nationcli/pkg/contracts/domain"
)

func sampleTable() *domain.FactTable {
	tag := func(r domain.TidyRecord) domain.TidyRecord {
		r.Ticker = "BAH"
		r.Company = "Booz Allen Hamilton"
		r.FundingAgency = "Department of Energy"
		r.Field = "Federal Obligations PIT"
		return r
	}
	return &domain.FactTable{Records: []domain.TidyRecord{
		tag(domain.TidyRecord{Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Value: 1234.5}),
		tag(domain.TidyRecord{Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Missing: true}),
	}}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"parquet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPathAndExtension(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("out/data.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("out/data.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("out/data"))

	assert.Equal(t, "data.xlsx", WithExtension("data.csv", FormatXLSX))
	assert.Equal(t, "data.csv", WithExtension("data.csv", FormatCSV))
	assert.Equal(t, "data.csv", WithExtension("data", FormatCSV))
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, infrastructure.DiscardLogger())

	path, err := w.Write(filepath.Join("nested", "out.csv"), sampleTable(), WriteOptions{Format: FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "out.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.FactColumns, rows[0])
	assert.Equal(t, []string{"01/31/2024", "BAH", "Booz Allen Hamilton", "Department of Energy", "Federal Obligations PIT", "1234.5"}, rows[1])
	assert.Equal(t, "02/29/2024", rows[2][0])
	assert.Equal(t, "", rows[2][5])
}

func TestWriteCSVWithBOMOverwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(target, []byte("stale content that is longer than anything\n"), 0644))

	w := NewWriter("", infrastructure.DiscardLogger())
	_, err := w.Write(target, sampleTable(), WriteOptions{Format: FormatCSV, BOMPrefix: true})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, data[:3])
	assert.NotContains(t, string(data), "stale")
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, infrastructure.DiscardLogger())

	path, err := w.Write("out.xlsx", sampleTable(), WriteOptions{Format: FormatXLSX})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.FactColumns, rows[0])

	serial, err := strconv.ParseFloat(rows[1][0], 64)
	require.NoError(t, err)
	date, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", date.Format("2006-01-02"))
	assert.Equal(t, "BAH", rows[1][1])
	assert.Equal(t, "1234.5", rows[1][5])

	// trailing empty VALUE is trimmed by GetRows
	if len(rows[2]) > 5 {
		assert.Equal(t, "", rows[2][5])
	}
}

func TestWriteRejectsNilAndUnknownFormat(t *testing.T) {
	w := NewWriter(t.TempDir(), infrastructure.DiscardLogger())

	_, err := w.Write("out.csv", nil, WriteOptions{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = w.Write("out.bin", sampleTable(), WriteOptions{Format: "bin"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
