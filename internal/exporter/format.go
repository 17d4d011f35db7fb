package exporter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output encoding of the fact table
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx, case-insensitively. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// FormatFromPath infers the format from the file extension
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// WithExtension swaps the extension of path to match f
func WithExtension(path string, f Format) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, "."+string(f)) {
		return path
	}
	return strings.TrimSuffix(path, ext) + "." + string(f)
}
