package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "nationcli/internal/errors"
	"nationcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures how the fact table is written
type WriteOptions struct {
	Format    Format
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility; csv only
	Sheet     string
}

// Writer exports fact tables below a base directory
type Writer struct {
	baseDir string
	logger  *slog.Logger
}

// NewWriter creates a writer. Relative paths are resolved against baseDir.
func NewWriter(baseDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{baseDir: baseDir, logger: logger}
}

// Write stores the table at filePath in the requested format and returns
// the resolved location.
func (w *Writer) Write(filePath string, table *domain.FactTable, opts WriteOptions) (string, error) {
	if table == nil {
		return "", apperrors.NewAppValidationError("nothing to export")
	}

	fullPath := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err)
	}

	w.logger.Info("Writing fact table",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.String("format", string(opts.Format)),
		slog.Int("record_count", table.Len()))

	var err error
	switch opts.Format {
	case FormatCSV, "":
		err = writeCSV(fullPath, table, opts.BOMPrefix)
	case FormatXLSX:
		err = writeXLSX(fullPath, table, opts.Sheet)
	default:
		err = fmt.Errorf("unsupported output format %q", opts.Format)
	}
	if err != nil {
		return "", apperrors.NewStorageError("failed to write "+fullPath, err)
	}
	return fullPath, nil
}

// writeCSV writes the header and every row, replacing any existing file
func writeCSV(fullPath string, table *domain.FactTable, bom bool) error {
	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range table.Rows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func (w *Writer) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
