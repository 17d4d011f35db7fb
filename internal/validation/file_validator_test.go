package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestValidateWritableDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, newValidator().ValidateWritableDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")
}

func TestValidateWritableDirectoryOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.Error(t, newValidator().ValidateWritableDirectory(filepath.Join(file, "sub")))
}

func TestValidateExport(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		errorContains string
	}{
		{
			name: "valid workbook",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "contracts-flow.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
				return path
			},
		},
		{
			name: "missing",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "contracts-flow.xlsx")
			},
			errorContains: "does not exist",
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "contracts-flow.xlsx")
				require.NoError(t, os.Mkdir(path, 0755))
				return path
			},
			errorContains: "is a directory",
		},
		{
			name: "partial download",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "contracts-flow.xlsx.crdownload")
				require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
				return path
			},
			errorContains: "not an Excel file",
		},
		{
			name: "lock file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "~$contracts-flow.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
				return path
			},
			errorContains: "temporary Excel file",
		},
		{
			name: "empty",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "contracts-flow.xlsx")
				require.NoError(t, os.WriteFile(path, nil, 0644))
				return path
			},
			errorContains: "is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newValidator().ValidateExport(tt.setupFunc(t))
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
