package files

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager owns the download directory the browser writes exports into
type Manager struct {
	dir           string
	partialSuffix string
	logger        *slog.Logger
}

// NewManager creates a manager for dir. partialSuffix marks downloads still
// in progress, e.g. ".crdownload".
func NewManager(dir, partialSuffix string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:           dir,
		partialSuffix: partialSuffix,
		logger:        logger.With(slog.String("component", "files")),
	}
}

// Dir returns the managed directory
func (m *Manager) Dir() string {
	return m.dir
}

// EnsureDirectory creates the managed directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", m.dir, err)
	}
	return nil
}

// FileExists checks if a regular file exists at path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(m.resolvePath(path))
	return err == nil && !info.IsDir()
}

// IsReady reports whether path has fully landed: it exists and its partial
// marker does not
func (m *Manager) IsReady(path string) bool {
	if !m.FileExists(path) {
		return false
	}
	return m.partialSuffix == "" || !m.FileExists(path+m.partialSuffix)
}

// DeleteFile removes path. A file that is already gone is not an error.
func (m *Manager) DeleteFile(path string) error {
	fullPath := m.resolvePath(path)
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", fullPath, err)
	}
	m.logger.Debug("Deleted file", slog.String("path", fullPath))
	return nil
}

// ClearStale removes every file matching pattern along with any partial
// markers of those names. Removal failures are logged and skipped; the
// number of files removed is returned.
func (m *Manager) ClearStale(pattern string) int {
	patterns := []string{m.resolvePath(pattern)}
	if m.partialSuffix != "" {
		patterns = append(patterns, m.resolvePath(pattern)+m.partialSuffix)
	}

	removed := 0
	for _, p := range patterns {
		matches, err := FindByPattern(p)
		if err != nil {
			m.logger.Warn("Stale export lookup failed", slog.String("pattern", p), slog.String("error", err.Error()))
			continue
		}
		for _, f := range matches {
			if err := os.Remove(f.Path); err != nil {
				m.logger.Warn("Failed to remove stale export",
					slog.String("path", f.Path),
					slog.String("error", err.Error()))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("Cleared stale exports", slog.String("pattern", pattern), slog.Int("removed", removed))
	}
	return removed
}

// resolvePath anchors relative paths at the managed directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.dir, path)
}
