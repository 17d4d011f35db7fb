package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved file system location used by a run
type Paths struct {
	ExecutableDir string
	DownloadsDir  string
	OutputDir     string
	LogsDir       string

	// ExportPath is where the dashboard writes the crosstab export
	ExportPath    string
	ExportPrefix  string
	PartialSuffix string
	OutputFile    string
}

// GetPaths resolves the configured paths. Relative output and log
// directories are anchored at the executable directory; the download
// directory defaults to the user's Downloads folder.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}

	downloads := cfg.DownloadDir
	if downloads == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		downloads = filepath.Join(home, "Downloads")
	}

	outputDir := anchor(exeDir, cfg.OutputDir, "data")
	logsDir := anchor(exeDir, cfg.LogsDir, "logs")

	return &Paths{
		ExecutableDir: exeDir,
		DownloadsDir:  downloads,
		OutputDir:     outputDir,
		LogsDir:       logsDir,
		ExportPath:    filepath.Join(downloads, cfg.ExportFile),
		ExportPrefix:  cfg.ExportPrefix,
		PartialSuffix: cfg.PartialSuffix,
		OutputFile:    cfg.OutputFile,
	}, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}
	return filepath.Dir(exe), nil
}

func anchor(base, configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(base, configured)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DownloadsDir, p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// PartialPath returns the in-progress marker of the export artifact
func (p *Paths) PartialPath() string {
	return p.ExportPath + p.PartialSuffix
}

// ExportPattern returns the glob used to clear stale exports
func (p *Paths) ExportPattern() string {
	return filepath.Join(p.DownloadsDir, p.ExportPrefix+"*"+filepath.Ext(p.ExportPath))
}

// GetOutputPath returns the fact table location; absolute file names win
func (p *Paths) GetOutputPath() string {
	if filepath.IsAbs(p.OutputFile) {
		return p.OutputFile
	}
	return filepath.Join(p.OutputDir, p.OutputFile)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs the resolved locations for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("export_path", p.ExportPath),
		slog.String("output_file", p.GetOutputPath()))
}
