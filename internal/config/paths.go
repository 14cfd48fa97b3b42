package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations used by the application.
// Relative entries from PathsConfig are anchored at BaseDir, never at the
// current working directory.
type Paths struct {
	BaseDir         string
	DataDir         string
	ExportsDir      string
	LogsDir         string
	CredentialsFile string
	TaxonomyFile    string
}

// GetPaths resolves cfg against the directory holding the running executable.
func GetPaths(cfg *Config) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe), cfg), nil
}

// NewPaths resolves cfg against baseDir.
func NewPaths(baseDir string, cfg *Config) *Paths {
	p := &Paths{BaseDir: baseDir}
	p.DataDir = p.Resolve(cfg.Paths.DataDir)
	p.ExportsDir = p.Resolve(cfg.Paths.ExportsDir)
	p.LogsDir = p.Resolve(cfg.Paths.LogsDir)
	p.CredentialsFile = p.Resolve(cfg.Sheets.CredentialsFile)
	p.TaxonomyFile = p.Resolve(cfg.Ingest.TaxonomyFile)
	return p
}

// Resolve anchors a relative path at BaseDir. Empty and absolute paths are
// returned unchanged.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureDirectories creates the data, exports and logs directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExportPath returns the path for an exported file.
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved locations at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("credentials", p.CredentialsFile),
			slog.Bool("credentials_exists", FileExists(p.CredentialsFile)),
			slog.String("taxonomy", p.TaxonomyFile),
		))
}
