package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Paths contains all the output paths for one output directory.
// Every component receives its Paths explicitly; there is no process-wide default.
type Paths struct {
	OutputDir    string
	RegistryFile string
}

// NewPaths derives the output layout rooted at outputDir
func NewPaths(outputDir string) *Paths {
	dir := filepath.Clean(outputDir)
	return &Paths{
		OutputDir:    dir,
		RegistryFile: filepath.Join(dir, RegistryFileName),
	}
}

// WholesaleWorkbook returns the wholesale workbook path for a year
func (p *Paths) WholesaleWorkbook(year int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf(WholesaleWorkbookPattern, year))
}

// RetailWorkbook returns the retail workbook path for a year
func (p *Paths) RetailWorkbook(year int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf(RetailWorkbookPattern, year))
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved output paths",
		slog.String("output_dir", p.OutputDir),
		slog.String("registry_file", p.RegistryFile))
}
