// Package report persists rendered coverage reports and carries the
// summary figure shown at the end of a run.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// Persist writes a rendered text report to path, creating the parent
// directory if needed. A re-run overwrites the previous report.
func Persist(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create report directory %s: %w", coverrs.ErrReportWrite, dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write report %s: %w", coverrs.ErrReportWrite, path, err)
	}
	return nil
}

// InstallHTML moves a single-file HTML report to index, creating the
// directory it lives in. Backends that emit one flat HTML file use
// this to give it the same browsable entry point a multi-file tree
// has.
func InstallHTML(src, index string) error {
	dir := filepath.Dir(index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create HTML directory %s: %w", coverrs.ErrReportWrite, dir, err)
	}
	if err := os.Rename(src, index); err != nil {
		return fmt.Errorf("%w: failed to install HTML report at %s: %w", coverrs.ErrReportWrite, index, err)
	}
	return nil
}

// Summary is the coverage figure extracted from a finished run.
type Summary struct {
	// LinePercent is total line coverage in percent, 0 to 100.
	LinePercent float64

	// Detail is the backend's own phrasing when it has one, e.g.
	// "82.31% coverage, 1234/1500 lines covered".
	Detail string
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	if s.Detail != "" {
		return s.Detail
	}
	return fmt.Sprintf("%.2f%% line coverage", s.LinePercent)
}
