// Package layout derives artifact paths for a coverage run.
//
// Every path is a pure function of the output directory and the
// coverage name, so two runs with the same inputs land on the same
// files and a re-run overwrites the previous artifacts in place.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// Layout names every artifact a coverage run produces.
type Layout struct {
	// OutputDir is the root directory all artifacts live under.
	OutputDir string

	// Name is the coverage name, used as the artifact basename.
	Name string
}

// New creates a Layout rooted at outputDir for the given coverage name.
func New(outputDir, name string) Layout {
	return Layout{OutputDir: outputDir, Name: name}
}

// RawProfile is the profile the instrumented binary writes on exit.
func (l Layout) RawProfile() string {
	return filepath.Join(l.OutputDir, l.Name+".profraw")
}

// MergedProfile is the indexed profile produced by the merge stage.
func (l Layout) MergedProfile() string {
	return filepath.Join(l.OutputDir, l.Name+".profdata")
}

// ReportDir is the directory holding text reports.
func (l Layout) ReportDir() string {
	return filepath.Join(l.OutputDir, "coverage_report")
}

// TextReport is the line-oriented coverage summary file.
func (l Layout) TextReport() string {
	return filepath.Join(l.ReportDir(), l.Name+"_report.txt")
}

// HTMLDir is the directory the HTML renderer fills with its tree.
func (l Layout) HTMLDir() string {
	return filepath.Join(l.OutputDir, "coverage_html")
}

// HTMLIndex is the browsable entry point of the HTML report.
func (l Layout) HTMLIndex() string {
	return filepath.Join(l.HTMLDir(), "index.html")
}

// TarpaulinHTML is where tarpaulin drops its single-file HTML report
// before the pipeline moves it under HTMLDir.
func (l Layout) TarpaulinHTML() string {
	return filepath.Join(l.OutputDir, "tarpaulin-report.html")
}

// CoberturaXML is the cobertura export tarpaulin writes when XML
// output is requested.
func (l Layout) CoberturaXML() string {
	return filepath.Join(l.OutputDir, "cobertura.xml")
}

// Ensure creates every directory in the layout: the output root, the
// text-report directory and the HTML directory. Pre-existing
// directories are fine; a re-run reuses them.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.OutputDir, l.ReportDir(), l.HTMLDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %w", coverrs.ErrReportWrite, dir, err)
		}
	}
	return nil
}
