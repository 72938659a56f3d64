// Package driver wires one coverage run end to end: validate the
// inputs, lay out the artifact paths, build the backend, and walk the
// pipeline.
package driver

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/zjy-dev/covrun/internal/backend"
	"github.com/zjy-dev/covrun/internal/config"
	"github.com/zjy-dev/covrun/internal/exec"
	"github.com/zjy-dev/covrun/internal/layout"
	"github.com/zjy-dev/covrun/internal/pipeline"
	"github.com/zjy-dev/covrun/internal/report"
	"github.com/zjy-dev/covrun/internal/tool"
)

// Deps are the driver's injection points. Tests swap the runner for a
// scripted one and capture progress in a buffer.
type Deps struct {
	Runner   exec.Runner
	Log      zerolog.Logger
	Progress io.Writer
}

// Result carries everything the caller needs after a run: the pipeline
// outcome, the artifact layout for pointing at reports, and the
// summary when one could be extracted.
type Result struct {
	Outcome *pipeline.Outcome
	Layout  layout.Layout
	Summary *report.Summary
}

// Run performs one coverage run. It returns an error for anything that
// stops the run, whether before the pipeline starts (validation, tool
// resolution, preflight) or inside it; when the pipeline ran at all,
// the returned Result holds its outcome.
func Run(cfg config.Run, deps Deps) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lay := layout.New(cfg.OutputDir, cfg.CoverageName)
	if err := lay.Ensure(); err != nil {
		return nil, err
	}

	resolver := tool.NewResolver(cfg.ToolOverrides, deps.Log)
	b, err := backend.New(cfg, lay, resolver, deps.Runner, deps.Log)
	if err != nil {
		return nil, err
	}
	if err := b.Preflight(); err != nil {
		return nil, err
	}

	deps.Log.Info().
		Str("backend", b.Name()).
		Str("coverage_name", cfg.CoverageName).
		Str("output_dir", cfg.OutputDir).
		Msg("starting coverage run")

	p := pipeline.New(b.Stages(), deps.Log)
	if deps.Progress != nil {
		p = p.WithProgress(deps.Progress)
	}

	result := &Result{Outcome: p.Run(), Layout: lay}
	if result.Outcome.Err != nil {
		return result, result.Outcome.Err
	}

	if summary, ok := b.Summary(); ok {
		result.Summary = &summary
	}
	return result, nil
}
