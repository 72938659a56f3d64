// Package backend adapts concrete coverage toolchains to the pipeline.
//
// A backend owns the tool invocations of one toolchain and hands the
// pipeline an ordered stage list. The two implementations differ in
// shape: the llvm backend walks the full four-stage sequence, while
// tarpaulin collects and merges in a single cargo invocation.
package backend

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zjy-dev/covrun/internal/config"
	coverrs "github.com/zjy-dev/covrun/internal/errors"
	"github.com/zjy-dev/covrun/internal/exec"
	"github.com/zjy-dev/covrun/internal/layout"
	"github.com/zjy-dev/covrun/internal/pipeline"
	"github.com/zjy-dev/covrun/internal/report"
	"github.com/zjy-dev/covrun/internal/tool"
)

// Backend assembles the stage list implementing one coverage toolchain.
type Backend interface {
	// Name identifies the backend, matching its config selector.
	Name() string

	// Preflight probes the toolchain before any stage runs. Probes are
	// not pipeline stages; a failing probe means the run never starts.
	Preflight() error

	// Stages returns the ordered stages of one run.
	Stages() []pipeline.Stage

	// Summary extracts the coverage figure after a completed run. The
	// second return is false when no figure could be extracted; a run
	// without a summary is still a successful run.
	Summary() (report.Summary, bool)
}

// New builds the backend selected by cfg.Backend. Tool resolution
// happens here, before any external process is launched.
func New(cfg config.Run, lay layout.Layout, resolver *tool.Resolver, runner exec.Runner, log zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendLLVM:
		return NewLLVM(cfg, lay, resolver, runner, log)
	case config.BackendTarpaulin:
		return NewTarpaulin(cfg, lay, resolver, runner, log)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", coverrs.ErrValidation, cfg.Backend)
	}
}

// Tools lists the tool names the configured backend resolves, in
// resolution order.
func Tools(cfg config.Run) ([]string, error) {
	switch cfg.Backend {
	case config.BackendLLVM:
		return []string{"llvm-profdata", "llvm-cov"}, nil
	case config.BackendTarpaulin:
		names := []string{"cargo"}
		if cfg.Branch {
			names = append(names, "rustup")
		}
		return names, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", coverrs.ErrValidation, cfg.Backend)
	}
}
