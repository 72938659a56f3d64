package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zjy-dev/covrun/internal/config"
	coverrs "github.com/zjy-dev/covrun/internal/errors"
	"github.com/zjy-dev/covrun/internal/exec"
	"github.com/zjy-dev/covrun/internal/layout"
	"github.com/zjy-dev/covrun/internal/pipeline"
	"github.com/zjy-dev/covrun/internal/report"
	"github.com/zjy-dev/covrun/internal/tool"
)

// nightlyChannel is the toolchain channel branch coverage needs.
const nightlyChannel = "nightly"

// Tarpaulin drives statistical coverage for cargo projects. One
// tarpaulin invocation compiles, runs and merges in a single step, so
// the stage list is shorter than the llvm one.
type Tarpaulin struct {
	cfg    config.Run
	layout layout.Layout
	runner exec.Runner
	log    zerolog.Logger

	cargo  tool.Tool
	rustup tool.Tool

	// collected is the collection run's output, kept for the text
	// report and the summary line.
	collected *exec.Result
}

// NewTarpaulin resolves cargo (and rustup when branch coverage needs a
// channel probe) and builds the backend.
func NewTarpaulin(cfg config.Run, lay layout.Layout, resolver *tool.Resolver, runner exec.Runner, log zerolog.Logger) (*Tarpaulin, error) {
	cargo, err := resolver.Resolve("cargo")
	if err != nil {
		return nil, err
	}
	b := &Tarpaulin{
		cfg:    cfg,
		layout: lay,
		runner: runner,
		log:    log,
		cargo:  cargo,
	}
	if cfg.Branch {
		rustup, err := resolver.Resolve("rustup")
		if err != nil {
			return nil, err
		}
		b.rustup = rustup
	}
	return b, nil
}

// Name implements Backend.
func (b *Tarpaulin) Name() string { return config.BackendTarpaulin }

// Preflight implements Backend. It probes for the tarpaulin subcommand
// and, when branch coverage is on, for the nightly channel.
func (b *Tarpaulin) Preflight() error {
	res, err := b.runner.Run(exec.Command{
		Path: b.cargo.Path,
		Args: []string{"tarpaulin", "--version"},
	})
	if err != nil || res.ExitCode != 0 {
		return &tool.NotFoundError{Name: "cargo-tarpaulin", Hint: "cargo install cargo-tarpaulin"}
	}
	b.log.Debug().Str("version", strings.TrimSpace(res.Stdout)).Msg("tarpaulin probe succeeded")

	if b.cfg.Branch {
		res, err := b.runner.Run(exec.Command{
			Path: b.rustup.Path,
			Args: []string{"run", nightlyChannel, "rustc", "--version"},
		})
		if err != nil || res.ExitCode != 0 {
			return &tool.ChannelError{Channel: nightlyChannel}
		}
		b.log.Debug().Str("version", strings.TrimSpace(res.Stdout)).Msg("nightly channel probe succeeded")
	}
	return nil
}

// Stages implements Backend: one collection run, a text stage that
// persists the captured output, and an HTML install stage on request.
func (b *Tarpaulin) Stages() []pipeline.Stage {
	collect := pipeline.NewCommandStage(
		"Collecting coverage with tarpaulin",
		pipeline.StateExecutingBinary,
		b.runner,
		exec.Command{Path: b.cargo.Path, Args: b.collectArgs()},
	).WithOnSuccess(func(res *exec.Result) error {
		b.collected = res
		return nil
	})
	if b.cfg.HTML {
		collect.WithArtifact(b.layout.CoberturaXML(), "tarpaulin exited clean without its cobertura export; check the installed tarpaulin version")
	}

	text := pipeline.NewFuncStage(
		"Rendering text report",
		pipeline.StateRenderingText,
		func() error {
			if b.collected == nil {
				return fmt.Errorf("%w: no collection output captured", coverrs.ErrMissingArtifact)
			}
			return report.Persist(b.layout.TextReport(), b.collected.Stdout)
		},
	).WithArtifact(b.layout.TextReport(), "")

	stages := []pipeline.Stage{collect, text}

	if b.cfg.HTML {
		html := pipeline.NewFuncStage(
			"Rendering HTML report",
			pipeline.StateRenderingHtml,
			func() error {
				return report.InstallHTML(b.layout.TarpaulinHTML(), b.layout.HTMLIndex())
			},
		).WithRequires(b.layout.TarpaulinHTML())
		stages = append(stages, html)
	}

	return stages
}

// collectArgs assembles the tarpaulin invocation. Branch coverage
// rides the nightly channel via cargo's +channel shorthand; the Html
// and Xml exports ride together, and only when HTML output was asked
// for. A plain run reports to the terminal alone.
func (b *Tarpaulin) collectArgs() []string {
	var args []string
	if b.cfg.Branch {
		args = append(args, "+"+nightlyChannel)
	}
	args = append(args, "tarpaulin")
	if b.cfg.IncludeTests {
		args = append(args, "--include-tests")
	}
	if b.cfg.AllTargets {
		args = append(args, "--all-targets")
	}
	if b.cfg.Branch {
		args = append(args, "--branch")
	}
	if b.cfg.HTML {
		args = append(args, "--out", "Html", "--out", "Xml")
	}
	args = append(args, "--output-dir", b.layout.OutputDir, "--root", b.cfg.SrcDir)
	return args
}

// Summary implements Backend by scanning the collection output for
// tarpaulin's closing figure, e.g. "82.31% coverage, 107/130 lines
// covered".
func (b *Tarpaulin) Summary() (report.Summary, bool) {
	if b.collected == nil {
		return report.Summary{}, false
	}
	for _, stream := range []string{b.collected.Stdout, b.collected.Stderr} {
		for _, line := range strings.Split(stream, "\n") {
			if summary, ok := parseCoverageLine(line); ok {
				return summary, true
			}
		}
	}
	b.log.Warn().Msg("tarpaulin output had no coverage line")
	return report.Summary{}, false
}

// parseCoverageLine extracts the percentage from a tarpaulin summary
// line. Lines without the "% coverage" marker are not summaries; log
// prefixes ahead of the figure are dropped.
func parseCoverageLine(line string) (report.Summary, bool) {
	idx := strings.Index(line, "% coverage")
	if idx < 0 {
		return report.Summary{}, false
	}
	head := strings.Fields(line[:idx])
	if len(head) == 0 {
		return report.Summary{}, false
	}
	percentText := head[len(head)-1]
	percent, err := strconv.ParseFloat(percentText, 64)
	if err != nil {
		return report.Summary{}, false
	}
	return report.Summary{LinePercent: percent, Detail: percentText + line[idx:]}, true
}
