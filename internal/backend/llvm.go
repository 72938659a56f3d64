package backend

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/zjy-dev/covrun/internal/config"
	"github.com/zjy-dev/covrun/internal/exec"
	"github.com/zjy-dev/covrun/internal/layout"
	"github.com/zjy-dev/covrun/internal/pipeline"
	"github.com/zjy-dev/covrun/internal/report"
	"github.com/zjy-dev/covrun/internal/tool"
)

// instrumentationHint explains the usual cause of a missing raw
// profile: the binary ran fine but was never instrumented.
const instrumentationHint = "compile the test binary with -fprofile-instr-generate -fcoverage-mapping"

// LLVM drives source-based coverage: run the instrumented binary,
// index the raw profile with llvm-profdata, then render text and HTML
// reports with llvm-cov.
type LLVM struct {
	cfg    config.Run
	layout layout.Layout
	runner exec.Runner
	log    zerolog.Logger

	profdata tool.Tool
	cov      tool.Tool
}

// NewLLVM resolves the llvm tools and builds the backend. A tool that
// cannot be resolved fails construction, so no process ever launches.
func NewLLVM(cfg config.Run, lay layout.Layout, resolver *tool.Resolver, runner exec.Runner, log zerolog.Logger) (*LLVM, error) {
	profdata, err := resolver.Resolve("llvm-profdata")
	if err != nil {
		return nil, err
	}
	cov, err := resolver.Resolve("llvm-cov")
	if err != nil {
		return nil, err
	}
	return &LLVM{
		cfg:      cfg,
		layout:   lay,
		runner:   runner,
		log:      log,
		profdata: profdata,
		cov:      cov,
	}, nil
}

// Name implements Backend.
func (b *LLVM) Name() string { return config.BackendLLVM }

// Preflight implements Backend. The llvm tools need no probes beyond
// resolution, which already happened in NewLLVM.
func (b *LLVM) Preflight() error { return nil }

// Stages implements Backend with the full four-stage sequence.
func (b *LLVM) Stages() []pipeline.Stage {
	execute := pipeline.NewCommandStage(
		"Running instrumented test binary",
		pipeline.StateExecutingBinary,
		b.runner,
		exec.Command{
			Path: b.cfg.TestExe,
			Env:  map[string]string{"LLVM_PROFILE_FILE": b.layout.RawProfile()},
		},
	).WithRequires(b.cfg.TestExe).
		WithArtifact(b.layout.RawProfile(), instrumentationHint)

	merge := pipeline.NewCommandStage(
		"Merging raw profile",
		pipeline.StateMergingProfile,
		b.runner,
		exec.Command{
			Path: b.profdata.Path,
			Args: []string{"merge", "-sparse", b.layout.RawProfile(), "-o", b.layout.MergedProfile()},
		},
	).WithRequires(b.layout.RawProfile()).
		WithArtifact(b.layout.MergedProfile(), "")

	text := pipeline.NewCommandStage(
		"Rendering text report",
		pipeline.StateRenderingText,
		b.runner,
		exec.Command{
			Path: b.cov.Path,
			Args: []string{"report", b.cfg.TestExe, "-instr-profile", b.layout.MergedProfile(), b.cfg.SrcDir},
		},
	).WithRequires(b.layout.MergedProfile()).
		WithOnSuccess(func(res *exec.Result) error {
			return report.Persist(b.layout.TextReport(), res.Stdout)
		}).
		WithArtifact(b.layout.TextReport(), "")

	// The HTML renderer owns its output tree; a zero exit is the only
	// success signal it gives, so nothing is declared.
	html := pipeline.NewCommandStage(
		"Rendering HTML report",
		pipeline.StateRenderingHtml,
		b.runner,
		exec.Command{
			Path: b.cov.Path,
			Args: []string{
				"show", b.cfg.TestExe,
				"-instr-profile", b.layout.MergedProfile(),
				"-format=html",
				"-output-dir=" + b.layout.HTMLDir(),
				"-show-line-counts-or-regions",
				"-show-instantiations=false",
				b.cfg.SrcDir,
			},
		},
	).WithRequires(b.layout.MergedProfile())

	return []pipeline.Stage{execute, merge, text, html}
}

// Summary implements Backend by asking llvm-cov for its JSON export
// and pulling the total line percentage out of it. Extraction is best
// effort; a failure only costs the closing summary line.
func (b *LLVM) Summary() (report.Summary, bool) {
	res, err := b.runner.Run(exec.Command{
		Path: b.cov.Path,
		Args: []string{"export", b.cfg.TestExe, "-instr-profile", b.layout.MergedProfile(), "-summary-only", b.cfg.SrcDir},
	})
	if err != nil || res.ExitCode != 0 {
		b.log.Warn().Err(err).Msg("coverage summary extraction failed")
		return report.Summary{}, false
	}

	percent := gjson.Get(res.Stdout, "data.0.totals.lines.percent")
	if !percent.Exists() {
		b.log.Warn().Msg("coverage export had no line totals")
		return report.Summary{}, false
	}
	return report.Summary{LinePercent: percent.Float()}, true
}
