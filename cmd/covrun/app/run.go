package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covrun/internal/config"
	"github.com/zjy-dev/covrun/internal/driver"
	"github.com/zjy-dev/covrun/internal/exec"
	"github.com/zjy-dev/covrun/internal/logger"
	"github.com/zjy-dev/covrun/internal/pipeline"
	"github.com/zjy-dev/covrun/internal/tool"
)

// NewRunCommand creates the "run" subcommand.
func NewRunCommand() *cobra.Command {
	var (
		testExe       string
		coverageName  string
		srcDir        string
		outputDir     string
		backendName   string
		toolOverrides []string
		html          bool
		open          bool
		branch        bool
		includeTests  bool
		allTargets    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the coverage pipeline and render reports.",
		Long: `Run the coverage pipeline for the configured target.

This command:
  1. Resolves the backend's tools (PATH lookup or explicit overrides)
  2. Executes the instrumented test binary (llvm backend) or
     cargo tarpaulin (tarpaulin backend)
  3. Merges the raw profile into an indexed one (llvm backend)
  4. Renders a text report and, when requested, an HTML report

Output directory structure:
  {output-dir}/
    ├── {coverage-name}.profraw               # raw profile (llvm)
    ├── {coverage-name}.profdata              # merged profile (llvm)
    ├── coverage_report/
    │   └── {coverage-name}_report.txt        # text report
    └── coverage_html/
        └── index.html                        # HTML report

Configuration:
  Default values are loaded from covrun.yaml and COVRUN_* environment
  variables. Command line flags override the config file values.

Examples:
  # Cover an instrumented C++ test binary
  covrun run --test-exe build/tests/unit_tests --coverage-name unit_tests --src-dir src

  # Cover a Rust crate with tarpaulin, rendering and opening the HTML report
  covrun run --backend tarpaulin --src-dir . --coverage-name kaubo --open

  # Point at a specific LLVM installation
  covrun run --tool-path-override llvm-cov=/opt/llvm/bin/llvm-cov \
             --tool-path-override llvm-profdata=/opt/llvm/bin/llvm-profdata`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Config values are the defaults, command line flags override.
			if cmd.Flags().Changed("test-exe") {
				cfg.TestExe = testExe
			}
			if cmd.Flags().Changed("coverage-name") {
				cfg.CoverageName = coverageName
			}
			if cmd.Flags().Changed("src-dir") {
				cfg.SrcDir = srcDir
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = backendName
			}
			if cmd.Flags().Changed("html") {
				cfg.HTML = html
			}
			if cmd.Flags().Changed("open") {
				cfg.Open = open
			}
			if cmd.Flags().Changed("branch") {
				cfg.Branch = branch
			}
			if cmd.Flags().Changed("include-tests") {
				cfg.IncludeTests = includeTests
			}
			if cmd.Flags().Changed("all-targets") {
				cfg.AllTargets = allTargets
			}
			if cmd.Flags().Changed("tool-path-override") {
				parsed, err := tool.ParseOverrides(toolOverrides)
				if err != nil {
					return err
				}
				if cfg.ToolOverrides == nil {
					cfg.ToolOverrides = make(map[string]string, len(parsed))
				}
				for name, path := range parsed {
					cfg.ToolOverrides[name] = path
				}
			}

			runLog := log.Logger
			if !cmd.Flags().Changed("verbose") && !cmd.Flags().Changed("quiet") {
				runLog = runLog.Level(logger.ParseLevel(cfg.LogLevel))
			}

			return runCoverage(cfg, runLog, cmd.OutOrStdout())
		},
	}

	// Flags (these are placeholder defaults, actual defaults come from config)
	cmd.Flags().StringVar(&testExe, "test-exe", "", "Instrumented test binary to execute (llvm backend)")
	cmd.Flags().StringVar(&coverageName, "coverage-name", "", "Basename for the coverage artifacts")
	cmd.Flags().StringVar(&srcDir, "src-dir", ".", "Source root the reports are computed against")
	cmd.Flags().StringVar(&outputDir, "output-dir", "coverage", "Directory all artifacts land in")
	cmd.Flags().StringVar(&backendName, "backend", config.BackendLLVM, "Coverage backend: llvm or tarpaulin")
	cmd.Flags().StringArrayVar(&toolOverrides, "tool-path-override", nil, "Tool path override as name=path (repeatable)")
	cmd.Flags().BoolVar(&html, "html", false, "Render an HTML report (tarpaulin; llvm always does)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the HTML report when the run completes (implies --html)")
	cmd.Flags().BoolVar(&branch, "branch", false, "Measure branch coverage (tarpaulin, needs the nightly toolchain)")
	cmd.Flags().BoolVar(&includeTests, "include-tests", false, "Count test code itself as coverable (tarpaulin)")
	cmd.Flags().BoolVar(&allTargets, "all-targets", false, "Cover benches, examples and other targets (tarpaulin)")

	return cmd
}

func runCoverage(cfg config.Run, runLog zerolog.Logger, out io.Writer) error {
	deps := driver.Deps{
		Runner:   exec.NewHostRunner(runLog),
		Log:      runLog,
		Progress: out,
	}

	res, err := driver.Run(cfg, deps)
	if err != nil {
		printStageFailure(out, err)
		return err
	}

	fmt.Fprintln(out, "[Coverage] Done.")
	fmt.Fprintf(out, "[Coverage] Text report: %s\n", res.Layout.TextReport())
	if htmlRendered(res.Outcome) {
		fmt.Fprintf(out, "[Coverage] HTML report: %s\n", res.Layout.HTMLIndex())
	}
	if res.Summary != nil {
		fmt.Fprintf(out, "[Coverage] %s\n", res.Summary)
	}

	if cfg.Open && htmlRendered(res.Outcome) {
		fmt.Fprintln(out, "[Coverage] Opening HTML report...")
		if err := browser.OpenFile(res.Layout.HTMLIndex()); err != nil {
			runLog.Warn().Err(err).Msg("failed to open report in browser")
		}
	}
	return nil
}

// printStageFailure surfaces the failed tool's output next to the
// progress banners, so the user sees the diagnostics without digging
// through the log file.
func printStageFailure(out io.Writer, err error) {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return
	}
	fmt.Fprintf(out, "[Coverage] %s failed (exit code %d)\n", stageErr.Stage, stageErr.Code)
	if s := strings.TrimRight(stageErr.Stdout, "\n"); s != "" {
		fmt.Fprintf(out, "[Coverage] Tool stdout:\n%s\n", s)
	}
	if s := strings.TrimRight(stageErr.Stderr, "\n"); s != "" {
		fmt.Fprintf(out, "[Coverage] Tool stderr:\n%s\n", s)
	}
}

// htmlRendered reports whether the run walked through the HTML stage.
func htmlRendered(out *pipeline.Outcome) bool {
	for _, r := range out.Results {
		if r.State == pipeline.StateRenderingHtml {
			return true
		}
	}
	return false
}
