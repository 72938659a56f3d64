// Package config loads and validates the settings for a coverage run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// Backend selectors.
const (
	BackendLLVM      = "llvm"
	BackendTarpaulin = "tarpaulin"
)

// Run holds everything one coverage run needs. Field values come from
// the config file, COVRUN_* environment variables and command-line
// flags, in increasing order of precedence.
type Run struct {
	// TestExe is the instrumented test binary. Required by the llvm
	// backend, ignored by tarpaulin.
	TestExe string `mapstructure:"test_exe" yaml:"test_exe"`

	// CoverageName is the artifact basename, e.g. "unit_tests".
	CoverageName string `mapstructure:"coverage_name" yaml:"coverage_name"`

	// SrcDir is the source root handed to the report renderers.
	SrcDir string `mapstructure:"src_dir" yaml:"src_dir"`

	// OutputDir is where all artifacts land.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Backend selects the toolchain: "llvm" or "tarpaulin".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// HTML asks the tarpaulin backend for an HTML report. The llvm
	// backend always renders one.
	HTML bool `mapstructure:"html" yaml:"html"`

	// Open opens the HTML report in a browser after a completed run
	// and implies HTML.
	Open bool `mapstructure:"open" yaml:"open"`

	// Branch enables branch coverage, which needs the nightly channel.
	Branch bool `mapstructure:"branch" yaml:"branch"`

	// IncludeTests counts test code itself as coverable.
	IncludeTests bool `mapstructure:"include_tests" yaml:"include_tests"`

	// AllTargets covers benches, examples and other non-default targets.
	AllTargets bool `mapstructure:"all_targets" yaml:"all_targets"`

	// LogLevel sets the minimum log level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// ToolOverrides maps logical tool names to executable paths.
	ToolOverrides map[string]string `mapstructure:"tool_overrides" yaml:"tool_overrides,omitempty"`
}

// Default returns the built-in settings a fresh Run starts from.
func Default() Run {
	return Run{
		SrcDir:    ".",
		OutputDir: "coverage",
		Backend:   BackendLLVM,
		LogLevel:  "info",
	}
}

// Load reads the covrun config file and environment into a Run.
// The file is looked up as covrun.yaml in the working directory, a
// configs/ subdirectory and ~/.covrun; a missing file is fine, the
// defaults and COVRUN_* environment variables still apply.
func Load() (Run, error) {
	v := viper.New()
	v.SetConfigName("covrun")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".covrun"))
	}

	v.SetEnvPrefix("COVRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("test_exe", defaults.TestExe)
	v.SetDefault("coverage_name", defaults.CoverageName)
	v.SetDefault("src_dir", defaults.SrcDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("html", defaults.HTML)
	v.SetDefault("open", defaults.Open)
	v.SetDefault("branch", defaults.Branch)
	v.SetDefault("include_tests", defaults.IncludeTests)
	v.SetDefault("all_targets", defaults.AllTargets)
	v.SetDefault("log_level", defaults.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Run{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var run Run
	if err := v.Unmarshal(&run); err != nil {
		return Run{}, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	return run, nil
}

// Validate checks the run inputs and resolves path fields to absolute
// paths. All problems are reported together rather than one at a time.
func (r *Run) Validate() error {
	var errs error

	if r.CoverageName == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: coverage-name must not be empty", coverrs.ErrValidation))
	} else if strings.ContainsAny(r.CoverageName, `/\`) {
		errs = multierr.Append(errs, fmt.Errorf("%w: coverage-name %q must not contain path separators", coverrs.ErrValidation, r.CoverageName))
	}

	switch r.Backend {
	case BackendLLVM, BackendTarpaulin:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: unknown backend %q, expected %q or %q",
			coverrs.ErrValidation, r.Backend, BackendLLVM, BackendTarpaulin))
	}

	if r.OutputDir == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: output-dir must not be empty", coverrs.ErrValidation))
	} else if abs, err := filepath.Abs(r.OutputDir); err == nil {
		r.OutputDir = abs
	}

	if r.SrcDir == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: src-dir must not be empty", coverrs.ErrValidation))
	} else {
		if abs, err := filepath.Abs(r.SrcDir); err == nil {
			r.SrcDir = abs
		}
		if info, err := os.Stat(r.SrcDir); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: source directory %s does not exist", coverrs.ErrValidation, r.SrcDir))
		} else if !info.IsDir() {
			errs = multierr.Append(errs, fmt.Errorf("%w: source directory %s is not a directory", coverrs.ErrValidation, r.SrcDir))
		} else if r.Backend == BackendTarpaulin {
			manifest := filepath.Join(r.SrcDir, "Cargo.toml")
			if _, err := os.Stat(manifest); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s is not a cargo project, %s does not exist",
					coverrs.ErrValidation, r.SrcDir, manifest))
			}
		}
	}

	if r.Backend == BackendLLVM {
		if r.TestExe == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: test-exe is required for the llvm backend", coverrs.ErrValidation))
		} else {
			if abs, err := filepath.Abs(r.TestExe); err == nil {
				r.TestExe = abs
			}
			if info, err := os.Stat(r.TestExe); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: test executable %s does not exist", coverrs.ErrValidation, r.TestExe))
			} else if info.IsDir() {
				errs = multierr.Append(errs, fmt.Errorf("%w: test executable %s is a directory", coverrs.ErrValidation, r.TestExe))
			}
		}
	}

	if r.Open {
		r.HTML = true
	}

	return errs
}
