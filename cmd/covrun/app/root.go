package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covrun/internal/logger"
)

// NewCovrunCommand creates the root command for the covrun tool.
func NewCovrunCommand() *cobra.Command {
	var (
		verbose bool
		quiet   bool
		noColor bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "covrun",
		Short: "Run a coverage toolchain and render reports.",
		Long: `Covrun drives a coverage toolchain end to end: execute an instrumented
test binary, merge the raw profile, and render text and HTML reports.

Two backends are supported:
  llvm       source-based coverage via llvm-profdata and llvm-cov
  tarpaulin  statistical coverage for Rust crates via cargo tarpaulin

Settings come from covrun.yaml, COVRUN_* environment variables and
command-line flags, in increasing order of precedence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := ""
			if quiet {
				level = "warn"
			}
			if verbose {
				level = "debug"
			}
			log.Logger = logger.Init(logger.Options{
				Level:   level,
				NoColor: noColor,
				File:    logFile,
			})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log warnings and errors only")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", `Log file path ("-" disables the file log)`)

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewToolsCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
