package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/zjy-dev/covrun/internal/backend"
	"github.com/zjy-dev/covrun/internal/config"
	"github.com/zjy-dev/covrun/internal/tool"
)

// NewToolsCommand creates the "tools" subcommand.
func NewToolsCommand() *cobra.Command {
	var (
		backendName   string
		branch        bool
		toolOverrides []string
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Check that the selected backend's tools are installed.",
		Long: `Resolve every tool the selected backend needs and print where each
one was found. Nothing is executed and nothing is written; a missing
tool is reported with its install hint.

All missing tools are listed in one pass, so one covrun tools run shows
everything left to install.

Examples:
  # Check the default llvm backend
  covrun tools

  # Check tarpaulin with branch coverage, which also needs rustup
  covrun tools --backend tarpaulin --branch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cmd.Flags().Changed("backend") {
				cfg.Backend = backendName
			}
			if cmd.Flags().Changed("branch") {
				cfg.Branch = branch
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

			names, err := backend.Tools(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tools for the %s backend:\n", cfg.Backend)

			resolver := tool.NewResolver(cfg.ToolOverrides, log.Logger)
			var missing error
			for _, name := range names {
				resolved, err := resolver.Resolve(name)
				if err != nil {
					fmt.Fprintf(out, "  %-14s missing\n", name)
					missing = multierr.Append(missing, err)
					continue
				}
				fmt.Fprintf(out, "  %-14s %s\n", name, resolved.Path)
			}
			return missing
		},
	}

	cmd.Flags().StringVar(&backendName, "backend", config.BackendLLVM, "Coverage backend: llvm or tarpaulin")
	cmd.Flags().BoolVar(&branch, "branch", false, "Include the tools branch coverage needs")
	cmd.Flags().StringArrayVar(&toolOverrides, "tool-path-override", nil, "Tool path override as name=path (repeatable)")

	return cmd
}
