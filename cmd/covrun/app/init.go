package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covrun/internal/config"
)

const starterPath = "covrun.yaml"

// NewInitCommand creates the "init" subcommand.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter covrun.yaml in the working directory.",
		Long: `Write a commented starter configuration to covrun.yaml in the working
directory. An existing file is left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteStarter(starterPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", starterPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing covrun.yaml")

	return cmd
}
