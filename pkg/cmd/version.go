package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the project version",
		Long:  "Prints the version of the current project, deriving it from git history when the manifest declares 'version: git'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, wd, err := loadProject()
			if err != nil {
				return err
			}
			version, err := resolveVersion(cmd.Context(), p, wd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
