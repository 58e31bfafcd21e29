package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/project"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a snapcraft project",
		Long:  "Creates a snap/snapcraft.yaml manifest skeleton named after the current directory.",
		RunE:  runInit,
		// init does not need dev config resolution; skip the root PersistentPreRunE.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	name := project.InferName(wd)

	if err := project.Init(wd, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created snap/%s\n", project.ManifestFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Go to https://documentation.ubuntu.com/snapcraft to get started.")
	return nil
}
