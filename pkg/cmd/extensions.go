package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/extensions"
)

func newListExtensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list-extensions",
		Aliases: []string{"extensions"},
		Short:   "List available extensions",
		Long:    "Lists available extensions and the bases they support.",
		RunE: func(cmd *cobra.Command, args []string) error {
			extensions.RenderList(cmd.OutOrStdout())
			return nil
		},
	}
}

func newExpandExtensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand-extensions",
		Short: "Show snapcraft.yaml with extensions expanded",
		Long:  "Expands the extensions selected in snapcraft.yaml and prints the resulting manifest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := loadProject()
			if err != nil {
				return err
			}

			expanded, err := extensions.Expand(p)
			if err != nil {
				return err
			}

			data, err := expanded.ToYAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
