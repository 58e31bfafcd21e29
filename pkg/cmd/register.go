package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var (
		flagPrivate bool
		flagStore   string
	)

	registerCmd := &cobra.Command{
		Use:   "register <snap-name>",
		Short: "Register a snap name with the store",
		Long: `Claims a snap name for your account.

Registered names are public unless --private is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := storeClient()
			if err != nil {
				return err
			}

			name := args[0]
			if err := client.Register(cmd.Context(), name, flagPrivate, flagStore); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q\n", name)
			return nil
		},
	}

	registerCmd.Flags().BoolVar(&flagPrivate, "private", false, "register the snap as private")
	registerCmd.Flags().StringVar(&flagStore, "store", "", "store ID to register in")

	return registerCmd
}
