package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/config"
	"github.com/medubelko/snapcraft/pkg/keys"
	"github.com/medubelko/snapcraft/pkg/runner"
)

func newListKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list-keys",
		Aliases: []string{"keys"},
		Short:   "List signing keys",
		Long:    "Lists the keys available for signing assertions and whether they are registered with the store.",
		RunE:    runListKeys,
	}
}

func runListKeys(cmd *cobra.Command, args []string) error {
	localKeys, err := keys.List(cmd.Context(), runner.Exec())
	if err != nil {
		return err
	}
	if len(localKeys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No keys have been created. Create one with 'snapcraft create-key'.")
		return nil
	}

	client, err := storeClient()
	if err != nil {
		return err
	}
	acct, err := client.AccountInfo(cmd.Context())
	if err != nil {
		return err
	}

	registered := make(map[string]bool, len(acct.AccountKeys))
	for _, k := range acct.AccountKeys {
		registered[k.PublicKeySHA3384] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "SHA3-384 fingerprint", "Registered"})
	for _, k := range localKeys {
		mark := "-"
		if registered[k.SHA3384] {
			mark = "*"
		}
		t.AppendRow(table.Row{k.Name, k.SHA3384, mark})
	}
	t.Render()
	return nil
}

func newCreateKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-key [name]",
		Short: "Create a signing key",
		Long:  "Creates a key pair for signing assertions. The key is named 'default' unless a name is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "default"
			if len(args) == 1 {
				name = args[0]
			}
			if err := keys.Create(cmd.Context(), runner.Exec(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created key %q.\n", name)

			if name == "default" || DevCfg.KeyName == name {
				return nil
			}
			save := false
			err := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Use %q as the default signing key?", name)).
						Value(&save),
				),
			).Run()
			if err != nil {
				return fmt.Errorf("default key prompt failed: %w", err)
			}
			if save {
				cfg := *DevCfg
				cfg.KeyName = name
				if err := config.WriteGlobalDevConfig(&cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as the default key.\n", name)
			}
			return nil
		},
	}
}

func newRegisterKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-key [name]",
		Short: "Register a signing key with the store",
		Long:  "Registers a local key with your store account so it may be used to sign assertions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := DevCfg.KeyName
			if len(args) == 1 {
				name = args[0]
			}

			run := runner.Exec()
			key, err := keys.Get(cmd.Context(), run, name)
			if err != nil {
				return err
			}

			client, err := storeClient()
			if err != nil {
				return err
			}
			acct, err := client.AccountInfo(cmd.Context())
			if err != nil {
				return err
			}

			request, err := keys.Export(cmd.Context(), run, key.Name, acct.AccountID)
			if err != nil {
				return err
			}
			if err := client.RegisterKey(cmd.Context(), request); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Done. The key %q (%s) may be used to sign your assertions.\n", key.Name, key.SHA3384)
			return nil
		},
	}
}
