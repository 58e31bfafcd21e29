package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/keys"
	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/store"
)

func newSignBuildCmd() *cobra.Command {
	var flagLocal bool

	signCmd := &cobra.Command{
		Use:   "sign-build <snap-file>",
		Short: "Sign a built snap file",
		Long: `Generates a snap-build assertion for the snap file and uploads it
to the store.

With --local the assertion is only saved next to the snap file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapFile := args[0]
			if _, err := os.Stat(snapFile); err != nil {
				return fmt.Errorf("the file %q does not exist", snapFile)
			}

			p, _, err := loadProject()
			if err != nil {
				return err
			}
			grade := p.Grade
			if grade == "" {
				grade = "stable"
			}

			client, err := storeClient()
			if err != nil {
				return err
			}
			acct, err := client.AccountInfo(cmd.Context())
			if err != nil {
				return err
			}
			info, ok := acct.Snap(p.Name)
			if !ok {
				return fmt.Errorf("your account cannot publish %q, register the name first", p.Name)
			}

			run := runner.Exec()
			assertionPath := snapFile + "-build"

			var assertion []byte
			if data, err := os.ReadFile(assertionPath); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "A signed build assertion for this snap already exists.")
				assertion = data
			} else {
				key, err := keys.Get(cmd.Context(), run, DevCfg.KeyName)
				if err != nil {
					return err
				}
				if !flagLocal && !keyRegistered(acct.AccountKeys, key.SHA3384) {
					return fmt.Errorf("key %q is not registered with the store, run 'snapcraft register-key'", key.Name)
				}

				assertion, err = keys.SignBuild(cmd.Context(), run, acct.AccountID, info.SnapID, grade, key.Name, snapFile)
				if err != nil {
					return err
				}
				if err := os.WriteFile(assertionPath, assertion, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Build assertion %s saved to disk.\n", assertionPath)
			}

			if !flagLocal {
				if err := client.PushSnapBuild(cmd.Context(), info.SnapID, assertion); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Build assertion %s uploaded to the store.\n", assertionPath)
			}
			return nil
		},
	}

	signCmd.Flags().BoolVar(&flagLocal, "local", false, "save the assertion locally without uploading")

	return signCmd
}

func keyRegistered(accountKeys []store.AccountKey, fingerprint string) bool {
	for _, k := range accountKeys {
		if k.PublicKeySHA3384 == fingerprint {
			return true
		}
	}
	return false
}
