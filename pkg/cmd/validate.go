package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/keys"
	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/store"
)

func newValidateCmd() *cobra.Command {
	var flagRevoke bool

	validateCmd := &cobra.Command{
		Use:   "validate <snap-name> <validation>...",
		Short: "Validate gated snap revisions",
		Long: `Signs and uploads validation assertions for snaps gated by
<snap-name>. Each validation takes the form <gated-snap>=<revision>.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapName := args[0]
			requests, err := keys.ParseValidations(args[1:])
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
			info, ok := acct.Snap(snapName)
			if !ok {
				return fmt.Errorf("snap %q was not found in your account", snapName)
			}

			existing, err := client.Validations(cmd.Context(), info.SnapID)
			if err != nil {
				return err
			}
			prior := make(map[string]store.Validation, len(existing))
			for _, v := range existing {
				prior[v.ApprovedID+"="+v.ApprovedRevision] = v
			}

			run := runner.Exec()
			for _, req := range requests {
				// The gating snap's account listing is the only
				// authoritative source of snap IDs available here; a
				// gated snap outside the account keeps its name as ID.
				approvedID := req.GatedSnap
				if gatedInfo, ok := acct.Snap(req.GatedSnap); ok {
					approvedID = gatedInfo.SnapID
				}

				// Superseding an earlier validation of the same
				// revision needs a bumped assertion revision.
				revision := ""
				if v, ok := prior[approvedID+"="+req.Revision]; ok {
					n, err := strconv.Atoi(v.Revision)
					if err != nil {
						n = 0
					}
					revision = strconv.Itoa(n + 1)
				}

				payload, err := keys.ValidationPayload(
					acct.AccountID, store.DefaultSeries, info.SnapID,
					approvedID, req.Revision, revision, flagRevoke, time.Now(),
				)
				if err != nil {
					return err
				}

				assertion, err := keys.SignAssertion(cmd.Context(), run, payload, DevCfg.KeyName)
				if err != nil {
					return err
				}

				fname := fmt.Sprintf("%s-%s-r%s.assertion", snapName, req.GatedSnap, req.Revision)
				if err := os.WriteFile(fname, assertion, 0o644); err != nil {
					return err
				}

				if err := client.PushValidation(cmd.Context(), info.SnapID, assertion); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Validated %s=%s\n", req.GatedSnap, req.Revision)
			}
			return nil
		},
	}

	validateCmd.Flags().BoolVar(&flagRevoke, "revoke", false, "revoke the validations instead of approving them")

	return validateCmd
}

func newGatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gated <snap-name>",
		Short: "List snaps gated by a snap",
		Long:  "Lists the snap revisions validated by <snap-name>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapName := args[0]

			client, err := storeClient()
			if err != nil {
				return err
			}
			acct, err := client.AccountInfo(cmd.Context())
			if err != nil {
				return err
			}
			info, ok := acct.Snap(snapName)
			if !ok {
				return fmt.Errorf("snap %q was not found in your account", snapName)
			}

			validations, err := client.Validations(cmd.Context(), info.SnapID)
			if err != nil {
				return err
			}
			if len(validations) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "There are no validations for snap %q\n", snapName)
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Revision", "Required"})
			for _, v := range validations {
				if strings.EqualFold(v.Revoked, "true") {
					continue
				}
				revision := v.ApprovedRevision
				if revision == "-" || revision == "" {
					revision = "-"
				}
				t.AppendRow(table.Row{v.ApprovedName, revision, fmt.Sprintf("%t", v.Required)})
			}
			t.Render()
			return nil
		},
	}
}
