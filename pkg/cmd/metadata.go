package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadMetadataCmd() *cobra.Command {
	var flagForce bool

	metadataCmd := &cobra.Command{
		Use:   "upload-metadata",
		Short: "Upload listing metadata to the store",
		Long: `Uploads the project's summary, description, title and license to
the store listing without uploading a new revision.

With --force the upload overwrites changes made through the web UI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := loadProject()
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
			info, ok := acct.Snap(p.Name)
			if !ok {
				return fmt.Errorf("snap %q was not found in your account", p.Name)
			}

			metadata := map[string]string{
				"summary":     p.Summary,
				"description": p.Description,
			}
			if p.Title != "" {
				metadata["title"] = p.Title
			}
			if p.License != "" {
				metadata["license"] = p.License
			}

			if err := client.UploadMetadata(cmd.Context(), info.SnapID, metadata, flagForce); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded metadata for %q\n", p.Name)
			return nil
		},
	}

	metadataCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite store changes with local metadata")

	return metadataCmd
}
