package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/config"
	"github.com/medubelko/snapcraft/pkg/datadir"
	"github.com/medubelko/snapcraft/pkg/provider"
	"github.com/medubelko/snapcraft/pkg/store"
)

var (
	flagProvider string
	flagKeyName  string
	flagStoreURL string

	// DevCfg holds the resolved developer configuration, available to all
	// subcommands after PersistentPreRunE completes.
	DevCfg *config.DevConfig
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "snapcraft",
		Short: "Package and publish snaps",
		Long:  "snapcraft builds snap packages from a snapcraft.yaml manifest and publishes them to the snap store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDevConfig(config.Flags{
				Provider: flagProvider,
				KeyName:  flagKeyName,
				StoreURL: flagStoreURL,
			})
			if err != nil {
				return err
			}
			if cfg.Provider == "" {
				if p, err := provider.Detect(""); err == nil {
					cfg.Provider = p.Name
				}
			}
			DevCfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagProvider, "provider", "", "build environment backend (lxd or multipass)")
	root.PersistentFlags().StringVar(&flagKeyName, "key-name", "", "key to sign assertions with")
	root.PersistentFlags().StringVar(&flagStoreURL, "store-url", "", "store endpoint override")

	root.AddCommand(newInitCmd())
	root.AddCommand(newPullCmd())
	root.AddCommand(newPackCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newListExtensionsCmd())
	root.AddCommand(newExpandExtensionsCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newListKeysCmd())
	root.AddCommand(newCreateKeyCmd())
	root.AddCommand(newRegisterKeyCmd())
	root.AddCommand(newSignBuildCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newGatedCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newUploadMetadataCmd())

	return root
}

// storeClient builds a store client honoring any endpoint override.
func storeClient() (*store.Client, error) {
	data, err := datadir.Default()
	if err != nil {
		return nil, err
	}
	var opts []store.Option
	if DevCfg != nil && DevCfg.StoreURL != "" {
		opts = append(opts, store.WithBaseURL(DevCfg.StoreURL))
	}
	return store.NewClient(data, opts...), nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
