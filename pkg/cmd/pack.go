package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/pack"
	"github.com/medubelko/snapcraft/pkg/runner"
)

func newPackCmd() *cobra.Command {
	var (
		flagOutput      string
		flagCompression string
		flagDirectory   string
	)

	packCmd := &cobra.Command{
		Use:   "pack",
		Short: "Create a snap from a primed directory",
		Long: `Packs the prime directory into a .snap file.

The artifact is named <name>_<version>_<arch>.snap unless --output
names a file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, wd, err := loadProject()
			if err != nil {
				return err
			}

			version, err := resolveVersion(cmd.Context(), p, wd)
			if err != nil {
				return err
			}

			dir := flagDirectory
			if dir == "" {
				dir = filepath.Join(wd, "prime")
			}

			file, err := pack.Snap(cmd.Context(), runner.Exec(), dir, pack.Options{
				Output:      flagOutput,
				Compression: flagCompression,
				Name:        p.Name,
				Version:     version,
				Target:      hostArch(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created snap package %s\n", file)
			return nil
		},
	}

	packCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file or directory")
	packCmd.Flags().StringVar(&flagCompression, "compression", "", "compression type (xz or lzo)")
	packCmd.Flags().StringVar(&flagDirectory, "directory", "", "directory to pack instead of prime/")

	return packCmd
}

// hostArch maps the Go architecture name to the Debian one used in snap
// file names.
func hostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "amd64"
	case "arm64":
		return "arm64"
	case "arm":
		return "armhf"
	case "386":
		return "i386"
	case "ppc64le":
		return "ppc64el"
	case "s390x":
		return "s390x"
	case "riscv64":
		return "riscv64"
	default:
		return runtime.GOARCH
	}
}
