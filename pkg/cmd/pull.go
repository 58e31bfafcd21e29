package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/source"
)

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [part-name...]",
		Short: "Download or retrieve part sources",
		Long: `Fetches the source of every part into parts/<name>/src.

Sources already present are updated in place rather than re-fetched.
Pass part names to pull a subset.`,
		RunE: runPull,
	}
}

func runPull(cmd *cobra.Command, args []string) error {
	p, wd, err := loadProject()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		for name := range p.Parts {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	run := runner.Exec()
	for _, name := range names {
		part, ok := p.Parts[name]
		if !ok {
			return fmt.Errorf("part %q is not defined in the project", name)
		}
		if part.Source == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping pull for %s (no source)\n", name)
			continue
		}

		dir := filepath.Join(wd, "parts", name, "src")
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return err
		}

		typ, spec := part.SourceSpec(dir)
		src, err := source.New(typ, spec, run)
		if err != nil {
			return fmt.Errorf("part %q: %w", name, err)
		}

		details, err := src.Pull(cmd.Context())
		if err != nil {
			return fmt.Errorf("pulling %q: %w", name, err)
		}

		switch {
		case details.Commit != "":
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s (%s)\n", name, details.Commit)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s\n", name)
		}
	}
	return nil
}
