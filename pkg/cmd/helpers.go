package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/medubelko/snapcraft/pkg/project"
	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/source"
)

// loadProject locates and loads the manifest for the current directory.
func loadProject() (*project.Project, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting working directory: %w", err)
	}
	path, err := project.Find(wd)
	if err != nil {
		return nil, "", err
	}
	p, err := project.Load(path)
	if err != nil {
		return nil, "", err
	}
	return p, wd, nil
}

// resolveVersion returns the project version, deriving it from git
// history when the manifest says "version: git".
func resolveVersion(ctx context.Context, p *project.Project, dir string) (string, error) {
	if p.Version != project.VersionFromGit {
		return p.Version, nil
	}
	return source.DeriveVersion(ctx, runner.Exec(), dir)
}
