package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/medubelko/snapcraft/pkg/runner"
)

// defaultResetRef is used when the working tree tracks the remote's default
// branch and origin/HEAD cannot be resolved.
const defaultResetRef = "origin/master"

// Git reconciles a working directory against a requested ref of a remote
// repository, cloning fresh or updating in place depending on whether the
// directory already contains a checkout.
type Git struct {
	spec Spec
	run  runner.Runner
}

var _ Source = &Git{}

// NewGit validates spec and returns a git source. At most one of tag,
// branch, and commit may be set, and git cannot verify checksums.
func NewGit(spec Spec, run runner.Runner) (*Git, error) {
	if opts := refOptions(spec); len(opts) > 1 {
		return nil, &IncompatibleOptionsError{SourceType: "git", Options: opts}
	}
	if spec.Checksum != "" {
		return nil, &InvalidOptionError{SourceType: "git", Option: "source-checksum"}
	}
	if run == nil {
		run = runner.Exec()
	}
	return &Git{spec: spec, run: run}, nil
}

// Pull makes the target directory contain a checkout of the requested ref
// and reports the resolved source details. The directory state is
// recomputed on every call; nothing is cached between invocations.
func (g *Git) Pull(ctx context.Context) (Details, error) {
	var err error
	if g.isLocal() {
		err = g.updateExisting(ctx)
	} else {
		err = g.cloneNew(ctx)
	}
	if err != nil {
		return Details{}, err
	}
	return g.details(ctx)
}

// isLocal reports whether the target directory already holds a checkout.
func (g *Git) isLocal() bool {
	_, err := os.Stat(filepath.Join(g.spec.Dir, ".git"))
	return err == nil
}

// git runs a git subcommand, turning a non-zero exit into a *CommandError.
func (g *Git) git(ctx context.Context, args ...string) (runner.Result, error) {
	res, err := g.run.Run(ctx, "git", args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &CommandError{
			Command:  append([]string{"git"}, args...),
			ExitCode: res.ExitCode,
			Output:   res.Output(),
		}
	}
	return res, nil
}

// submodulesInScope reports whether submodule fetch and update steps apply:
// they do unless the manifest explicitly selected no submodules.
func (g *Git) submodulesInScope() bool {
	return g.spec.Submodules == nil || len(g.spec.Submodules) > 0
}

// fetchOriginCommit fetches exactly the pinned commit from origin so that a
// later reset or checkout can resolve it.
func (g *Git) fetchOriginCommit(ctx context.Context) error {
	_, err := g.git(ctx, "-C", g.spec.Dir, "fetch", "origin", g.spec.Commit)
	return err
}

// updateExisting reconciles an existing checkout: fetch everything with
// pruning, hard-reset to the requested ref, then bring submodules in line.
func (g *Git) updateExisting(ctx context.Context) error {
	refspec := "HEAD"
	switch {
	case g.spec.Branch != "":
		refspec = "refs/heads/" + g.spec.Branch
	case g.spec.Tag != "":
		refspec = "refs/tags/" + g.spec.Tag
	case g.spec.Commit != "":
		refspec = g.spec.Commit
		if err := g.fetchOriginCommit(ctx); err != nil {
			return err
		}
	}

	resetSpec := refspec
	if refspec == "HEAD" {
		resetSpec = g.defaultBranchRef(ctx)
	}

	fetch := []string{"-C", g.spec.Dir, "fetch", "--prune"}
	if g.submodulesInScope() {
		fetch = append(fetch, "--recurse-submodules=yes")
	}
	if _, err := g.git(ctx, fetch...); err != nil {
		return err
	}

	if _, err := g.git(ctx, "-C", g.spec.Dir, "reset", "--hard", resetSpec); err != nil {
		return err
	}

	if g.submodulesInScope() {
		update := []string{"-C", g.spec.Dir, "submodule", "update", "--recursive", "--force"}
		update = append(update, g.spec.Submodules...)
		if _, err := g.git(ctx, update...); err != nil {
			return err
		}
	}
	return nil
}

// defaultBranchRef resolves the remote-tracking ref of origin's default
// branch, e.g. "origin/main".
func (g *Git) defaultBranchRef(ctx context.Context) string {
	res, err := g.git(ctx, "-C", g.spec.Dir, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err != nil {
		return defaultResetRef
	}
	ref := strings.TrimSpace(res.Stdout)
	if ref == "" {
		return defaultResetRef
	}
	return ref
}

// cloneNew produces a fresh checkout of the requested ref in the target
// directory. Commit pins cannot be selected at clone time, so they are
// applied with a follow-up fetch and checkout.
func (g *Git) cloneNew(ctx context.Context) error {
	args := []string{"clone"}
	switch {
	case g.spec.Submodules == nil:
		args = append(args, "--recurse-submodules")
	case len(g.spec.Submodules) > 0:
		for _, name := range g.spec.Submodules {
			args = append(args, "--recurse-submodules="+name)
		}
	}
	if ref := g.spec.Tag + g.spec.Branch; ref != "" {
		args = append(args, "--branch", ref)
	}
	if g.spec.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(g.spec.Depth))
	}
	args = append(args, g.spec.Source, g.spec.Dir)

	if _, err := g.git(ctx, args...); err != nil {
		return err
	}

	if g.spec.Commit != "" {
		if err := g.fetchOriginCommit(ctx); err != nil {
			return err
		}
		if _, err := g.git(ctx, "-C", g.spec.Dir, "checkout", g.spec.Commit); err != nil {
			return err
		}
	}
	return nil
}

// details reports the resolved ref of the pulled tree. When no explicit ref
// was requested, the checked-out commit is resolved from HEAD.
func (g *Git) details(ctx context.Context) (Details, error) {
	d := Details{
		Source: g.spec.Source,
		Tag:    g.spec.Tag,
		Branch: g.spec.Branch,
		Commit: g.spec.Commit,
	}
	if d.Tag == "" && d.Branch == "" && d.Commit == "" {
		res, err := g.git(ctx, "-C", g.spec.Dir, "rev-parse", "HEAD")
		if err != nil {
			return Details{}, err
		}
		d.Commit = strings.TrimSpace(res.Stdout)
	}
	return d, nil
}

// describePattern matches "git describe" output for a tree that is ahead of
// its nearest tag: <tag>-<commits-ahead>-g<commit>, with git's own "-dirty"
// marker folded into the commit group.
var describePattern = regexp.MustCompile(
	`^(?P<tag>[a-zA-Z0-9.+~-]+)-(?P<revsAhead>\d+)-g(?P<commit>[0-9a-fA-F]+(?:-dirty)?)$`)

// DeriveVersion derives a version string from the tag history of the tree
// in dir (the working directory when dir is empty).
//
// A tree exactly at a tag yields the bare tag. A tree N commits ahead of
// tag T at short hash H yields "T+gitN.H", with "-dirty" appended to H when
// there are uncommitted changes. A tree with no tags at all yields
// "0+git.H". A directory that is not a repository fails with
// *NotARepositoryError.
func DeriveVersion(ctx context.Context, run runner.Runner, dir string) (string, error) {
	if run == nil {
		run = runner.Exec()
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	res, err := run.Run(ctx, "git", "-C", dir, "describe", "--dirty")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		// No reachable tag. --always guarantees at least a short hash
		// unless the directory is not a repository at all.
		res, err = run.Run(ctx, "git", "-C", dir, "describe", "--dirty", "--always")
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", &NotARepositoryError{Message: strings.TrimSpace(res.Stderr)}
		}
		return "0+git." + strings.TrimSpace(res.Stdout), nil
	}

	output := strings.TrimSpace(res.Stdout)
	m := describePattern.FindStringSubmatch(output)
	if m == nil {
		// A pure tag.
		return output, nil
	}
	tag := m[describePattern.SubexpIndex("tag")]
	revsAhead := m[describePattern.SubexpIndex("revsAhead")]
	commit := m[describePattern.SubexpIndex("commit")]
	return fmt.Sprintf("%s+git%s.%s", tag, revsAhead, commit), nil
}

// Version reports the installed git version string.
func Version(ctx context.Context, run runner.Runner) (string, error) {
	if run == nil {
		run = runner.Exec()
	}
	res, err := run.Run(ctx, "git", "version")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CommandError{
			Command:  []string{"git", "version"},
			ExitCode: res.ExitCode,
			Output:   res.Output(),
		}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// IsInstalled reports whether the git binary is available. A missing binary
// is reported as false; any other failure propagates.
func IsInstalled(ctx context.Context, run runner.Runner) (bool, error) {
	_, err := Version(ctx, run)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
