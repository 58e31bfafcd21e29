package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/medubelko/snapcraft/pkg/runner"
)

// defaultAuthor identifies commits created by the tool when no author is
// supplied, as happens in the assertion-publishing workflow.
const defaultAuthor = "snapcraft <snapcraft@localhost>"

// Repo authors commits in a local repository. It exists for the narrow
// assertion-publishing workflow (init a history, stage signed assertions,
// commit, push) and is deliberately separate from the fetch-side Git
// source.
type Repo struct {
	// Dir is the repository's working directory.
	Dir string

	run runner.Runner
}

func NewRepo(dir string, run runner.Runner) *Repo {
	if run == nil {
		run = runner.Exec()
	}
	return &Repo{Dir: dir, run: run}
}

func (r *Repo) git(ctx context.Context, args ...string) error {
	res, err := r.run.Run(ctx, "git", args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandError{
			Command:  append([]string{"git"}, args...),
			ExitCode: res.ExitCode,
			Output:   res.Output(),
		}
	}
	return nil
}

// Init creates an empty repository in Dir.
func (r *Repo) Init(ctx context.Context) error {
	return r.git(ctx, "-C", r.Dir, "init")
}

// Add stages a single file. Paths under Dir are normalized to be relative
// to it.
func (r *Repo) Add(ctx context.Context, file string) error {
	if strings.HasPrefix(file, r.Dir+string(filepath.Separator)) {
		if rel, err := filepath.Rel(r.Dir, file); err == nil {
			file = rel
		}
	}
	return r.git(ctx, "-C", r.Dir, "add", file)
}

// Commit records the staged changes. An empty author falls back to the
// tool's fixed identity. Commits are never GPG-signed; assertion signing
// happens at a different layer.
func (r *Repo) Commit(ctx context.Context, message, author string) error {
	if author == "" {
		author = defaultAuthor
	}
	return r.git(ctx, "-C", r.Dir,
		"commit", "--no-gpg-sign", "--message", message, "--author", author)
}

// Push pushes refspec to the remote at url, forcibly when force is set.
func (r *Repo) Push(ctx context.Context, url, refspec string, force bool) error {
	args := []string{"-C", r.Dir, "push", url, refspec}
	if force {
		args = append(args, "--force")
	}
	return r.git(ctx, args...)
}
