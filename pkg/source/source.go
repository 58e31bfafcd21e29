// Package source fetches part sources into a target directory. Each source
// type (git repository, tarball archive, local directory) implements the
// Source interface; the type is resolved once when the manifest is parsed,
// either from an explicit source-type key or inferred from the URI shape.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/medubelko/snapcraft/pkg/runner"
)

// Spec describes a single fetch operation. It is built from the manifest
// once per invocation and consumed immediately; nothing is persisted.
type Spec struct {
	// Source is the URL or local path to fetch from.
	Source string
	// Dir is the directory the source is placed in.
	Dir string

	// At most one of Tag, Branch, and Commit may be set. When none is set
	// the remote's default branch is used.
	Tag    string
	Branch string
	Commit string

	// Depth truncates history to the given number of commits when cloning.
	// Zero means full history.
	Depth int

	// Submodules selects which submodules to fetch: nil means all of them
	// recursively, an empty non-nil slice means none, and a non-empty slice
	// restricts fetching to the named submodules.
	Submodules []string

	// Checksum verifies downloaded content, in "<algorithm>/<hex>" form.
	// Only archive sources support it.
	Checksum string
}

// Details records where a pulled source actually came from, for inclusion
// in the build manifest.
type Details struct {
	Commit   string `json:"source-commit,omitempty"`
	Branch   string `json:"source-branch,omitempty"`
	Source   string `json:"source"`
	Tag      string `json:"source-tag,omitempty"`
	Checksum string `json:"source-checksum,omitempty"`
}

// Source is the common capability of every source type.
type Source interface {
	// Pull makes Dir contain the requested source content, fetching or
	// updating as needed, and reports where the content came from.
	Pull(ctx context.Context) (Details, error)
}

// New resolves typ to a source implementation for spec. An empty typ is
// inferred from the source URI.
func New(typ string, spec Spec, run runner.Runner) (Source, error) {
	if typ == "" {
		typ = inferType(spec.Source)
	}
	switch typ {
	case "git":
		return NewGit(spec, run)
	case "tar":
		return NewTar(spec)
	case "local":
		return NewLocal(spec)
	default:
		return nil, fmt.Errorf("unknown source type %q for %q", typ, spec.Source)
	}
}

// inferType guesses the source type from the URI shape. Unrecognized URIs
// default to "local" so that plain relative paths keep working.
func inferType(uri string) string {
	switch {
	case strings.HasSuffix(uri, ".git"),
		strings.HasPrefix(uri, "git://"),
		strings.HasPrefix(uri, "git@"):
		return "git"
	case strings.HasSuffix(uri, ".tar"),
		strings.HasSuffix(uri, ".tar.gz"),
		strings.HasSuffix(uri, ".tgz"):
		return "tar"
	case strings.HasPrefix(uri, "./"),
		strings.HasPrefix(uri, "../"),
		filepath.IsAbs(uri):
		return "local"
	default:
		return "local"
	}
}

// refOptions returns the names of the mutually exclusive ref selectors that
// are set on spec, in manifest-key form.
func refOptions(spec Spec) []string {
	var opts []string
	if spec.Tag != "" {
		opts = append(opts, "source-tag")
	}
	if spec.Branch != "" {
		opts = append(opts, "source-branch")
	}
	if spec.Commit != "" {
		opts = append(opts, "source-commit")
	}
	return opts
}
