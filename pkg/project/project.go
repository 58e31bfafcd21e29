// Package project loads and validates the snapcraft.yaml manifest.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/medubelko/snapcraft/pkg/source"
)

const (
	// ManifestFile is the project manifest filename.
	ManifestFile = "snapcraft.yaml"
	// ManifestDir is the preferred directory for the manifest.
	ManifestDir = "snap"

	// VersionFromGit in the version field derives the version from the
	// project's git tag history at pack time.
	VersionFromGit = "git"

	maxNameLength    = 40
	maxVersionLength = 32
)

var validNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// MissingError reports that no snapcraft.yaml could be found.
type MissingError struct {
	Dir string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("could not find %s/%s in %s; to start a new project, use `snapcraft init`",
		ManifestDir, ManifestFile, e.Dir)
}

// Project is the snapcraft.yaml model.
type Project struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Version     string `json:"version"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	License     string `json:"license,omitempty"`

	Base        string `json:"base,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Confinement string `json:"confinement,omitempty"`

	Parts map[string]Part `json:"parts"`
	Apps  map[string]App  `json:"apps,omitempty"`
}

// Part describes one buildable piece of the snap and where its source
// comes from.
type Part struct {
	Plugin string `json:"plugin,omitempty"`

	Source       string `json:"source,omitempty"`
	SourceType   string `json:"source-type,omitempty"`
	SourceTag    string `json:"source-tag,omitempty"`
	SourceBranch string `json:"source-branch,omitempty"`
	SourceCommit string `json:"source-commit,omitempty"`
	SourceDepth  int    `json:"source-depth,omitempty"`
	// SourceSubmodules distinguishes absent (all submodules) from an
	// explicit empty list (no submodules).
	SourceSubmodules []string `json:"source-submodules,omitempty"`
	SourceChecksum   string   `json:"source-checksum,omitempty"`

	BuildPackages []string `json:"build-packages,omitempty"`
	StagePackages []string `json:"stage-packages,omitempty"`
}

// App describes one runnable command shipped by the snap.
type App struct {
	Command    string   `json:"command"`
	Daemon     string   `json:"daemon,omitempty"`
	Plugs      []string `json:"plugs,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// Find locates the manifest under dir, preferring snap/snapcraft.yaml over
// a top-level snapcraft.yaml.
func Find(dir string) (string, error) {
	for _, candidate := range []string{
		filepath.Join(dir, ManifestDir, ManifestFile),
		filepath.Join(dir, ManifestFile),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &MissingError{Dir: dir}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p := &Project{}
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the manifest fields that every command relies on.
func (p *Project) Validate() error {
	if !validName(p.Name) {
		return fmt.Errorf("invalid snap name %q: names are lower-case letters, digits and hyphens, contain at least one letter, and are at most %d characters", p.Name, maxNameLength)
	}
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(p.Version) > maxVersionLength {
		return fmt.Errorf("version %q is longer than %d characters", p.Version, maxVersionLength)
	}
	switch p.Grade {
	case "", "stable", "devel":
	default:
		return fmt.Errorf("grade must be %q or %q, got %q", "stable", "devel", p.Grade)
	}
	switch p.Confinement {
	case "", "strict", "devmode", "classic":
	default:
		return fmt.Errorf("confinement must be %q, %q or %q, got %q", "strict", "devmode", "classic", p.Confinement)
	}
	if len(p.Parts) == 0 {
		return fmt.Errorf("at least one part is required")
	}
	for name, app := range p.Apps {
		if app.Command == "" {
			return fmt.Errorf("app %q has no command", name)
		}
	}
	return nil
}

// ToYAML renders the project back to manifest form.
func (p *Project) ToYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// SourceSpec maps a part's source keys onto a fetch spec targeting dir.
// The source type is the explicit source-type key when present, otherwise
// inferred from the source URI.
func (part Part) SourceSpec(dir string) (typ string, spec source.Spec) {
	return part.SourceType, source.Spec{
		Source:     part.Source,
		Dir:        dir,
		Tag:        part.SourceTag,
		Branch:     part.SourceBranch,
		Commit:     part.SourceCommit,
		Depth:      part.SourceDepth,
		Submodules: part.SourceSubmodules,
		Checksum:   part.SourceChecksum,
	}
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLength {
		return false
	}
	if !validNameRegex.MatchString(name) {
		return false
	}
	return strings.ContainsFunc(name, func(r rune) bool {
		return r >= 'a' && r <= 'z'
	})
}
