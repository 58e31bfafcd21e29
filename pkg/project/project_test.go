package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validManifest = `name: hello-world
version: "1.0"
summary: A concise summary
description: A longer description.
grade: stable
confinement: strict

parts:
  hello:
    plugin: nil
    source: https://github.com/canonical/hello.git
    source-type: git
    source-tag: v1.0

apps:
  hello:
    command: bin/hello
`

func writeManifest(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFind(t *testing.T) {
	t.Run("prefers snap directory", func(t *testing.T) {
		dir := t.TempDir()
		preferred := writeManifest(t, dir, filepath.Join("snap", "snapcraft.yaml"), validManifest)
		writeManifest(t, dir, "snapcraft.yaml", validManifest)

		got, err := Find(dir)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if got != preferred {
			t.Errorf("Find() = %q, want %q", got, preferred)
		}
	})

	t.Run("falls back to top level", func(t *testing.T) {
		dir := t.TempDir()
		topLevel := writeManifest(t, dir, "snapcraft.yaml", validManifest)

		got, err := Find(dir)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if got != topLevel {
			t.Errorf("Find() = %q, want %q", got, topLevel)
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := Find(t.TempDir())
		var missing *MissingError
		if !errors.As(err, &missing) {
			t.Fatalf("Find() error = %v, want *MissingError", err)
		}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "snapcraft.yaml", validManifest)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.Name != "hello-world" {
		t.Errorf("Name = %q, want %q", p.Name, "hello-world")
	}
	if p.Version != "1.0" {
		t.Errorf("Version = %q, want %q", p.Version, "1.0")
	}
	part, ok := p.Parts["hello"]
	if !ok {
		t.Fatal("part hello missing")
	}
	if part.SourceTag != "v1.0" {
		t.Errorf("SourceTag = %q, want %q", part.SourceTag, "v1.0")
	}
	if p.Apps["hello"].Command != "bin/hello" {
		t.Errorf("Command = %q, want %q", p.Apps["hello"].Command, "bin/hello")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "snapcraft.yaml", validManifest+"\nbogus-key: true\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Project {
		return &Project{
			Name:    "hello-world",
			Version: "1.0",
			Parts:   map[string]Part{"hello": {Plugin: "nil"}},
		}
	}

	tests := map[string]struct {
		mutate  func(*Project)
		wantErr bool
	}{
		"valid":                  {mutate: func(p *Project) {}},
		"uppercase name":         {mutate: func(p *Project) { p.Name = "Hello" }, wantErr: true},
		"leading hyphen":         {mutate: func(p *Project) { p.Name = "-hello" }, wantErr: true},
		"trailing hyphen":        {mutate: func(p *Project) { p.Name = "hello-" }, wantErr: true},
		"digits only":            {mutate: func(p *Project) { p.Name = "1234" }, wantErr: true},
		"name too long":          {mutate: func(p *Project) { p.Name = "a-very-long-name-that-goes-over-the-forty-limit" }, wantErr: true},
		"missing version":        {mutate: func(p *Project) { p.Version = "" }, wantErr: true},
		"version too long":       {mutate: func(p *Project) { p.Version = "123456789012345678901234567890123" }, wantErr: true},
		"bad grade":              {mutate: func(p *Project) { p.Grade = "beta" }, wantErr: true},
		"valid grade":            {mutate: func(p *Project) { p.Grade = "devel" }},
		"bad confinement":        {mutate: func(p *Project) { p.Confinement = "loose" }, wantErr: true},
		"valid confinement":      {mutate: func(p *Project) { p.Confinement = "classic" }},
		"no parts":               {mutate: func(p *Project) { p.Parts = nil }, wantErr: true},
		"app without command":    {mutate: func(p *Project) { p.Apps = map[string]App{"x": {}} }, wantErr: true},
		"git version sentinel":   {mutate: func(p *Project) { p.Version = "git" }},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := base()
			tc.mutate(p)
			err := p.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestPartSourceSpec(t *testing.T) {
	part := Part{
		Source:           "https://host/repo.git",
		SourceType:       "git",
		SourceBranch:     "main",
		SourceDepth:      3,
		SourceSubmodules: []string{},
	}

	typ, spec := part.SourceSpec("/work/src")
	if typ != "git" {
		t.Errorf("type = %q, want %q", typ, "git")
	}
	if spec.Source != "https://host/repo.git" || spec.Branch != "main" || spec.Depth != 3 {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Dir != "/work/src" {
		t.Errorf("Dir = %q, want %q", spec.Dir, "/work/src")
	}
	if spec.Submodules == nil || len(spec.Submodules) != 0 {
		t.Errorf("Submodules = %v, want empty non-nil", spec.Submodules)
	}
}

func TestSubmodulesAbsentVersusEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "snapcraft.yaml", `name: hello-world
version: "1.0"
summary: s
description: d
parts:
  all-submodules:
    source: https://host/a.git
  no-submodules:
    source: https://host/b.git
    source-submodules: []
  some-submodules:
    source: https://host/c.git
    source-submodules: [libfoo]
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := p.Parts["all-submodules"].SourceSubmodules; got != nil {
		t.Errorf("absent source-submodules = %v, want nil", got)
	}
	if got := p.Parts["no-submodules"].SourceSubmodules; got == nil || len(got) != 0 {
		t.Errorf("empty source-submodules = %v, want empty non-nil", got)
	}
	if got := p.Parts["some-submodules"].SourceSubmodules; len(got) != 1 || got[0] != "libfoo" {
		t.Errorf("named source-submodules = %v, want [libfoo]", got)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "my-snap"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	path, err := Find(dir)
	if err != nil {
		t.Fatalf("Find() after Init error = %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Init error = %v", err)
	}
	if p.Name != "my-snap" {
		t.Errorf("Name = %q, want %q", p.Name, "my-snap")
	}
	if p.Version != VersionFromGit {
		t.Errorf("Version = %q, want %q", p.Version, VersionFromGit)
	}

	if err := Init(dir, "my-snap"); err == nil {
		t.Fatal("second Init() error = nil, want error")
	}
}
