package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// skeleton is the manifest written by `snapcraft init`, matching the shape
// a first-time user is expected to fill in.
const skeleton = `name: %s
version: git
summary: Single-line elevator pitch for your amazing snap
description: |
  This is my-snap's description. You have a paragraph or two to tell the
  most important story about your snap.

grade: devel
confinement: devmode

parts:
  %s:
    plugin: nil
    source: .
`

// InferName derives a snap name from the given directory path.
func InferName(dir string) string {
	return filepath.Base(dir)
}

// Init creates snap/snapcraft.yaml in dir with a skeleton manifest for the
// given snap name. It refuses to overwrite an existing manifest.
func Init(dir, name string) error {
	if existing, err := Find(dir); err == nil {
		return fmt.Errorf("%s already exists", existing)
	}

	manifestDir := filepath.Join(dir, ManifestDir)
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", manifestDir, err)
	}

	path := filepath.Join(manifestDir, ManifestFile)
	data := fmt.Sprintf(skeleton, name, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
