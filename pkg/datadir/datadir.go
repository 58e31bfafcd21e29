// Package datadir manages the per-user snapcraft data directory,
// conventionally ~/.snapcraft. Store credentials and developer
// configuration live here.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm = 0o755

	// DefaultRoot is the data directory name under the user's home.
	DefaultRoot = ".snapcraft"

	credentialsFile = "credentials"
)

type Dir interface {
	// Path returns the absolute filesystem path for the given segments
	// joined under the data directory root. Does not create or verify
	// the path.
	Path(segments ...string) string
	// Exists reports whether the path at the given segments exists.
	Exists(segments ...string) (bool, error)
	// EnsureDir creates the directory at segments (starting at the
	// root), including parents.
	EnsureDir(segments ...string)
	// Remove deletes the entire tree at segments.
	Remove(segments ...string)
	// WriteFile writes data to the file at segments.
	// Parent directories must already exist.
	WriteFile(data []byte, perm os.FileMode, segments ...string) error
	// ReadFile reads the file at segments.
	ReadFile(segments ...string) ([]byte, error)

	// Credentials returns the stored store credentials, or an error if
	// none are saved.
	Credentials() (string, error)
	// WriteCredentials saves store credentials with owner-only
	// permissions.
	WriteCredentials(token string) error
	// RemoveCredentials discards any saved store credentials.
	RemoveCredentials()
}

func New(root string) Dir {
	return &dir{root: root}
}

func Default() (Dir, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	return &dir{root: filepath.Join(home, DefaultRoot)}, nil
}

type dir struct {
	root string
}

var _ Dir = &dir{}

func (d *dir) Path(segments ...string) string {
	return filepath.Join(append([]string{d.root}, segments...)...)
}

func (d *dir) Exists(segments ...string) (bool, error) {
	_, err := os.Stat(d.Path(segments...))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (d *dir) EnsureDir(segments ...string) {
	os.MkdirAll(d.Path(segments...), dirPerm)
}

func (d *dir) Remove(segments ...string) {
	os.RemoveAll(d.Path(segments...))
}

func (d *dir) WriteFile(data []byte, perm os.FileMode, segments ...string) error {
	return os.WriteFile(d.Path(segments...), data, perm)
}

func (d *dir) ReadFile(segments ...string) ([]byte, error) {
	return os.ReadFile(d.Path(segments...))
}

func (d *dir) Credentials() (string, error) {
	data, err := d.ReadFile(credentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no store credentials found, run 'snapcraft login' first")
		}
		return "", err
	}
	return string(data), nil
}

func (d *dir) WriteCredentials(token string) error {
	d.EnsureDir()
	return d.WriteFile([]byte(token), 0o600, credentialsFile)
}

func (d *dir) RemoveCredentials() {
	d.Remove(credentialsFile)
}
