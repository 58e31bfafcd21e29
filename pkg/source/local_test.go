package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLocalRejectsRefsAndChecksum(t *testing.T) {
	tests := map[string]Spec{
		"tag":      {Source: "./src", Tag: "v1.0"},
		"branch":   {Source: "./src", Branch: "main"},
		"commit":   {Source: "./src", Commit: "deadbeef"},
		"checksum": {Source: "./src", Checksum: "sha256/abcd"},
	}

	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewLocal(spec)
			var invalid *InvalidOptionError
			if !errors.As(err, &invalid) {
				t.Fatalf("NewLocal() error = %v, want *InvalidOptionError", err)
			}
		})
	}
}

func TestLocalPull(t *testing.T) {
	srcDir := t.TempDir()
	os.WriteFile(filepath.Join(srcDir, "hello.c"), []byte("int main() {}\n"), 0o644)
	target := filepath.Join(t.TempDir(), "src")

	l, err := NewLocal(Spec{Source: srcDir, Dir: target})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	d, err := l.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if d.Source != srcDir {
		t.Errorf("Source = %q, want %q", d.Source, srcDir)
	}

	if _, err := os.Stat(filepath.Join(target, "hello.c")); err != nil {
		t.Errorf("expected hello.c through link: %v", err)
	}

	// A second pull against the same link succeeds.
	if _, err := l.Pull(context.Background()); err != nil {
		t.Fatalf("second Pull() error = %v", err)
	}
}

func TestLocalPullMissingPath(t *testing.T) {
	l, err := NewLocal(Spec{Source: filepath.Join(t.TempDir(), "absent")})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	if _, err := l.Pull(context.Background()); err == nil {
		t.Fatal("Pull() error = nil, want error for missing path")
	}
}

func TestLocalPullNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	os.WriteFile(file, []byte("data"), 0o644)

	l, err := NewLocal(Spec{Source: file})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	if _, err := l.Pull(context.Background()); err == nil {
		t.Fatal("Pull() error = nil, want error for non-directory")
	}
}
