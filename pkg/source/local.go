package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local exposes a directory that already exists on the filesystem. The
// target directory becomes a symlink to it, so edits are picked up without
// re-pulling.
type Local struct {
	spec Spec
}

var _ Source = &Local{}

func NewLocal(spec Spec) (*Local, error) {
	if opts := refOptions(spec); len(opts) > 0 {
		return nil, &InvalidOptionError{SourceType: "local", Option: opts[0]}
	}
	if spec.Checksum != "" {
		return nil, &InvalidOptionError{SourceType: "local", Option: "source-checksum"}
	}
	return &Local{spec: spec}, nil
}

func (l *Local) Pull(ctx context.Context) (Details, error) {
	absPath, err := filepath.Abs(l.spec.Source)
	if err != nil {
		return Details{}, fmt.Errorf("resolving absolute path for %q: %w", l.spec.Source, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Details{}, fmt.Errorf("local source path does not exist: %s", absPath)
		}
		return Details{}, fmt.Errorf("checking local source path %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return Details{}, fmt.Errorf("local source path is not a directory: %s", absPath)
	}

	if l.spec.Dir != "" {
		if err := linkDir(absPath, l.spec.Dir); err != nil {
			return Details{}, err
		}
	}

	return Details{Source: l.spec.Source}, nil
}

// linkDir points dst at src, replacing a stale symlink when the source
// path changed.
func linkDir(src, dst string) error {
	if existing, err := os.Readlink(dst); err == nil {
		if existing == src {
			return nil
		}
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("replacing %s: %w", dst, err)
		}
	} else if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s exists and is not a symlink", dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("linking %s: %w", dst, err)
	}
	return nil
}
