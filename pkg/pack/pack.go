// Package pack wraps `snap pack` to build .snap artifacts from a primed
// directory tree.
package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/medubelko/snapcraft/pkg/runner"
)

// Error reports a `snap pack` invocation that failed. Message carries
// the most relevant line extracted from the tool's stderr.
type Error struct {
	Message string
	Output  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot pack snap: %s", e.Message)
	}
	return "cannot pack snap"
}

// Options controls the artifact name and placement.
type Options struct {
	// Output may be a directory, a file path, or a bare file name.
	// A directory places the snap there under the default name, a file
	// path or name overrides the artifact name.
	Output string
	// Compression selects the squashfs compression, empty for the snap
	// tool's default.
	Compression string
	// Name, Version and Target compose the default artifact name
	// <name>_<version>_<target>.snap when all three are set.
	Name    string
	Version string
	Target  string
}

// Snap packs the primed directory into a .snap file and returns the
// artifact filename.
func Snap(ctx context.Context, run runner.Runner, directory string, opts Options) (string, error) {
	if err := verify(ctx, run, directory); err != nil {
		return "", err
	}

	outputDir, err := outputDirectory(opts.Output)
	if err != nil {
		return "", err
	}
	outputFile := outputFilename(opts)

	args := []string{"pack"}
	if outputFile != "" {
		args = append(args, "--filename", outputFile)
	}
	if opts.Compression != "" {
		args = append(args, "--compression", opts.Compression)
	}
	args = append(args, directory, outputDir)

	res, err := run.Run(ctx, "snap", args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &Error{Message: lastErrorLine(res.Stderr), Output: res.Output()}
	}

	// snap pack prints "built: <path>"; the artifact name follows the
	// first colon.
	_, after, _ := strings.Cut(res.Stdout, ":")
	return filepath.Base(strings.TrimSpace(after)), nil
}

// verify runs the cheap --check-skeleton pass so malformed trees fail
// before the squashfs build starts.
func verify(ctx context.Context, run runner.Runner, directory string) error {
	res, err := run.Run(ctx, "snap", "pack", "--check-skeleton", directory)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &Error{Message: lastErrorLine(res.Stderr), Output: res.Output()}
	}
	return nil
}

// outputDirectory resolves where the artifact lands. An existing
// directory is used as-is, a file path contributes its parent, and no
// output means the current directory.
func outputDirectory(output string) (string, error) {
	if output == "" {
		return os.Getwd()
	}
	info, err := os.Stat(output)
	if err == nil && info.IsDir() {
		return filepath.Abs(output)
	}
	return filepath.Abs(filepath.Dir(output))
}

func outputFilename(opts Options) string {
	if opts.Output != "" {
		info, err := os.Stat(opts.Output)
		if err != nil || !info.IsDir() {
			return filepath.Base(opts.Output)
		}
	}
	if opts.Name != "" && opts.Version != "" && opts.Target != "" {
		return fmt.Sprintf("%s_%s_%s.snap", opts.Name, opts.Version, opts.Target)
	}
	return ""
}

// lastErrorLine extracts the last "error: ..." line from snap tool
// stderr, falling back to the trimmed output.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if msg, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "error: "); ok {
			return msg
		}
	}
	return strings.TrimSpace(stderr)
}
