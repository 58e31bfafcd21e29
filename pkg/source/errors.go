package source

import (
	"fmt"
	"strings"
)

// IncompatibleOptionsError reports two or more mutually exclusive source
// options set on the same part.
type IncompatibleOptionsError struct {
	SourceType string
	Options    []string
}

func (e *IncompatibleOptionsError) Error() string {
	return fmt.Sprintf("cannot use %s together for a %q source",
		strings.Join(e.Options, " and "), e.SourceType)
}

// InvalidOptionError reports a source option that the source type does not
// support at all (for example a checksum on a git source).
type InvalidOptionError struct {
	SourceType string
	Option     string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("%q is not supported for a %q source", e.Option, e.SourceType)
}

// CommandError reports a version-control invocation that exited non-zero.
// It carries the full command line, the exit code, and the captured output
// so callers can render a diagnostic without re-parsing text.
type CommandError struct {
	Command  []string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%q exited with code %d: %s",
		strings.Join(e.Command, " "), e.ExitCode, strings.TrimSpace(e.Output))
}

// NotARepositoryError reports a version query against a directory that is
// not under version control.
type NotARepositoryError struct {
	Message string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("not a versioned source tree: %s", e.Message)
}

// ChecksumMismatchError reports a downloaded artifact whose digest does not
// match the checksum declared in the manifest.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}
