// Package keys wraps the snap tool's key management and assertion
// signing commands.
package keys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/source"
)

// Key is one GPG key known to the snap tool.
type Key struct {
	Name    string `json:"name"`
	SHA3384 string `json:"sha3-384"`
}

// NotFoundError reports a key name with no matching local key.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return "no keys found, create one with 'snapcraft create-key'"
	}
	return fmt.Sprintf("key %q not found, create it with 'snapcraft create-key %s'", e.Name, e.Name)
}

// snap wraps a snap tool invocation, turning a non-zero exit into a
// *source.CommandError.
func snap(ctx context.Context, run runner.Runner, input []byte, args ...string) (runner.Result, error) {
	var res runner.Result
	var err error
	if input != nil {
		res, err = run.RunInput(ctx, input, "snap", args...)
	} else {
		res, err = run.Run(ctx, "snap", args...)
	}
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &source.CommandError{
			Command:  append([]string{"snap"}, args...),
			ExitCode: res.ExitCode,
			Output:   res.Output(),
		}
	}
	return res, nil
}

// List returns the keys available for signing assertions.
func List(ctx context.Context, run runner.Runner) ([]Key, error) {
	res, err := snap(ctx, run, nil, "keys", "--json")
	if err != nil {
		return nil, err
	}

	// The snap tool prints "null" when no keys exist.
	var keys []Key
	if err := json.Unmarshal([]byte(res.Stdout), &keys); err != nil {
		return nil, fmt.Errorf("parsing snap keys output: %w", err)
	}
	return keys, nil
}

// Get returns the key called name, or the only key when name is empty.
func Get(ctx context.Context, run runner.Runner, name string) (Key, error) {
	keys, err := List(ctx, run)
	if err != nil {
		return Key{}, err
	}
	if name == "" {
		if len(keys) == 0 {
			return Key{}, &NotFoundError{}
		}
		return keys[0], nil
	}
	for _, k := range keys {
		if k.Name == name {
			return k, nil
		}
	}
	return Key{}, &NotFoundError{Name: name}
}

// Create generates a new key pair under the given name.
func Create(ctx context.Context, run runner.Runner, name string) error {
	_, err := snap(ctx, run, nil, "create-key", name)
	return err
}

// Export produces the account-key-request assertion for registering the
// key with the store.
func Export(ctx context.Context, run runner.Runner, name, accountID string) ([]byte, error) {
	res, err := snap(ctx, run, nil, "export-key", "--account="+accountID, name)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

// SignAssertion signs a JSON assertion payload, returning the signed
// assertion text.
func SignAssertion(ctx context.Context, run runner.Runner, payload []byte, keyName string) ([]byte, error) {
	args := []string{"sign"}
	if keyName != "" {
		args = append(args, "-k", keyName)
	}
	res, err := snap(ctx, run, payload, args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

// SignBuild produces a signed snap-build assertion for the snap file on
// disk.
func SignBuild(ctx context.Context, run runner.Runner, developerID, snapID, grade, keyName, snapFile string) ([]byte, error) {
	args := []string{
		"sign-build",
		"--developer-id=" + developerID,
		"--snap-id=" + snapID,
		"--grade=" + grade,
	}
	if keyName != "" {
		args = append(args, "-k", keyName)
	}
	args = append(args, snapFile)

	res, err := snap(ctx, run, nil, args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

// validationRef matches "<snap-name>=<revision>".
var validationRef = regexp.MustCompile(`^[^=]+=[0-9]+$`)

// ValidationRequest names a gated snap revision approved by a gating
// snap.
type ValidationRequest struct {
	GatedSnap string
	Revision  string
}

// ParseValidations checks and splits "<name>=<revision>" arguments.
func ParseValidations(args []string) ([]ValidationRequest, error) {
	var invalid []string
	var reqs []ValidationRequest
	for _, a := range args {
		if !validationRef.MatchString(a) {
			invalid = append(invalid, a)
			continue
		}
		name, rev, _ := strings.Cut(a, "=")
		reqs = append(reqs, ValidationRequest{GatedSnap: name, Revision: rev})
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid validation requests %v, expected format: <snap-name>=<revision>", invalid)
	}
	return reqs, nil
}

// ValidationPayload builds the JSON body of a validation assertion.
// revision is the assertion revision, set when superseding an earlier
// validation of the same snap revision.
func ValidationPayload(authorityID, series, snapID, approvedID, approvedRevision, revision string, revoke bool, now time.Time) ([]byte, error) {
	payload := map[string]string{
		"type":                   "validation",
		"authority-id":           authorityID,
		"series":                 series,
		"snap-id":                snapID,
		"approved-snap-id":       approvedID,
		"approved-snap-revision": approvedRevision,
		"timestamp":              now.UTC().Format(time.RFC3339),
		"revoked":                "false",
	}
	if revision != "" {
		payload["revision"] = revision
	}
	if revoke {
		payload["revoked"] = "true"
	}
	return json.Marshal(payload)
}

// IsSnapInstalled reports whether the snap tool is available on PATH.
func IsSnapInstalled(ctx context.Context, run runner.Runner) bool {
	_, err := run.Run(ctx, "snap", "version")
	return !errors.Is(err, exec.ErrNotFound)
}
