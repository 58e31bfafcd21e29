// Package provider detects the build environment backend used to run
// lifecycle steps in isolation.
package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvVar overrides provider detection when set.
const EnvVar = "SNAPCRAFT_BUILD_ENVIRONMENT"

// Provider is a detected build environment backend (lxd or multipass).
type Provider struct {
	Path string // absolute path to the binary
	Name string // "lxd" or "multipass"
}

// binaryFor maps a provider name to the binary that drives it.
func binaryFor(name string) string {
	if name == "lxd" {
		return "lxc"
	}
	return name
}

// Detect finds a build provider. The SNAPCRAFT_BUILD_ENVIRONMENT env
// var wins, then preferred (from developer config), then a PATH search
// for lxd and multipass.
func Detect(preferred string) (*Provider, error) {
	if override := os.Getenv(EnvVar); override != "" {
		path, err := exec.LookPath(binaryFor(override))
		if err != nil {
			return nil, fmt.Errorf("%s=%q not usable: %w", EnvVar, override, err)
		}
		return &Provider{Path: path, Name: override}, nil
	}

	candidates := []string{"lxd", "multipass"}
	if preferred != "" {
		candidates = []string{preferred}
	}

	for _, candidate := range candidates {
		path, err := exec.LookPath(binaryFor(candidate))
		if err == nil {
			return &Provider{Path: path, Name: candidate}, nil
		}
	}

	return nil, fmt.Errorf("no build provider found: install lxd or multipass, or set %s", EnvVar)
}

// Version reports the provider tool's version string.
func (p *Provider) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, p.Path, "version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("querying %s version: %w", p.Name, execError(err))
	}
	return strings.TrimSpace(string(out)), nil
}

// execError extracts stderr from an *exec.ExitError when available.
func execError(err error) error {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(ee.Stderr)))
	}
	return err
}
