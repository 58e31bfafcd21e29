package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDevConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "config.toml")
	localPath := filepath.Join(dir, "snapcraft.local.toml")

	tests := map[string]struct {
		global string
		local  string
		flags  Flags
		want   DevConfig
	}{
		"no config anywhere": {
			want: DevConfig{},
		},
		"global only": {
			global: "provider = \"lxd\"\nkey-name = \"default\"\n",
			want:   DevConfig{Provider: "lxd", KeyName: "default"},
		},
		"local overrides global": {
			global: "provider = \"lxd\"\nkey-name = \"default\"\n",
			local:  "provider = \"multipass\"\n",
			want:   DevConfig{Provider: "multipass", KeyName: "default"},
		},
		"flags override local": {
			global: "provider = \"lxd\"\n",
			local:  "provider = \"multipass\"\nstore-url = \"https://staging.example\"\n",
			flags:  Flags{Provider: "lxd", KeyName: "release"},
			want:   DevConfig{Provider: "lxd", KeyName: "release", StoreURL: "https://staging.example"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			os.Remove(globalPath)
			os.Remove(localPath)
			if tc.global != "" {
				writeFile(t, globalPath, tc.global)
			}
			if tc.local != "" {
				writeFile(t, localPath, tc.local)
			}

			got, err := loadDevConfig(tc.flags, globalPath, localPath)
			if err != nil {
				t.Fatalf("loadDevConfig() error: %v", err)
			}
			if *got != tc.want {
				t.Errorf("loadDevConfig() = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestLoadDevConfigRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "snapcraft.local.toml")
	writeFile(t, localPath, "provider = \"qemu\"\n")

	_, err := loadDevConfig(Flags{}, filepath.Join(dir, "config.toml"), localPath)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "qemu") {
		t.Errorf("error %q does not name the bad provider", err)
	}
}

func TestLoadDevConfigBadLocalFile(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "snapcraft.local.toml")
	writeFile(t, localPath, "provider = [not toml\n")

	_, err := loadDevConfig(Flags{}, filepath.Join(dir, "config.toml"), localPath)
	if err == nil {
		t.Fatal("expected error for malformed local config")
	}
}
