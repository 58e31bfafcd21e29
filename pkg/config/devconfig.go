// Package config resolves developer-specific configuration that is not
// part of the project manifest: build provider, signing key, store URL.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// LocalConfigFile is the project-local developer config filename.
const LocalConfigFile = "snapcraft.local.toml"

// DevConfig holds developer-specific configuration that is not committed
// to version control. It is resolved with Viper precedence:
// CLI flags > SNAPCRAFT_* environment > snapcraft.local.toml
// (project-local) > ~/.snapcraft/config.toml (global).
type DevConfig struct {
	// Provider selects the build environment backend, lxd or multipass.
	Provider string `toml:"provider" mapstructure:"provider"`
	// KeyName is the default key used to sign assertions.
	KeyName string `toml:"key-name" mapstructure:"key-name"`
	// StoreURL overrides the store endpoint, for staging stores.
	StoreURL string `toml:"store-url" mapstructure:"store-url"`
}

// Flags carries the CLI flag values that take highest precedence.
type Flags struct {
	Provider string
	KeyName  string
	StoreURL string
}

// LoadDevConfig resolves developer configuration for the current
// directory and home.
func LoadDevConfig(flags Flags) (*DevConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".snapcraft", "config.toml")
	return loadDevConfig(flags, globalPath, LocalConfigFile)
}

// loadDevConfig accepts explicit file paths so tests can run against
// temp directories.
func loadDevConfig(flags Flags, globalPath, localPath string) (*DevConfig, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("snapcraft")
	v.AutomaticEnv()

	// Lowest priority: global config. Ignore if missing.
	v.SetConfigFile(globalPath)
	_ = v.ReadInConfig()

	// Higher priority: project-local config.
	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	// Highest priority: CLI flags.
	if flags.Provider != "" {
		v.Set("provider", flags.Provider)
	}
	if flags.KeyName != "" {
		v.Set("key-name", flags.KeyName)
	}
	if flags.StoreURL != "" {
		v.Set("store-url", flags.StoreURL)
	}

	cfg := &DevConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling dev config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *DevConfig) validate() error {
	switch c.Provider {
	case "", "lxd", "multipass":
		return nil
	default:
		return fmt.Errorf("provider must be lxd or multipass, got %q", c.Provider)
	}
}

// GlobalConfigDir returns the path to ~/.snapcraft, creating it if
// necessary.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	dir := filepath.Join(home, ".snapcraft")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// WriteGlobalDevConfig persists developer config to
// ~/.snapcraft/config.toml.
func WriteGlobalDevConfig(cfg *DevConfig) error {
	dir, err := GlobalConfigDir()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling dev config: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
