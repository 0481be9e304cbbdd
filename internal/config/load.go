package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// New creates a Config from defaults, the first config file found and the environment.
// A config file that exists but cannot be parsed is reported as an error.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	LoadFromEnv(cfg)
	return cfg, nil
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $SHAKEWATCH_CONFIG
//  2. $XDG_CONFIG_HOME/shakewatch/config.toml
//  3. ~/.config/shakewatch/config.toml
//
// If no file exists, returns Default().
func Load() (*Config, error) {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return Default(), nil
}

// LoadFile reads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, nil
}

// LoadFromReader decodes TOML over the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchPaths() []string {
	var paths []string
	if p := os.Getenv("SHAKEWATCH_CONFIG"); p != "" {
		paths = append(paths, p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "shakewatch", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shakewatch", "config.toml"))
	}
	return paths
}
