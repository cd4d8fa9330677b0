// Package config loads the tool configuration. All settings have working
// defaults; a missing config file is not an error.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// DeviceName is the transport client name the device announces.
	DeviceName string `toml:"device_name"`
	// ChunkCooldownMs paces chunked uploads. 0 disables pacing.
	ChunkCooldownMs int `toml:"chunk_cooldown_ms"`
	// OutputDir is the default destination for downloaded samples.
	OutputDir string `toml:"output_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DeviceName:      "volca sample",
		ChunkCooldownMs: 10,
		OutputDir:       ".",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "volsa", "config.toml")
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. A malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	return cfg, Validate(cfg)
}

// Validate checks configuration correctness. It does not mutate.
func Validate(cfg Config) error {
	if cfg.DeviceName == "" {
		return errors.New("config: device_name must not be empty")
	}
	if cfg.ChunkCooldownMs < 0 {
		return errors.New("config: chunk_cooldown_ms must not be negative")
	}
	return nil
}

// ChunkCooldown returns the pacing interval as a duration.
func (c Config) ChunkCooldown() time.Duration {
	return time.Duration(c.ChunkCooldownMs) * time.Millisecond
}
