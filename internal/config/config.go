// Package config loads the optional fileop configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the optional fileop configuration file. Unset keys are
// nil so flags can tell "absent" from "false".
type Config struct {
	Defaults   DefaultsConfig   `toml:"defaults"`
	Worker     WorkerConfig     `toml:"worker"`
	Controller ControllerConfig `toml:"controller"`
	Theme      ThemeConfig      `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Overwrite *bool   `toml:"overwrite"`
	Verify    *bool   `toml:"verify"`
	TUI       *bool   `toml:"tui"`
	BWLimit   *string `toml:"bwlimit"`
	LogLevel  *string `toml:"log_level"`
	Assume    *string `toml:"assume"`
}

// WorkerConfig tunes the worker process.
type WorkerConfig struct {
	BufferBlocks *int    `toml:"buffer_blocks"`
	GraceDelay   *string `toml:"grace_delay"`
	PathWidth    *int    `toml:"path_width"`
}

// ControllerConfig tunes worker supervision.
type ControllerConfig struct {
	KillGrace *string `toml:"kill_grace"`
}

// ThemeConfig holds optional color overrides for the full-screen display,
// one per role it draws.
type ThemeConfig struct {
	Done      *string `toml:"done"`
	Active    *string `toml:"active"`
	Attention *string `toml:"attention"`
	Failed    *string `toml:"failed"`
	Accent    *string `toml:"accent"`
	Muted     *string `toml:"muted"`
	Rule      *string `toml:"rule"`
	Text      *string `toml:"text"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fileop", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := parseDuration("worker.grace_delay", c.Worker.GraceDelay); err != nil {
		return err
	}
	if _, err := parseDuration("controller.kill_grace", c.Controller.KillGrace); err != nil {
		return err
	}
	if c.Worker.BufferBlocks != nil && *c.Worker.BufferBlocks <= 0 {
		return fmt.Errorf("worker.buffer_blocks must be positive, got %d", *c.Worker.BufferBlocks)
	}
	if c.Worker.PathWidth != nil && *c.Worker.PathWidth <= 0 {
		return fmt.Errorf("worker.path_width must be positive, got %d", *c.Worker.PathWidth)
	}
	return nil
}

// GraceDelay returns worker.grace_delay, or zero when unset.
func (c Config) GraceDelay() time.Duration {
	d, _ := parseDuration("worker.grace_delay", c.Worker.GraceDelay)
	return d
}

// KillGrace returns controller.kill_grace, or zero when unset.
func (c Config) KillGrace() time.Duration {
	d, _ := parseDuration("controller.kill_grace", c.Controller.KillGrace)
	return d
}

func parseDuration(key string, s *string) (time.Duration, error) {
	if s == nil {
		return 0, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
