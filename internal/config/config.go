// Package config loads the VM's resource limits and REPL preferences. Values
// come from compiled-in defaults, optionally overridden by a YAML file and
// then by environment variables, in that order — the same base-then-override
// layering the rest of this module's ambient stack favors.
package config

import (
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable the driver and VM consult at startup. The
// struct tags double as the YAML keys and the environment variable names
// (prefixed GLOX_) so a single definition drives both layers. There are no
// envDefault tags here: defaults are applied once in Default(), and letting
// env.Parse carry its own defaults would make it re-stomp a value already
// set from the YAML layer in Load whenever the corresponding variable is
// unset.
type Config struct {
	// MaxFrames bounds call-frame recursion depth before the VM reports a
	// stack overflow.
	MaxFrames int `yaml:"max_frames" env:"MAX_FRAMES"`

	// HistorySize is the largest number of REPL input lines recorded for the
	// session; once it is reached, the oldest recorded line is dropped.
	HistorySize int `yaml:"history_size" env:"HISTORY_SIZE"`

	// Prompt is the string the REPL prints before reading each line.
	Prompt string `yaml:"prompt" env:"PROMPT"`
}

// Default returns the built-in configuration, before any file or
// environment overrides are applied.
func Default() Config {
	return Config{
		MaxFrames:   256,
		HistorySize: 512,
		Prompt:      "> ",
	}
}

// Load returns the effective configuration: Default(), overridden by
// path's YAML content if path is non-empty and the file exists, and
// finally overridden by any GLOX_-prefixed environment variables.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, err
			}
		case !os.IsNotExist(err):
			return c, err
		}
	}

	if err := env.Parse(&c, env.Options{Prefix: "GLOX_"}); err != nil {
		return c, err
	}
	return c, nil
}
