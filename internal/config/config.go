// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package config loads tool configuration with layered precedence:
// defaults from the flag set, then an optional YAML file, then explicitly
// set flags.
package config

import (
	"log/slog"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config carries the settings shared by every subcommand.
type Config struct {
	LogLevel      string `koanf:"log-level"`      // debug, info, warn or error
	LogFormat     string `koanf:"log-format"`     // text or json
	EngineVersion string `koanf:"engine-version"` // target runtime version for feature gating
	ExtrefRetries uint64 `koanf:"extref-retries"` // extra attempts per external source load
}

// RegisterFlags declares the shared flags with their defaults on the
// given flag set. Load later reads the same set, so defaults live in one
// place.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log verbosity: debug, info, warn or error")
	fs.String("log-format", "text", "log output format: text or json")
	fs.String("engine-version", "", "target engine runtime version for feature gating")
	fs.Uint64("extref-retries", 3, "extra attempts when an external source file fails to load")
}

// Load builds the configuration. An empty path skips the file layer; the
// flag set contributes both the defaults and the explicit overrides.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.With("path", path).Wrapf(err, "loading config file")
		}
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Wrapf(err, "reading flags")
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Wrapf(err, "unmarshaling config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return oops.With("log_format", c.LogFormat).Errorf("log format must be text or json")
	}
	_, err := c.Level()
	return err
}

// Level parses the configured log level. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, oops.With("log_level", c.LogLevel).Errorf("log level must be debug, info, warn or error")
	}
	return l, nil
}
