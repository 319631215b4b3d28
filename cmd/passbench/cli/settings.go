// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/lib/config"
)

// Settings manages the --config and --log-level flags shared by every
// passbench command. Implements [FlagBinder] so it integrates with the
// params struct system while keeping the flag wording identical across
// commands.
//
// Exported so that embedded struct fields are visible to reflection in
// [FlagsFromParams] — unexported embedded types cause field.IsExported()
// to return false, silently skipping FlagBinder detection.
type Settings struct {
	ConfigPath string
	LogLevel   string
}

// AddFlags registers the --config and --log-level flags. Defaults are
// left empty so that [Settings.Load] can distinguish "flag given" from
// "fall back to the config file / environment".
func (s *Settings) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.ConfigPath, "config", "", "config file path (default: $"+config.EnvVar+")")
	flagSet.StringVar(&s.LogLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")
}

// Load resolves the configuration and builds the command logger. The
// config comes from --config, then $PASSBENCH_CONFIG, then built-in
// defaults; the log level from --log-level, then the config's
// logging.level.
func (s *Settings) Load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	levelName := cfg.Logging.Level
	if s.LogLevel != "" {
		levelName = s.LogLevel
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	return cfg, NewCommandLogger(level), nil
}
