// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config
// flag is given.
const EnvVar = "PASSBENCH_CONFIG"

// Config is the master configuration for passbench.
type Config struct {
	// Paths configures the corpus and results locations.
	Paths PathsConfig `yaml:"paths"`

	// Generate configures corpus generation defaults.
	Generate GenerateConfig `yaml:"generate"`

	// Sweep configures pairwise sweep defaults. Command-line flags
	// override these per invocation.
	Sweep SweepConfig `yaml:"sweep"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Circuits is the corpus root: frozen artifacts live under
	// circuits/<gateset>/<family>/.
	Circuits string `yaml:"circuits"`

	// Results is the root for trial CSVs and scope summaries.
	Results string `yaml:"results"`
}

// GenerateConfig configures corpus generation defaults.
type GenerateConfig struct {
	// Mode is the default freeze mode: preserve, force, or compare.
	Mode string `yaml:"mode"`

	// Plan is the default JSONC plan file. Empty means the command
	// requires an explicit --plan or ad-hoc spec flags.
	Plan string `yaml:"plan"`
}

// SweepConfig configures pairwise sweep defaults.
type SweepConfig struct {
	// Targets restricts sweeps to these gatesets. Empty means all.
	Targets []string `yaml:"targets"`

	// Families restricts sweeps to these circuit families. Empty
	// means all.
	Families []string `yaml:"families"`

	// Sizes restricts sweeps to these qubit counts. Empty means all.
	Sizes []int `yaml:"sizes"`

	// Pairs lists pass pairs as A-B names, e.g. RB-RR. Empty means
	// every registered pair.
	Pairs []string `yaml:"pairs"`

	// Direction selects trial ordering: both, A_then_B, or B_then_A.
	Direction string `yaml:"direction"`

	// Workers bounds scope-level parallelism.
	Workers int `yaml:"workers"`

	// DebugDumps controls the before/after circuit dumps written
	// next to each trial CSV.
	DebugDumps bool `yaml:"debug_dumps"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Default returns the stock configuration: corpus under ./circuits,
// results under ./results/pairwise, sequential sweeps with debug
// dumps on.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Circuits: "circuits",
			Results:  "results/pairwise",
		},
		Generate: GenerateConfig{
			Mode: "preserve",
		},
		Sweep: SweepConfig{
			Direction:  "both",
			Workers:    1,
			DebugDumps: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load resolves the config path and loads it. An explicit path wins;
// otherwise PASSBENCH_CONFIG is consulted; when both are empty the
// defaults are returned unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The file is
// decoded strictly on top of the defaults, so absent keys keep their
// default values and unknown keys are errors. ${VAR} and
// ${VAR:-default} patterns are expanded from the environment before
// decoding.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expandVars(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file is a valid all-defaults config.
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Circuits == "" {
		errs = append(errs, fmt.Errorf("paths.circuits is required"))
	}
	if c.Paths.Results == "" {
		errs = append(errs, fmt.Errorf("paths.results is required"))
	}

	modes := []string{"preserve", "force", "compare"}
	if !contains(modes, c.Generate.Mode) {
		errs = append(errs, fmt.Errorf("generate.mode must be one of: %v", modes))
	}

	directions := []string{"both", "A_then_B", "B_then_A"}
	if !contains(directions, c.Sweep.Direction) {
		errs = append(errs, fmt.Errorf("sweep.direction must be one of: %v", directions))
	}

	if c.Sweep.Workers < 1 {
		errs = append(errs, fmt.Errorf("sweep.workers must be at least 1"))
	}

	for _, pair := range c.Sweep.Pairs {
		a, b, ok := strings.Cut(pair, "-")
		if !ok || a == "" || b == "" {
			errs = append(errs, fmt.Errorf("sweep.pairs entry %q is not of form A-B", pair))
		}
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the corpus and results roots if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Circuits, c.Paths.Results} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
