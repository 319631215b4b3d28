// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for passbench
// commands.
//
// Configuration is loaded from a single file specified by either the
// --config flag (via [LoadFile]) or the PASSBENCH_CONFIG environment
// variable. When neither is set, built-in defaults apply. There is no
// ~/.config discovery and no automatic file search. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// Variable expansion is performed on the raw file before decoding:
// ${VAR} and ${VAR:-default} patterns are replaced from the process
// environment. Unknown YAML keys are rejected.
//
// Key exports:
//
//   - [Config] -- paths plus generation and sweep defaults
//   - [Default] -- returns a Config with the stock corpus layout
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other passbench packages. Enumerated
// values (freeze modes, sweep directions) are checked here by name;
// commands re-parse them with the owning package's parser.
package config
