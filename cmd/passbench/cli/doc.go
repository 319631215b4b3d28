// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the passbench CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/passbench/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Command parameters are declared as tagged structs and bound to flags
// via [FlagsFromParams] / [BindFlags] (see params.go). Two embeddable
// helpers cover the cross-cutting concerns:
//
//   - [Settings]: the --config and --log-level flags, with
//     [Settings.Load] resolving the configuration file and building the
//     command logger.
//
//   - [JSONOutput]: the --json flag and [JSONOutput.EmitJSON] for
//     commands that emit machine-readable output.
package cli
