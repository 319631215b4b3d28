// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete passbench CLI command tree.
// The passbench binary imports this package rather than the leaf
// command packages directly, so the tree is assembled in one place.
package commands

import (
	"fmt"

	archivecmd "github.com/passbench/passbench/cmd/passbench/archive"
	"github.com/passbench/passbench/cmd/passbench/cli"
	generatecmd "github.com/passbench/passbench/cmd/passbench/generate"
	listcmd "github.com/passbench/passbench/cmd/passbench/list"
	sweepcmd "github.com/passbench/passbench/cmd/passbench/sweep"
	verifycmd "github.com/passbench/passbench/cmd/passbench/verify"
	"github.com/passbench/passbench/lib/version"
)

// Root builds and returns the complete passbench CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "passbench",
		Description: `Passbench: pairwise interaction benchmarking for circuit passes.

Generate a frozen corpus of benchmark circuits, sweep every ordered
pair of transformation passes over it, and record per-trial metric
deltas as CSV for analysis.`,
		Subcommands: []*cli.Command{
			generatecmd.Command(),
			sweepcmd.Command(),
			verifycmd.Command(),
			listcmd.Command(),
			archivecmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("passbench %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Freeze the default corpus described by the config plan",
				Command:     "passbench generate",
			},
			{
				Description: "Generate one family inline, without a plan file",
				Command:     "passbench generate --family qaoa --sizes 4,6,8 --symbolic sym,num",
			},
			{
				Description: "Run the full pairwise sweep over the frozen corpus",
				Command:     "passbench sweep",
			},
			{
				Description: "Sweep a single scope with explicit pass pairs",
				Command:     "passbench sweep --targets ibm_falcon --families qft --pairs RB-RR,RB-CTM",
			},
			{
				Description: "Audit the corpus against its freeze ledger",
				Command:     "passbench verify",
			},
			{
				Description: "See what the corpus holds",
				Command:     "passbench list --families qaoa,vqe2l",
			},
			{
				Description: "Pack the results tree for handoff",
				Command:     "passbench archive create",
			},
		},
	}
}
