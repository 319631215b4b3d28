// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package verify implements "passbench verify": re-digest every frozen
// artifact and audit it against the corpus ledger.
package verify

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/cmd/passbench/cli"
	"github.com/passbench/passbench/lib/ledger"
)

type verifyParams struct {
	cli.Settings
	cli.JSONOutput
	Corpus string `flag:"corpus" desc:"corpus root directory (default: config paths.circuits)"`
}

// verifyView is the audit outcome, shaped for --json output.
type verifyView struct {
	Corpus    string   `json:"corpus"`
	Checked   int      `json:"checked"`
	Clean     bool     `json:"clean"`
	Modified  []string `json:"modified,omitempty"`
	Untracked []string `json:"untracked,omitempty"`
	Orphaned  []string `json:"orphaned,omitempty"`
}

// Command returns the "verify" command.
func Command() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Audit the frozen corpus against its ledger",
		Usage:   "passbench verify [flags]",
		Description: `Re-digest every artifact in the corpus and compare against the
freeze ledger.

Three kinds of problem are reported: modified artifacts (bytes no
longer match the recorded digest), untracked artifacts (on disk but
never recorded), and orphaned records (recorded but no longer on
disk). A corpus with any problem exits non-zero.`,
		Examples: []cli.Example{
			{
				Description: "Audit the default corpus",
				Command:     "passbench verify",
			},
			{
				Description: "Audit a specific corpus, machine-readable",
				Command:     "passbench verify --corpus /srv/bench/circuits --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(args []string) error {
			cfg, _, err := params.Load()
			if err != nil {
				return err
			}
			corpus := params.Corpus
			if corpus == "" {
				corpus = cfg.Paths.Circuits
			}

			report, err := ledger.Verify(corpus)
			if err != nil {
				return err
			}

			view := verifyView{
				Corpus:    corpus,
				Checked:   report.Checked,
				Clean:     report.Clean(),
				Modified:  report.Modified,
				Untracked: report.Untracked,
				Orphaned:  report.Orphaned,
			}

			if done, err := params.EmitJSON(view); done {
				if err != nil {
					return err
				}
			} else {
				if view.Clean {
					fmt.Printf("%d artifacts verified, corpus matches ledger\n", view.Checked)
				} else {
					fmt.Printf("%d artifacts checked\n", view.Checked)
					for _, name := range view.Modified {
						fmt.Fprintf(os.Stderr, "modified: %s\n", name)
					}
					for _, name := range view.Untracked {
						fmt.Fprintf(os.Stderr, "untracked: %s\n", name)
					}
					for _, name := range view.Orphaned {
						fmt.Fprintf(os.Stderr, "orphaned: %s\n", name)
					}
				}
			}

			if !view.Clean {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
