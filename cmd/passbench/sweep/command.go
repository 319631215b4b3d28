// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package sweep implements "passbench sweep": run the pairwise
// pass-interaction engine over the frozen corpus and report per-scope
// results.
package sweep

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/cmd/passbench/cli"
	"github.com/passbench/passbench/lib/clock"
	"github.com/passbench/passbench/lib/config"
	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/gateset"
	"github.com/passbench/passbench/lib/pairwise"
)

type sweepParams struct {
	cli.Settings
	cli.JSONOutput
	Corpus       string   `flag:"corpus" desc:"corpus root directory (default: config paths.circuits)"`
	Results      string   `flag:"results" desc:"results root directory (default: config paths.results)"`
	Targets      []string `flag:"targets" desc:"native gatesets to sweep (default: config, then all)"`
	Families     []string `flag:"families" desc:"circuit families to sweep (default: config, then all)"`
	Sizes        []int    `flag:"sizes" desc:"restrict to these sizes"`
	Reps         []int    `flag:"reps" desc:"restrict to these repetition counts"`
	Seeds        []int64  `flag:"seeds" desc:"restrict to these seeds"`
	SymbolicOnly bool     `flag:"symbolic-only" desc:"keep only artifacts tagged symbolic"`
	Pairs        string   `flag:"pairs" desc:"pass pairs as A-B[,C-D] (default: every registry pair)"`
	Direction    string   `flag:"direction" desc:"trial ordering: both, A_then_B, or B_then_A"`
	SkipExisting bool     `flag:"skip-existing" desc:"skip trials whose per-trial CSV already exists"`
	FreshSummary bool     `flag:"fresh-summary" desc:"truncate each scope's dated summary instead of appending"`
	NoDebugDumps bool     `flag:"no-debug-dumps" desc:"suppress before/after circuit dumps"`
	Workers      int      `flag:"workers" desc:"concurrent scopes (default: config sweep.workers)"`
}

// scopeView is one scope's outcome, shaped for --json output.
type scopeView struct {
	Gateset         string `json:"gateset"`
	Family          string `json:"family"`
	Artifacts       int    `json:"artifacts"`
	Orphans         int    `json:"orphans,omitempty"`
	Skipped         int    `json:"skipped,omitempty"`
	SkippedExisting int    `json:"skipped_existing,omitempty"`
	Trials          int    `json:"trials"`
	Error           string `json:"error,omitempty"`
}

type sweepView struct {
	Corpus  string      `json:"corpus"`
	Results string      `json:"results"`
	Scopes  []scopeView `json:"scopes"`
	Trials  int         `json:"trials"`
}

// Command returns the "sweep" command.
func Command() *cli.Command {
	var params sweepParams

	return &cli.Command{
		Name:    "sweep",
		Summary: "Run pairwise comparison scopes over the corpus",
		Usage:   "passbench sweep [flags]",
		Description: `Run the pass-interaction benchmark over the frozen corpus.

Every (gateset, family) combination in scope is swept independently:
discovered artifacts are filtered, each ordered pass pair is applied
to a fresh copy of the baseline, and one comparison row per trial goes
to a per-trial CSV plus the scope's dated aggregate summary.

Scopes run on a worker pool (--workers); a fatal error aborts its own
scope and cancels the rest, keeping partial output. The exit status
reflects whether every scope completed.`,
		Examples: []cli.Example{
			{
				Description: "Sweep everything with defaults",
				Command:     "passbench sweep",
			},
			{
				Description: "One scope, one pair, forward direction only",
				Command:     "passbench sweep --targets ibm_falcon --families qft --pairs RB-RR --direction A_then_B",
			},
			{
				Description: "Resume a large sweep without recomputing finished trials",
				Command:     "passbench sweep --skip-existing --workers 4",
			},
			{
				Description: "Symbolic variants only, small sizes",
				Command:     "passbench sweep --symbolic-only --sizes 4,8",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("sweep", &params)
		},
		Run: func(args []string) error {
			cfg, logger, err := params.Load()
			if err != nil {
				return err
			}

			runParams, err := resolveParams(&params, cfg)
			if err != nil {
				return err
			}

			engine := pairwise.New(clock.Real(), logger)
			report, runErr := engine.Run(context.Background(), runParams)

			view := sweepView{
				Corpus:  runParams.CircuitsRoot,
				Results: runParams.ResultsRoot,
				Trials:  report.Trials(),
			}
			for _, scope := range report.Scopes {
				v := scopeView{
					Gateset:         scope.Gateset,
					Family:          scope.Family,
					Artifacts:       scope.Artifacts,
					Orphans:         scope.Orphans,
					Skipped:         scope.Skipped,
					SkippedExisting: scope.SkippedExisting,
					Trials:          scope.Trials,
				}
				if scope.Err != nil {
					v.Error = scope.Err.Error()
				}
				view.Scopes = append(view.Scopes, v)
			}

			if done, err := params.EmitJSON(view); done {
				if err != nil {
					return err
				}
				return runErr
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "GATESET\tFAMILY\tARTIFACTS\tTRIALS\tSKIPPED\tSTATUS\n")
			for _, scope := range view.Scopes {
				status := "ok"
				if scope.Error != "" {
					status = scope.Error
				}
				fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%d\t%s\n",
					scope.Gateset,
					scope.Family,
					scope.Artifacts,
					scope.Trials,
					scope.Skipped+scope.SkippedExisting,
					status,
				)
			}
			writer.Flush()
			fmt.Printf("\n%d trials across %d scopes → %s\n",
				view.Trials, len(view.Scopes), view.Results)

			return runErr
		},
	}
}

// resolveParams merges flags over config defaults into engine params.
// Flag values win; empty scope lists fall back to the config, then to
// every registered name.
func resolveParams(params *sweepParams, cfg *config.Config) (pairwise.Params, error) {
	corpus := params.Corpus
	if corpus == "" {
		corpus = cfg.Paths.Circuits
	}
	resultsRoot := params.Results
	if resultsRoot == "" {
		resultsRoot = cfg.Paths.Results
	}

	targets := params.Targets
	if len(targets) == 0 {
		targets = cfg.Sweep.Targets
	}
	if len(targets) == 0 {
		targets = gateset.Names()
	}
	families := params.Families
	if len(families) == 0 {
		families = cfg.Sweep.Families
	}
	if len(families) == 0 {
		families = family.Names()
	}
	sizes := params.Sizes
	if len(sizes) == 0 {
		sizes = cfg.Sweep.Sizes
	}

	pairSpec := params.Pairs
	if pairSpec == "" {
		pairSpec = strings.Join(cfg.Sweep.Pairs, ",")
	}
	pairs, err := pairwise.ParsePairs(pairSpec)
	if err != nil {
		return pairwise.Params{}, err
	}

	directionName := params.Direction
	if directionName == "" {
		directionName = cfg.Sweep.Direction
	}
	directions, err := pairwise.ParseDirections(directionName)
	if err != nil {
		return pairwise.Params{}, err
	}

	workers := params.Workers
	if workers < 1 {
		workers = cfg.Sweep.Workers
	}

	return pairwise.Params{
		CircuitsRoot: corpus,
		ResultsRoot:  resultsRoot,
		Gatesets:     targets,
		Families:     families,
		Sizes:        sizes,
		Reps:         params.Reps,
		Seeds:        params.Seeds,
		SymbolicOnly: params.SymbolicOnly,
		Pairs:        pairs,
		Directions:   directions,
		SkipExisting: params.SkipExisting,
		FreshSummary: params.FreshSummary,
		NoDebugDumps: params.NoDebugDumps || !cfg.Sweep.DebugDumps,
		Workers:      workers,
	}, nil
}
