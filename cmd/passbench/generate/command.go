// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package generate implements "passbench generate": expand a
// generation plan (or an inline batch from flags) into build specs,
// build each circuit variant, and freeze it into the corpus.
package generate

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/cmd/passbench/cli"
	"github.com/passbench/passbench/lib/clock"
	"github.com/passbench/passbench/lib/freeze"
	"github.com/passbench/passbench/lib/generate"
	"github.com/passbench/passbench/lib/version"
)

type generateParams struct {
	cli.Settings
	cli.JSONOutput
	Corpus  string   `flag:"corpus" desc:"corpus root directory (default: config paths.circuits)"`
	Plan    string   `flag:"plan" desc:"JSONC generation plan file (default: config generate.plan)"`
	Family  string   `flag:"family" desc:"circuit family for an inline batch"`
	Targets []string `flag:"targets" desc:"native gatesets for the inline batch (default: all registered)"`
	Sizes   []int    `flag:"sizes" desc:"size grid for the inline batch"`
	Reps    []int    `flag:"reps" desc:"repetition grid (parameterized families only)"`
	Seeds   []int64  `flag:"seeds" desc:"seed grid (seeded families only)"`
	Modes   []string `flag:"symbolic" desc:"parameter modes for the inline batch: sym and/or num"`
	Mode    string   `flag:"mode" desc:"freeze mode: preserve, force, or compare (default: config generate.mode)"`
}

// report is the generation summary, shaped for --json output.
type report struct {
	Corpus    string   `json:"corpus"`
	Mode      string   `json:"mode"`
	Specs     int      `json:"specs"`
	Written   int      `json:"written"`
	Preserved int      `json:"preserved"`
	Replaced  int      `json:"replaced"`
	Unchanged int      `json:"unchanged"`
	Drifted   []string `json:"drifted,omitempty"`
}

// Command returns the "generate" command.
func Command() *cli.Command {
	var params generateParams

	return &cli.Command{
		Name:    "generate",
		Summary: "Build and freeze the circuit corpus",
		Usage:   "passbench generate [flags]",
		Description: `Build circuit variants and freeze them into the corpus.

The variant grid comes from a JSONC plan file (--plan) or from an
inline batch (--family with --sizes and, where the family takes them,
--reps, --seeds, and --symbolic). Each variant is built, lowered to
its native gateset when numeric, and frozen content-addressed under
<corpus>/<gateset>/<family>/.

The freeze mode decides what happens when the artifact already exists:
preserve keeps the existing bytes untouched, force rewrites them, and
compare rewrites only on drift. Every write is recorded in the corpus
ledger; under compare, drifted artifacts are listed and the command
exits non-zero.`,
		Examples: []cli.Example{
			{
				Description: "Freeze the corpus from a plan",
				Command:     "passbench generate --plan plans/corpus.jsonc",
			},
			{
				Description: "Inline batch: QAOA at two sizes, both parameter modes",
				Command:     "passbench generate --family qaoa --sizes 8,12 --reps 2 --seeds 11 --symbolic sym,num",
			},
			{
				Description: "Audit frozen artifacts against the current builders",
				Command:     "passbench generate --plan plans/corpus.jsonc --mode compare",
			},
			{
				Description: "Force-rewrite one family",
				Command:     "passbench generate --family qft --sizes 4,8,16 --mode force",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("generate", &params)
		},
		Run: func(args []string) error {
			cfg, logger, err := params.Load()
			if err != nil {
				return err
			}

			corpus := params.Corpus
			if corpus == "" {
				corpus = cfg.Paths.Circuits
			}
			modeName := params.Mode
			if modeName == "" {
				modeName = cfg.Generate.Mode
			}
			mode, err := freeze.ParseMode(modeName)
			if err != nil {
				return err
			}

			plan, err := resolvePlan(&params, cfg.Generate.Plan)
			if err != nil {
				return err
			}
			specs, err := plan.Expand()
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				return fmt.Errorf("plan expands to no specs")
			}

			generator := generate.NewGenerator(clock.Real(), logger, version.Tool())
			summary, err := generator.GenerateAll(context.Background(), corpus, specs, mode)
			if err != nil {
				return err
			}

			rep := report{Corpus: corpus, Mode: mode.String(), Specs: len(specs)}
			for _, outcome := range summary.Outcomes {
				switch outcome.Result.Disposition {
				case freeze.Written:
					rep.Written++
				case freeze.Preserved:
					rep.Preserved++
				case freeze.Replaced:
					rep.Replaced++
				case freeze.Unchanged:
					rep.Unchanged++
				}
			}
			for _, outcome := range summary.Replaced() {
				spec := outcome.Spec
				rep.Drifted = append(rep.Drifted, path.Join(spec.Target, spec.Family, spec.Filename()))
			}

			if done, err := params.EmitJSON(rep); done {
				if err != nil {
					return err
				}
			} else {
				fmt.Printf("%d specs under %s: %d written, %d preserved, %d replaced, %d unchanged\n",
					rep.Specs, rep.Corpus, rep.Written, rep.Preserved, rep.Replaced, rep.Unchanged)
				for _, name := range rep.Drifted {
					fmt.Fprintf(os.Stderr, "drifted: %s\n", name)
				}
			}

			// Compare is an audit: finding drift is a failed check.
			if mode == freeze.Compare && len(rep.Drifted) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// resolvePlan picks the variant grid: an explicit plan file, an inline
// batch from flags, or the config's default plan, in that order.
func resolvePlan(params *generateParams, configPlan string) (*generate.Plan, error) {
	if params.Plan != "" && params.Family != "" {
		return nil, fmt.Errorf("--plan and --family are mutually exclusive")
	}
	if params.Plan != "" {
		return generate.ReadPlanFile(params.Plan)
	}
	if params.Family != "" {
		return &generate.Plan{Batches: []generate.Batch{{
			Family:  params.Family,
			Targets: params.Targets,
			Sizes:   params.Sizes,
			Reps:    params.Reps,
			Seeds:   params.Seeds,
			Modes:   params.Modes,
		}}}, nil
	}
	if configPlan != "" {
		return generate.ReadPlanFile(configPlan)
	}
	return nil, fmt.Errorf("nothing to generate: give --plan or --family (or set generate.plan in the config)")
}
