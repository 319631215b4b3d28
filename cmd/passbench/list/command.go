// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package list implements "passbench list": enumerate the frozen
// corpus the same way the sweep engine discovers it.
package list

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/cmd/passbench/cli"
	"github.com/passbench/passbench/lib/discover"
	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/freeze"
	"github.com/passbench/passbench/lib/gateset"
)

type listParams struct {
	cli.Settings
	cli.JSONOutput
	Corpus   string   `flag:"corpus" desc:"corpus root directory (default: config paths.circuits)"`
	Targets  []string `flag:"targets" desc:"restrict to these native gatesets (default: all)"`
	Families []string `flag:"families" desc:"restrict to these circuit families (default: all)"`
	Sizes    []int    `flag:"sizes" desc:"restrict to these sizes"`
}

// entry is one discovered artifact, shaped for --json output.
type entry struct {
	Gateset    string `json:"gateset"`
	Family     string `json:"family"`
	Artifact   string `json:"artifact"`
	Size       int    `json:"size"`
	Variant    string `json:"variant,omitempty"`
	Parameters string `json:"parameters,omitempty"`
}

// Command returns the "list" command.
func Command() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "Enumerate frozen artifacts in the corpus",
		Usage:   "passbench list [flags]",
		Description: `Walk the corpus the way the sweep engine does and print every
discovered artifact with its resolved size and variant.

Artifacts without a readable metadata sidecar are reported on stderr
and excluded, matching the engine's orphan handling. Size and variant
come from the sidecar with filename fallback.`,
		Examples: []cli.Example{
			{
				Description: "List the whole corpus",
				Command:     "passbench list",
			},
			{
				Description: "List one scope as JSON",
				Command:     "passbench list --targets quantinuum --families qaoa --json",
			},
			{
				Description: "List only the size-8 artifacts",
				Command:     "passbench list --sizes 8",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
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
			targets := params.Targets
			if len(targets) == 0 {
				targets = gateset.Names()
			}
			families := params.Families
			if len(families) == 0 {
				families = family.Names()
			}
			sizeFilter := make(map[int]bool)
			for _, size := range params.Sizes {
				sizeFilter[size] = true
			}

			var entries []entry
			for _, target := range targets {
				for _, familyName := range families {
					pairs, orphans, err := discover.Find(corpus, target, familyName)
					if err != nil {
						return err
					}
					for _, orphan := range orphans {
						logger.Warn("artifact has no metadata sidecar",
							"path", orphan)
					}

					parameterized, seeded := false, false
					if fam, err := family.Lookup(familyName); err == nil {
						parameterized, seeded = fam.Parameterized, fam.Seeded
					}

					for _, pair := range pairs {
						meta, err := freeze.LoadMetadata(pair.Meta)
						if err != nil {
							logger.Warn("skipping artifact with unreadable sidecar",
								"path", pair.Artifact, "err", err)
							continue
						}
						basename := filepath.Base(pair.Artifact)
						size := discover.ResolveSize(meta, basename)
						if len(sizeFilter) > 0 && !sizeFilter[size] {
							continue
						}
						reps, seed, tag := discover.ResolveVariant(meta, basename, parameterized, seeded)
						entries = append(entries, entry{
							Gateset:    target,
							Family:     familyName,
							Artifact:   basename,
							Size:       size,
							Variant:    discover.VariantString(parameterized, seeded, reps, seed, tag),
							Parameters: meta.Parameters,
						})
					}
				}
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No artifacts found.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "GATESET\tFAMILY\tSIZE\tVARIANT\tARTIFACT\n")
			for _, e := range entries {
				variant := e.Variant
				if variant == "" {
					variant = "-"
				}
				fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n",
					e.Gateset, e.Family, e.Size, variant, e.Artifact)
			}
			writer.Flush()
			return nil
		},
	}
}
