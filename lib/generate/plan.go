// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package generate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/gateset"
)

// Plan is a generation plan: batches of variant grids that expand into
// BuildSpecs. Plans are authored as JSONC (JSON with // comments and
// trailing commas).
type Plan struct {
	Batches []Batch `json:"batches"`
}

// Batch is one variant grid. Targets and sizes span every family;
// reps, seeds, and symbolic modes only apply where the family takes
// them and must be absent elsewhere.
type Batch struct {
	Family  string   `json:"family"`
	Targets []string `json:"targets"`
	Sizes   []int    `json:"sizes"`
	Reps    []int    `json:"reps,omitempty"`
	Seeds   []int64  `json:"seeds,omitempty"`

	// Modes lists the parameter modes to generate, "sym" and/or
	// "num". Parameterized families default to symbolic only.
	Modes []string `json:"symbolic,omitempty"`
}

// ParsePlan strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Plan.
func ParsePlan(data []byte) (*Plan, error) {
	stripped := jsonc.ToJSON(data)

	var plan Plan
	if err := json.Unmarshal(stripped, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &plan, nil
}

// ReadPlanFile reads a JSONC plan from disk and parses it.
func ReadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Expand turns the plan into the ordered cross product of its batches:
// batch order, then targets, sizes, reps, seeds, and modes. Every spec
// is validated; duplicates (same artifact filename) are dropped,
// keeping the first occurrence.
func (p *Plan) Expand() ([]BuildSpec, error) {
	var specs []BuildSpec
	seen := make(map[string]bool)

	for i, batch := range p.Batches {
		expanded, err := batch.expand()
		if err != nil {
			return nil, fmt.Errorf("plan batch %d (%s): %w", i, batch.Family, err)
		}
		for _, spec := range expanded {
			name := spec.Filename()
			if seen[name] {
				continue
			}
			seen[name] = true
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func (b Batch) expand() ([]BuildSpec, error) {
	fam, err := family.Lookup(b.Family)
	if err != nil {
		return nil, err
	}
	if len(b.Sizes) == 0 {
		return nil, fmt.Errorf("no sizes")
	}
	if !fam.Parameterized {
		if len(b.Reps) > 0 {
			return nil, fmt.Errorf("family takes no repetitions")
		}
		if len(b.Modes) > 0 {
			return nil, fmt.Errorf("family has no symbolic/numeric modes")
		}
	} else if len(b.Reps) == 0 {
		return nil, fmt.Errorf("parameterized family needs reps")
	}
	if !fam.Seeded && len(b.Seeds) > 0 {
		return nil, fmt.Errorf("family takes no seeds")
	}
	if fam.Seeded && len(b.Seeds) == 0 {
		return nil, fmt.Errorf("seeded family needs seeds")
	}

	targets := b.Targets
	if len(targets) == 0 {
		targets = gateset.Names()
	}

	// Dimensions the family does not take collapse to a single slot
	// so the loop shape stays uniform.
	reps := b.Reps
	if len(reps) == 0 {
		reps = []int{0}
	}
	seeds := b.Seeds
	if len(seeds) == 0 {
		seeds = []int64{0}
	}
	symbolic, err := b.symbolicModes(fam)
	if err != nil {
		return nil, err
	}

	var specs []BuildSpec
	for _, target := range targets {
		for _, size := range b.Sizes {
			for _, r := range reps {
				for _, seed := range seeds {
					for _, sym := range symbolic {
						spec := BuildSpec{
							Family:   b.Family,
							Target:   target,
							Size:     size,
							Reps:     r,
							Seed:     seed,
							Symbolic: sym,
						}
						if err := spec.Validate(); err != nil {
							return nil, err
						}
						specs = append(specs, spec)
					}
				}
			}
		}
	}
	return specs, nil
}

func (b Batch) symbolicModes(fam *family.Family) ([]bool, error) {
	if !fam.Parameterized {
		return []bool{true}, nil
	}
	if len(b.Modes) == 0 {
		return []bool{true}, nil
	}
	var modes []bool
	for _, mode := range b.Modes {
		switch mode {
		case "sym":
			modes = append(modes, true)
		case "num":
			modes = append(modes, false)
		default:
			return nil, fmt.Errorf("unknown mode %q (want sym or num)", mode)
		}
	}
	return modes, nil
}
