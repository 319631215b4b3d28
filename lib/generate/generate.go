// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package generate builds circuit variants and freezes them into the
// corpus. A BuildSpec pins one variant — family, native target, size,
// and the repetition/seed/mode fields the family takes — and maps
// deterministically to an artifact path, so regenerating a spec always
// lands on the same file. Plan files (JSONC) expand to BuildSpec
// batches for whole-corpus generation.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/passbench/passbench/lib/circuit"
	"github.com/passbench/passbench/lib/clock"
	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/freeze"
	"github.com/passbench/passbench/lib/gateset"
	"github.com/passbench/passbench/lib/ledger"
)

// BuildSpec pins one circuit variant.
type BuildSpec struct {
	// Family and Target name a registered circuit family and native
	// gateset.
	Family string
	Target string

	// Size is the family's size parameter (qubit count for most
	// families, total register width for vbe_adder).
	Size int

	// Reps and Seed apply to parameterized and seeded families
	// respectively and must be zero elsewhere.
	Reps int
	Seed int64

	// Symbolic selects the sym variant of a parameterized family:
	// placeholders survive into the artifact and lowering is skipped.
	// Ignored for non-parameterized families.
	Symbolic bool
}

// Validate checks the spec against the family and gateset registries.
func (s BuildSpec) Validate() error {
	fam, err := family.Lookup(s.Family)
	if err != nil {
		return err
	}
	if _, err := gateset.Lookup(s.Target); err != nil {
		return err
	}
	if !fam.Parameterized && s.Reps != 0 {
		return fmt.Errorf("family %s takes no repetitions", s.Family)
	}
	if !fam.Seeded && s.Seed != 0 {
		return fmt.Errorf("family %s takes no seed", s.Family)
	}
	if fam.Seeded && s.Seed == 0 {
		return fmt.Errorf("family %s requires a nonzero seed", s.Family)
	}
	return fam.Validate(family.Params{Size: s.Size, Reps: s.Reps, Seed: s.Seed})
}

// tag is the parameter-mode segment for parameterized stems.
func (s BuildSpec) tag() string {
	if s.Symbolic {
		return "sym"
	}
	return "num"
}

// Stem returns the artifact's filename stem. Parameterized families
// embed their repetitions and mode, seeded ones also the seed; every
// stem ends with the target name after a double underscore.
func (s BuildSpec) Stem() string {
	parts := []string{fmt.Sprintf("%s_n%d", s.Family, s.Size)}
	if fam, err := family.Lookup(s.Family); err == nil && fam.Parameterized {
		parts = append(parts, fmt.Sprintf("r%d", s.Reps))
		if fam.Seeded {
			parts = append(parts, fmt.Sprintf("seed%d", s.Seed))
		}
		parts = append(parts, s.tag())
	}
	return strings.Join(parts, "_") + "__" + s.Target
}

// Filename returns the stem with the artifact extension.
func (s BuildSpec) Filename() string {
	return s.Stem() + freeze.ArtifactExt
}

// ArtifactPath returns the spec's location under a corpus root.
func (s BuildSpec) ArtifactPath(root string) string {
	return filepath.Join(root, s.Target, s.Family, s.Filename())
}

// Metadata returns the sidecar content for the spec. The parameters
// field is "numeric" only for a bound parameterized variant; families
// without parameters are labeled "symbolic", which keeps symbolic-only
// sweeps admitting them.
func (s BuildSpec) Metadata() freeze.Metadata {
	meta := freeze.Metadata{
		Family:        s.Family,
		NativeGateset: s.Target,
		Size:          s.Size,
		Parameters:    "symbolic",
	}
	fam, err := family.Lookup(s.Family)
	if err != nil {
		return meta
	}
	if fam.Parameterized {
		meta.Repetitions = s.Reps
		if !s.Symbolic {
			meta.Parameters = "numeric"
		}
	}
	if fam.Seeded {
		meta.Seed = s.Seed
	}
	meta.BuildOptions = map[string]any{
		"lowered": !(fam.Parameterized && s.Symbolic),
	}
	return meta
}

// Build constructs the spec's circuit: family builder, then lowering
// to the target basis for every variant that carries no symbolic
// parameters, then name sanitization. Symbolic variants freeze with
// the abstract gate vocabulary — lowering requires numeric angles.
func Build(spec BuildSpec) (*circuit.Circuit, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	fam, err := family.Lookup(spec.Family)
	if err != nil {
		return nil, err
	}
	target, err := gateset.Lookup(spec.Target)
	if err != nil {
		return nil, err
	}

	params := family.Params{
		Size:     spec.Size,
		Reps:     spec.Reps,
		Seed:     spec.Seed,
		Symbolic: fam.Parameterized && spec.Symbolic,
	}
	c, err := fam.Build(params)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", spec.Stem(), err)
	}
	if !params.Symbolic {
		if c, err = target.Lower(c); err != nil {
			return nil, fmt.Errorf("building %s: %w", spec.Stem(), err)
		}
	}
	return SanitizeNames(c), nil
}

// Generator freezes built circuits into a corpus and records every
// write in the corpus ledger.
type Generator struct {
	freezer *freeze.Freezer
	clock   clock.Clock
	logger  *slog.Logger
	tool    string
}

// NewGenerator returns a Generator. The tool string identifies this
// build in ledger records; a nil logger falls back to slog.Default.
func NewGenerator(clk clock.Clock, logger *slog.Logger, tool string) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		freezer: freeze.New(clk),
		clock:   clk,
		logger:  logger,
		tool:    tool,
	}
}

// Outcome is the result of freezing one spec.
type Outcome struct {
	Spec   BuildSpec
	Path   string
	Result freeze.Result
}

// Generate builds the spec and freezes it under root. Freezes that
// write bytes are appended to the corpus ledger; preserve hits and
// unchanged compares leave the ledger alone.
func (g *Generator) Generate(root string, spec BuildSpec, mode freeze.Mode) (Outcome, error) {
	c, err := Build(spec)
	if err != nil {
		return Outcome{Spec: spec}, err
	}

	path := spec.ArtifactPath(root)
	result, err := g.freezer.Freeze(path, c, spec.Metadata(), mode)
	if err != nil {
		return Outcome{Spec: spec, Path: path}, err
	}
	outcome := Outcome{Spec: spec, Path: path, Result: result}

	if result.Wrote() {
		info, err := os.Stat(path)
		if err != nil {
			return outcome, fmt.Errorf("stat after freeze: %w", err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return outcome, fmt.Errorf("relativizing %s: %w", path, err)
		}
		record := ledger.Record{
			Name:     filepath.ToSlash(rel),
			Digest:   result.Digest[:],
			Size:     info.Size(),
			FrozenAt: g.clock.Now().UTC().Format(time.RFC3339),
			Tool:     g.tool,
		}
		if err := ledger.Append(root, record); err != nil {
			return outcome, fmt.Errorf("recording freeze: %w", err)
		}
	}

	g.logger.Info("froze artifact",
		"artifact", spec.Filename(),
		"disposition", result.Disposition.String(),
		"digest", freeze.FormatDigest(result.Digest))
	return outcome, nil
}

// Summary collects the outcomes of a batch run.
type Summary struct {
	Outcomes []Outcome
}

// Written counts outcomes that wrote bytes.
func (s *Summary) Written() int {
	count := 0
	for _, o := range s.Outcomes {
		if o.Result.Wrote() {
			count++
		}
	}
	return count
}

// Replaced returns the outcomes that overwrote an existing artifact.
// Under compare mode these are the drifted artifacts.
func (s *Summary) Replaced() []Outcome {
	var replaced []Outcome
	for _, o := range s.Outcomes {
		if o.Result.Disposition == freeze.Replaced {
			replaced = append(replaced, o)
		}
	}
	return replaced
}

// GenerateAll freezes every spec in order. The first failure stops the
// run; outcomes up to that point are returned with the error.
func (g *Generator) GenerateAll(ctx context.Context, root string, specs []BuildSpec, mode freeze.Mode) (*Summary, error) {
	summary := &Summary{}
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := g.Generate(root, spec, mode)
		if err != nil {
			return summary, fmt.Errorf("generating %s: %w", spec.Stem(), err)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	return summary, nil
}
