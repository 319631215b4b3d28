// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package pairwise

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/passbench/passbench/lib/circuit"
	"github.com/passbench/passbench/lib/clock"
	"github.com/passbench/passbench/lib/discover"
	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/freeze"
	"github.com/passbench/passbench/lib/metrics"
	"github.com/passbench/passbench/lib/passes"
	"github.com/passbench/passbench/lib/results"
)

const (
	// timestampLayout stamps rows at second resolution, the grain
	// existing result sets use.
	timestampLayout = "2006-01-02T15:04:05"

	// dateLayout names the dated summary files.
	dateLayout = "2006-01-02"
)

// Engine runs pairwise comparisons. The clock stamps rows and names
// summary files; the logger receives per-scope progress and the soft
// skips that are logged rather than raised.
type Engine struct {
	clock  clock.Clock
	logger *slog.Logger
}

// New returns an Engine. A nil logger falls back to slog.Default.
func New(clk clock.Clock, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{clock: clk, logger: logger}
}

// Run executes every (gateset, family) scope in the params grid. Each
// scope is independent: a fatal error aborts that scope (its partial
// output remains — appends are the unit of durability) and cancels
// scopes that have not finished. The returned report always covers
// every scope; the error joins the scope failures, if any.
func (e *Engine) Run(ctx context.Context, p Params) (*Report, error) {
	p = p.withDefaults()

	// One date for the whole run, so a run that crosses midnight
	// keeps appending to the summary it opened.
	date := e.clock.Now().Format(dateLayout)

	report := &Report{}
	for _, gateset := range p.Gatesets {
		for _, fam := range p.Families {
			report.Scopes = append(report.Scopes, ScopeReport{Gateset: gateset, Family: fam})
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.Workers)
	for i := range report.Scopes {
		scope := &report.Scopes[i]
		group.Go(func() error {
			if err := e.runScope(ctx, scope, p, date); err != nil {
				scope.Err = fmt.Errorf("scope %s/%s: %w", scope.Gateset, scope.Family, err)
				return scope.Err
			}
			return nil
		})
	}
	group.Wait()
	return report, report.Err()
}

func (e *Engine) runScope(ctx context.Context, scope *ScopeReport, p Params, date string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := e.logger.With("gateset", scope.Gateset, "family", scope.Family)

	// Unknown families still get scanned — their scope is simply
	// empty unless artifacts exist on disk — but they resolve no
	// variant fields from filenames.
	parameterized, seeded := false, false
	if fam, err := family.Lookup(scope.Family); err == nil {
		parameterized, seeded = fam.Parameterized, fam.Seeded
	}

	// The summary sink opens before discovery: an empty scope still
	// leaves a dated, headed summary file.
	summaryPath := results.SummaryPath(p.ResultsRoot, scope.Gateset, scope.Family, date)
	sink, err := results.OpenSummary(summaryPath, p.FreshSummary)
	if err != nil {
		return err
	}
	sinkClosed := false
	defer func() {
		if !sinkClosed {
			sink.Close()
		}
	}()

	found, orphans, err := discover.Find(p.CircuitsRoot, scope.Gateset, scope.Family)
	if err != nil {
		return err
	}
	scope.Artifacts = len(found)
	scope.Orphans = len(orphans)
	for _, orphan := range orphans {
		logger.Warn("artifact has no metadata sidecar", "path", orphan)
	}

	sizeSet := toSet(p.Sizes)
	repsSet := toSet(p.Reps)
	seedSet := toSet(p.Seeds)

	for _, pair := range found {
		if err := ctx.Err(); err != nil {
			return err
		}
		basename := filepath.Base(pair.Artifact)

		// Malformed sidecar content is fatal for the scope; a
		// missing one never reaches here (discovery lists it as an
		// orphan instead).
		meta, err := freeze.LoadMetadata(pair.Meta)
		if err != nil {
			return err
		}

		size := discover.ResolveSize(meta, basename)
		if size == 0 {
			scope.Skipped++
			logger.Debug("size unresolved, skipping", "artifact", basename)
			continue
		}
		if len(sizeSet) > 0 && !sizeSet[size] {
			scope.Skipped++
			logger.Debug("filtered by size", "artifact", basename, "size", size)
			continue
		}

		reps, seed, tag := discover.ResolveVariant(meta, basename, parameterized, seeded)
		if parameterized && len(repsSet) > 0 && (reps == 0 || !repsSet[reps]) {
			scope.Skipped++
			logger.Debug("filtered by repetitions", "artifact", basename, "reps", reps)
			continue
		}
		if seeded && len(seedSet) > 0 && (seed == 0 || !seedSet[seed]) {
			scope.Skipped++
			logger.Debug("filtered by seed", "artifact", basename, "seed", seed)
			continue
		}
		// The symbolic filter fails open: only an explicit numeric
		// tag excludes. An undeterminable tag passes, unlike the
		// reps/seed filters above.
		if p.SymbolicOnly && tag == "num" {
			scope.Skipped++
			logger.Debug("filtered by parameter mode", "artifact", basename)
			continue
		}

		variant := discover.VariantString(parameterized, seeded, reps, seed, tag)

		trialDir := results.TrialDir(p.ResultsRoot, scope.Gateset, scope.Family, size)
		if err := os.MkdirAll(trialDir, 0o755); err != nil {
			return fmt.Errorf("creating trial directory: %w", err)
		}

		// The baseline loads and measures once per artifact; every
		// pair and direction shares it read-only.
		base, err := circuit.ReadFile(pair.Artifact)
		if err != nil {
			return err
		}
		before := metrics.Take(base)

		for _, pp := range p.Pairs {
			passA, passB := pp[0], pp[1]
			for _, direction := range p.Directions {
				if err := ctx.Err(); err != nil {
					return err
				}

				trialPath := results.TrialPath(p.ResultsRoot, scope.Gateset, scope.Family,
					size, variant, passA, passB, direction.String())
				if p.SkipExisting && fileExists(trialPath) {
					scope.SkippedExisting++
					logger.Debug("trial output exists, skipping", "trial", filepath.Base(trialPath))
					continue
				}

				after, err := passes.Sequence(base, direction.Sequence(passA, passB)...)
				if err != nil {
					return err
				}

				if !p.NoDebugDumps {
					if err := writeDumps(trialPath, base, after); err != nil {
						logger.Warn("debug dump write failed",
							"trial", filepath.Base(trialPath), "error", err)
					}
				}

				row := results.Row{
					Timestamp: e.clock.Now().Format(timestampLayout),
					Gateset:   scope.Gateset,
					Family:    scope.Family,
					Size:      size,
					Variant:   variant,
					PassA:     passA,
					PassB:     passB,
					Direction: direction.String(),
					Before:    before,
					After:     metrics.Take(after),
				}
				if err := results.WriteTrial(trialPath, row); err != nil {
					return err
				}
				if err := sink.Append(row); err != nil {
					return err
				}
				scope.Trials++
			}
		}
	}

	sinkClosed = true
	if err := sink.Close(); err != nil {
		return err
	}

	logger.Info("scope complete",
		"artifacts", scope.Artifacts,
		"trials", scope.Trials,
		"skipped", scope.Skipped,
		"orphans", scope.Orphans)
	return nil
}

// writeDumps persists the before/after circuits next to the trial CSV
// for debugging. Callers treat a failure as a warning: the trial's row
// is still recorded.
func writeDumps(trialPath string, before, after *circuit.Circuit) error {
	base := strings.TrimSuffix(trialPath, ".csv")

	beforeBytes, err := before.EncodeBytes()
	if err != nil {
		return fmt.Errorf("encoding before dump: %w", err)
	}
	afterBytes, err := after.EncodeBytes()
	if err != nil {
		return fmt.Errorf("encoding after dump: %w", err)
	}
	if err := os.WriteFile(base+"__before"+freeze.ArtifactExt, beforeBytes, 0o644); err != nil {
		return fmt.Errorf("writing before dump: %w", err)
	}
	if err := os.WriteFile(base+"__after"+freeze.ArtifactExt, afterBytes, 0o644); err != nil {
		return fmt.Errorf("writing after dump: %w", err)
	}
	return nil
}

func toSet[T comparable](values []T) map[T]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
