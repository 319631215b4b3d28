// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package pairwise runs the pass-interaction benchmark: for every
// discovered artifact in a (gateset, family) scope it applies ordered
// pass pairs to a shared baseline, snapshots metrics before and after,
// and writes one comparison row per trial to a per-trial CSV and the
// scope's dated aggregate summary.
//
// Scopes are independent — each owns its summary sink and no artifact
// is ever transformed in place — so the engine can run them on a
// worker pool. Within a scope, trials run sequentially and append to
// the summary in discovery order.
package pairwise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/passbench/passbench/lib/passes"
)

// Direction orders a pass pair within one trial.
type Direction int

const (
	// AThenB applies passA before passB.
	AThenB Direction = iota
	// BThenA applies passB before passA.
	BThenA
)

// String returns the direction tag used in filenames and rows.
func (d Direction) String() string {
	if d == BThenA {
		return "B_then_A"
	}
	return "A_then_B"
}

// Sequence returns the ordered pass names for a pair under this
// direction.
func (d Direction) Sequence(a, b string) []string {
	if d == BThenA {
		return []string{b, a}
	}
	return []string{a, b}
}

// ParseDirections parses a direction policy: "both", "A_then_B", or
// "B_then_A".
func ParseDirections(policy string) ([]Direction, error) {
	switch policy {
	case "both":
		return []Direction{AThenB, BThenA}, nil
	case "A_then_B":
		return []Direction{AThenB}, nil
	case "B_then_A":
		return []Direction{BThenA}, nil
	default:
		return nil, fmt.Errorf("unknown direction %q (valid: both, A_then_B, B_then_A)", policy)
	}
}

// ParsePairs parses a pair list of the form "RB-RR,RB-CTM". Pair
// membership is not validated here — an unknown pass name surfaces as
// a hard error when the scope first sequences it.
func ParsePairs(spec string) ([][2]string, error) {
	var pairs [][2]string
	for _, part := range strings.Split(spec, ",") {
		if part == "" {
			continue
		}
		a, b, ok := strings.Cut(part, "-")
		if !ok || a == "" || b == "" {
			return nil, fmt.Errorf("malformed pair %q (want A-B)", part)
		}
		pairs = append(pairs, [2]string{a, b})
	}
	return pairs, nil
}

// Params configures one engine run.
type Params struct {
	// CircuitsRoot is the frozen-corpus root the scopes discover
	// artifacts under.
	CircuitsRoot string

	// ResultsRoot receives trial CSVs, debug dumps, and summaries.
	ResultsRoot string

	// Gatesets and Families define the scope grid; every combination
	// is one scope.
	Gatesets []string
	Families []string

	// Sizes, Reps, and Seeds restrict which artifacts participate.
	// An empty slice means no restriction. Reps applies only to
	// parameterized families, Seeds only to seeded ones.
	Sizes []int
	Reps  []int
	Seeds []int64

	// SymbolicOnly keeps only artifacts tagged symbolic. Artifacts
	// whose parameter mode cannot be determined are admitted — this
	// filter alone fails open, a long-standing asymmetry that
	// existing result sets depend on.
	SymbolicOnly bool

	// Pairs is the pass pair set; nil means every pair from the
	// registry. Directions is the per-pair ordering policy; nil
	// means both orderings.
	Pairs      [][2]string
	Directions []Direction

	// SkipExisting skips any trial whose per-trial CSV already
	// exists: no recomputation, no aggregate row. Off by default, so
	// re-running a scope recomputes and re-appends every trial.
	SkipExisting bool

	// FreshSummary truncates the scope's dated summary instead of
	// appending to it.
	FreshSummary bool

	// NoDebugDumps suppresses the before/after circuit dumps written
	// next to each trial CSV.
	NoDebugDumps bool

	// Workers bounds how many scopes run concurrently. Zero or one
	// runs scopes sequentially in grid order.
	Workers int
}

// withDefaults fills the open policy fields.
func (p Params) withDefaults() Params {
	if p.Pairs == nil {
		p.Pairs = passes.Pairs(nil)
	}
	if p.Directions == nil {
		p.Directions = []Direction{AThenB, BThenA}
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return p
}

// ScopeReport accounts for one (gateset, family) scope.
type ScopeReport struct {
	Gateset string
	Family  string

	// Artifacts counts discovered artifact/sidecar pairs; Orphans
	// counts artifacts skipped for lack of a sidecar.
	Artifacts int
	Orphans   int

	// Skipped counts soft-skipped artifacts (unresolved size or
	// unmet filter). SkippedExisting counts trials elided under
	// skip-existing.
	Skipped         int
	SkippedExisting int

	// Trials counts comparison rows written.
	Trials int

	// Err is the scope's fatal error, nil when it completed. A
	// scope aborted by another scope's failure carries the
	// cancellation error.
	Err error
}

// Report is the outcome of an engine run.
type Report struct {
	Scopes []ScopeReport
}

// Trials sums rows written across scopes.
func (r *Report) Trials() int {
	total := 0
	for _, s := range r.Scopes {
		total += s.Trials
	}
	return total
}

// Err joins every scope failure. Callers surface it whole — a fatal
// scope error is never silently dropped.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Scopes {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}
