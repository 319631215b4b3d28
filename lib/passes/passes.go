// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package passes holds the closed registry of circuit transformation
// passes and the sequencer that applies them. The registry is fixed at
// compile time: the pairwise engine enumerates pass pairs from it, and
// that enumeration must be stable across runs, so the set is not
// extensible at runtime.
//
// Three passes are registered:
//
//   - RB: removes every barrier directive.
//   - RR: removes gate/inverse pairs, merges adjacent same-axis
//     rotations, and drops identity rotations. Adjacency is per qubit,
//     so unrelated ops in between do not block a match, but barriers,
//     measurements, and resets on a shared qubit do.
//   - CTM: commutes single-qubit gates toward the front of the circuit
//     through multi-qubit gates they commute with (diagonal gates
//     through controls, X-axis gates through targets).
//
// Passes mutate the circuit they are handed. Sequence therefore clones
// before applying anything; callers' circuits are never touched.
package passes

import (
	"fmt"

	"github.com/passbench/passbench/lib/circuit"
)

// A Pass rewrites a circuit in place.
type Pass func(c *circuit.Circuit)

var registry = map[string]Pass{
	"RB":  removeBarriers,
	"RR":  removeRedundancies,
	"CTM": commuteThroughMultis,
}

// registryOrder fixes the enumeration order for Names and Pairs.
// Result filenames embed pair names in this order, so changing it
// renames every future trial file.
var registryOrder = []string{"RB", "RR", "CTM"}

// Names returns the registered pass names in registry order.
func Names() []string {
	names := make([]string, len(registryOrder))
	copy(names, registryOrder)
	return names
}

// Known reports whether name is a registered pass.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Sequence applies the named passes in order to a clone of c and
// returns the clone. Every name is validated against the registry
// before anything runs; an unknown name is a hard error and leaves c
// untouched.
func Sequence(c *circuit.Circuit, names ...string) (*circuit.Circuit, error) {
	for _, name := range names {
		if !Known(name) {
			return nil, fmt.Errorf("unknown transformation %q (registry: %v)", name, Names())
		}
	}
	out := c.Clone()
	for _, name := range names {
		registry[name](out)
	}
	return out, nil
}

// Pairs expands a set of pass names into its unordered pairs (i<j),
// preserving the order the names were given in; duplicates are
// ignored. Calling it with nil uses the full registry, which yields
// the canonical default pair set RB-RR, RB-CTM, RR-CTM.
func Pairs(names []string) [][2]string {
	if names == nil {
		names = Names()
	}
	seen := make(map[string]bool)
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}

	var pairs [][2]string
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			pairs = append(pairs, [2]string{unique[i], unique[j]})
		}
	}
	return pairs
}
