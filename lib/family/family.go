// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package family provides the circuit family builders: named,
// deterministic constructors that turn a size (plus repetitions, seed,
// and parameter mode where the family supports them) into a circuit.
// Builders emit the abstract gate vocabulary (h, cx, rzz, cp, ccx,
// ...); compilation to a native gateset happens later. Parameterized
// families name their angles with the greek symbols the mathematical
// notation uses (γ, β, θ); the generator's sanitizer rewrites those
// into plain identifiers before anything is frozen.
//
// Every builder ends its circuit with a full-register barrier followed
// by measurement of the data qubits.
package family

import (
	"fmt"
	"sort"

	"github.com/passbench/passbench/lib/circuit"
)

// Params carries the build inputs a family can consume. Families
// ignore fields they are not declared to use.
type Params struct {
	Size     int
	Reps     int
	Seed     int64
	Symbolic bool
}

// Family describes one registered circuit family.
type Family struct {
	Name string

	// Parameterized families take a repetition count and exist in
	// symbolic and numeric variants.
	Parameterized bool

	// Seeded families take a randomness seed (qaoa only: the seed
	// shapes the interaction graph and the numeric angles).
	Seeded bool

	// MinSize is the smallest valid Size.
	MinSize int

	// Build constructs the circuit. Params are validated first via
	// Validate.
	Build func(p Params) (*circuit.Circuit, error)
}

// Validate checks p against the family's declared inputs.
func (f *Family) Validate(p Params) error {
	if p.Size < f.MinSize {
		return fmt.Errorf("family %s: size %d below minimum %d", f.Name, p.Size, f.MinSize)
	}
	if f.Parameterized && p.Reps < 1 {
		return fmt.Errorf("family %s: repetitions %d, need at least 1", f.Name, p.Reps)
	}
	if f.Name == "vbe_adder" && p.Size%3 != 1 {
		return fmt.Errorf("family %s: size %d not of form 3k+1", f.Name, p.Size)
	}
	return nil
}

var registry = map[string]*Family{}

func register(f *Family) *Family {
	registry[f.Name] = f
	return f
}

// Lookup resolves a family by name.
func Lookup(name string) (*Family, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown family %q (known: %v)", name, Names())
	}
	return f, nil
}

// Names returns the registered family names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
