// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateset defines the native gate bases circuits are compiled
// to before freezing, and the rewrite rules that lower the generator
// gate vocabulary into each basis.
//
// Two hardware-shaped targets are supported: ibm_falcon (rz, sx, x, cx)
// and quantinuum (rx, ry, rz, rzz). Lowering is rule-driven: each
// non-native gate expands into a fixed sequence that is correct up to
// global phase, and expansion repeats until only basis gates and
// directives remain. Angles are numeric half-turns throughout; symbolic
// circuits must be bound before lowering.
package gateset

import (
	"fmt"
	"math"
	"sort"

	"github.com/passbench/passbench/lib/circuit"
)

// Target is one native gateset.
type Target struct {
	Name  string
	basis map[string]bool
	rules map[string]rule
}

// A rule expands one gate into an equivalent sequence. The sequence
// may contain non-native gates; Lower keeps expanding until it
// bottoms out in the basis.
type rule func(op circuit.Op) ([]circuit.Op, error)

var targets = map[string]*Target{
	IBMFalcon.Name:  IBMFalcon,
	Quantinuum.Name: Quantinuum,
}

// Lookup resolves a target by name.
func Lookup(name string) (*Target, error) {
	t, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown gateset %q (known: %v)", name, Names())
	}
	return t, nil
}

// Names returns the known target names, sorted.
func Names() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Member reports whether the named gate is native to the target.
func (t *Target) Member(name string) bool { return t.basis[name] }

// maxExpandDepth caps recursive rule expansion. The deepest real chain
// (ccx through h and t down to the basis) is three levels; anything
// near the cap indicates a rule cycle.
const maxExpandDepth = 16

// Lower rewrites every structural gate into the target basis.
// Directives pass through untouched. The input is not modified. Errors
// on symbolic parameters and on gates with no lowering rule.
func (t *Target) Lower(c *circuit.Circuit) (*circuit.Circuit, error) {
	if c.Symbolic() {
		return nil, fmt.Errorf("lowering to %s: circuit has symbolic parameters (bind first)", t.Name)
	}
	out := circuit.New(c.Qubits, c.Bits)
	for i, op := range c.Ops {
		lowered, err := t.lowerOp(op, 0)
		if err != nil {
			return nil, fmt.Errorf("lowering to %s: op %d: %w", t.Name, i, err)
		}
		out.Ops = append(out.Ops, lowered...)
	}
	return out, nil
}

func (t *Target) lowerOp(op circuit.Op, depth int) ([]circuit.Op, error) {
	if op.Directive() {
		return []circuit.Op{op.Clone()}, nil
	}
	if t.basis[op.Name] {
		return t.emit(op), nil
	}
	if depth >= maxExpandDepth {
		return nil, fmt.Errorf("gate %q: expansion exceeds depth %d", op.Name, maxExpandDepth)
	}

	expand := t.rules[op.Name]
	if expand == nil {
		expand = genericRules[op.Name]
	}
	if expand == nil {
		return nil, fmt.Errorf("gate %q: no lowering rule", op.Name)
	}
	sequence, err := expand(op)
	if err != nil {
		return nil, fmt.Errorf("gate %q: %w", op.Name, err)
	}

	var out []circuit.Op
	for _, sub := range sequence {
		lowered, err := t.lowerOp(sub, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

// emit copies a native gate into the output, normalizing numeric
// rotation angles into [0, 2) half-turns (equivalent up to global
// phase) and dropping rotations that normalize to zero.
func (t *Target) emit(op circuit.Op) []circuit.Op {
	copied := op.Clone()
	if _, rotates := rotationGates[op.Name]; rotates && len(copied.Params) == 1 {
		angle := normalizeHalfTurns(copied.Params[0].Value)
		if angle == 0 {
			return nil
		}
		copied.Params[0] = circuit.Num(angle)
	}
	return []circuit.Op{copied}
}

var rotationGates = map[string]struct{}{
	"rz": {}, "rx": {}, "ry": {}, "rzz": {},
}

func normalizeHalfTurns(t float64) float64 {
	m := math.Mod(t, 2)
	if m < 0 {
		m += 2
	}
	return m
}
