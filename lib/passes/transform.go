// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"math"
	"slices"

	"github.com/passbench/passbench/lib/circuit"
)

// removeBarriers drops every barrier directive. Measurements and
// resets are untouched.
func removeBarriers(c *circuit.Circuit) {
	out := make([]circuit.Op, 0, len(c.Ops))
	for _, op := range c.Ops {
		if op.Name != circuit.OpBarrier {
			out = append(out, op)
		}
	}
	c.Ops = out
}

// selfInverse lists parameterless gates that square to the identity;
// an adjacent equal pair on the same qubit list cancels.
var selfInverse = map[string]bool{
	"h": true, "x": true, "y": true, "z": true,
	"cx": true, "cz": true, "swap": true, "ccx": true,
}

// rotationPeriod gives, per mergeable rotation gate, the half-turn
// period at which it becomes the exact identity.
var rotationPeriod = map[string]float64{
	"rz": 4, "rx": 4, "ry": 4, "rzz": 4, "cp": 2, "p": 2,
}

const identityEps = 1e-12

func identityAngle(halfTurns, period float64) bool {
	m := math.Mod(halfTurns, period)
	if m < 0 {
		m += period
	}
	return m < identityEps || period-m < identityEps
}

// removeRedundancies cancels gate/inverse pairs, merges adjacent
// same-axis rotations, and drops identity rotations, repeating until
// nothing changes. Adjacency is per qubit: two gates match when the
// earlier one is the most recent op on every qubit of the later one,
// so ops on disjoint qubits never block a match, while any directive
// on a shared qubit does.
func removeRedundancies(c *circuit.Circuit) {
	for removeRedundanciesOnce(c) {
	}
}

func removeRedundanciesOnce(c *circuit.Circuit) bool {
	out := make([]circuit.Op, 0, len(c.Ops))
	dead := make([]bool, 0, len(c.Ops))
	stacks := make([][]int, c.Qubits)
	changed := false

	push := func(index int, qubits []int) {
		for _, q := range qubits {
			stacks[q] = append(stacks[q], index)
		}
	}
	pop := func(index int) {
		for _, q := range out[index].Qubits {
			stacks[q] = stacks[q][:len(stacks[q])-1]
		}
	}
	// candidate returns the out-index of the op that is on top of the
	// stack for every listed qubit and has exactly that qubit list,
	// or -1 when no such op exists.
	candidate := func(qubits []int) int {
		found := -1
		for _, q := range qubits {
			s := stacks[q]
			if len(s) == 0 {
				return -1
			}
			top := s[len(s)-1]
			if found == -1 {
				found = top
			} else if found != top {
				return -1
			}
		}
		if found >= 0 && !slices.Equal(out[found].Qubits, qubits) {
			return -1
		}
		return found
	}

	for _, op := range c.Ops {
		if op.Directive() {
			out = append(out, op)
			dead = append(dead, false)
			push(len(out)-1, op.Qubits)
			continue
		}

		// Identity rotations drop on sight.
		if period, ok := rotationPeriod[op.Name]; ok &&
			len(op.Params) == 1 && !op.Params[0].Symbolic() &&
			identityAngle(op.Params[0].Value, period) {
			changed = true
			continue
		}

		previous := candidate(op.Qubits)
		if previous >= 0 && out[previous].Name == op.Name {
			if selfInverse[op.Name] && len(op.Params) == 0 {
				pop(previous)
				dead[previous] = true
				changed = true
				continue
			}
			if period, ok := rotationPeriod[op.Name]; ok &&
				len(op.Params) == 1 && len(out[previous].Params) == 1 &&
				!op.Params[0].Symbolic() && !out[previous].Params[0].Symbolic() {
				sum := out[previous].Params[0].Value + op.Params[0].Value
				if identityAngle(sum, period) {
					pop(previous)
					dead[previous] = true
				} else {
					out[previous].Params = []circuit.Param{circuit.Num(sum)}
				}
				changed = true
				continue
			}
		}

		out = append(out, op)
		dead = append(dead, false)
		push(len(out)-1, op.Qubits)
	}

	if !changed {
		return false
	}
	kept := make([]circuit.Op, 0, len(out))
	for i, op := range out {
		if !dead[i] {
			kept = append(kept, op)
		}
	}
	c.Ops = kept
	return true
}

// gateAxis classifies single-qubit gates by commutation axis:
// Z-axis (diagonal) gates commute through control qubits and through
// fully diagonal two-qubit gates, X-axis gates through cx/ccx targets.
var gateAxis = map[string]byte{
	"rz": 'z', "z": 'z', "s": 'z', "sdg": 'z', "t": 'z', "tdg": 'z', "p": 'z',
	"rx": 'x', "x": 'x', "sx": 'x',
}

// multiAxis returns the commutation axis at qubit q of multi-qubit
// gate op, or 0 when nothing commutes there.
func multiAxis(op circuit.Op, q int) byte {
	switch op.Name {
	case "cx":
		if op.Qubits[0] == q {
			return 'z'
		}
		return 'x'
	case "ccx":
		if op.Qubits[2] == q {
			return 'x'
		}
		return 'z'
	case "cz", "rzz", "cp":
		return 'z'
	}
	return 0
}

// commuteThroughMultis slides single-qubit gates toward the front of
// the op list, one multi-qubit gate at a time, whenever the
// commutation table allows it. Gate counts never change; list order
// (and therefore what removeRedundancies can match afterwards) does.
// Directives and non-commuting gates block the slide.
func commuteThroughMultis(c *circuit.Circuit) {
	for moved := true; moved; {
		moved = false
		for i := 1; i < len(c.Ops); i++ {
			op := c.Ops[i]
			axis, ok := gateAxis[op.Name]
			if !ok || len(op.Qubits) != 1 {
				continue
			}
			previous := c.Ops[i-1]
			if previous.Directive() || len(previous.Qubits) < 2 {
				continue
			}
			q := op.Qubits[0]
			if !slices.Contains(previous.Qubits, q) {
				continue
			}
			if multiAxis(previous, q) != axis {
				continue
			}
			c.Ops[i-1], c.Ops[i] = op, previous
			moved = true
		}
	}
}
