// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"fmt"
	"slices"
)

// Directive op names. Directives shape execution (timing, readout,
// initialization) but are not structural gates: passes and metrics treat
// them separately from the unitary part of a circuit.
const (
	OpBarrier = "barrier"
	OpMeasure = "measure"
	OpReset   = "reset"
)

// Param is one gate angle: either a symbolic placeholder (Name != "") or
// a numeric value in half-turns. Exactly one of the two forms is valid at
// a time; Symbolic reports which.
type Param struct {
	// Name is the placeholder identifier for symbolic params, for
	// example "gamma[0]". Empty for numeric params.
	Name string

	// Value is the angle in half-turns (multiples of pi). Only
	// meaningful when Name is empty.
	Value float64
}

// Sym returns a symbolic param with the given placeholder name.
func Sym(name string) Param { return Param{Name: name} }

// Num returns a numeric param with the given angle in half-turns.
func Num(halfTurns float64) Param { return Param{Value: halfTurns} }

// Symbolic reports whether the param is a named placeholder rather than
// a concrete angle.
func (p Param) Symbolic() bool { return p.Name != "" }

func (p Param) String() string {
	if p.Symbolic() {
		return p.Name
	}
	return fmt.Sprintf("%g", p.Value)
}

// Op is a single operation: a structural gate or a directive. Qubits are
// indices into the circuit's qubit register. Bits are classical bit
// targets and are only populated for measure ops.
type Op struct {
	Name   string
	Qubits []int
	Bits   []int
	Params []Param
}

// Directive reports whether the op is a barrier, measure, or reset.
func (o Op) Directive() bool {
	return o.Name == OpBarrier || o.Name == OpMeasure || o.Name == OpReset
}

// Symbolic reports whether any param of the op is symbolic.
func (o Op) Symbolic() bool {
	for _, p := range o.Params {
		if p.Symbolic() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the op.
func (o Op) Clone() Op {
	return Op{
		Name:   o.Name,
		Qubits: slices.Clone(o.Qubits),
		Bits:   slices.Clone(o.Bits),
		Params: slices.Clone(o.Params),
	}
}

// Circuit is an ordered operation list over Qubits qubits and Bits
// classical bits. The zero value is an empty zero-width circuit; use New
// for anything real.
type Circuit struct {
	Qubits int
	Bits   int
	Ops    []Op
}

// New returns an empty circuit with the given register sizes.
func New(qubits, bits int) *Circuit {
	return &Circuit{Qubits: qubits, Bits: bits}
}

// Clone returns a deep copy. Mutating the copy never affects the
// original; passes rely on this.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{Qubits: c.Qubits, Bits: c.Bits, Ops: make([]Op, len(c.Ops))}
	for i, op := range c.Ops {
		out.Ops[i] = op.Clone()
	}
	return out
}

// Apply appends an arbitrary operation. The typed helpers below cover
// the gate set the generators use; Apply is the escape hatch for
// everything else (lowering rules, tests).
func (c *Circuit) Apply(op Op) { c.Ops = append(c.Ops, op) }

func (c *Circuit) gate(name string, qubits []int, params ...Param) {
	c.Ops = append(c.Ops, Op{Name: name, Qubits: qubits, Params: params})
}

// H appends a Hadamard gate.
func (c *Circuit) H(q int) { c.gate("h", []int{q}) }

// X appends a Pauli-X gate.
func (c *Circuit) X(q int) { c.gate("x", []int{q}) }

// SX appends a sqrt(X) gate.
func (c *Circuit) SX(q int) { c.gate("sx", []int{q}) }

// RX appends an X-axis rotation.
func (c *Circuit) RX(q int, angle Param) { c.gate("rx", []int{q}, angle) }

// RY appends a Y-axis rotation.
func (c *Circuit) RY(q int, angle Param) { c.gate("ry", []int{q}, angle) }

// RZ appends a Z-axis rotation.
func (c *Circuit) RZ(q int, angle Param) { c.gate("rz", []int{q}, angle) }

// CX appends a controlled-X gate with control a and target b.
func (c *Circuit) CX(a, b int) { c.gate("cx", []int{a, b}) }

// CP appends a controlled-phase gate.
func (c *Circuit) CP(a, b int, angle Param) { c.gate("cp", []int{a, b}, angle) }

// RZZ appends a two-qubit ZZ interaction.
func (c *Circuit) RZZ(a, b int, angle Param) { c.gate("rzz", []int{a, b}, angle) }

// Swap appends a swap gate.
func (c *Circuit) Swap(a, b int) { c.gate("swap", []int{a, b}) }

// CCX appends a Toffoli gate with controls a, b and target t.
func (c *Circuit) CCX(a, b, t int) { c.gate("ccx", []int{a, b, t}) }

// Barrier appends a barrier over the given qubits, or over the full
// register when called with no arguments.
func (c *Circuit) Barrier(qubits ...int) {
	if len(qubits) == 0 {
		qubits = make([]int, c.Qubits)
		for i := range qubits {
			qubits[i] = i
		}
	}
	c.Ops = append(c.Ops, Op{Name: OpBarrier, Qubits: qubits})
}

// Measure appends a measurement of qubit q into classical bit b.
func (c *Circuit) Measure(q, b int) {
	c.Ops = append(c.Ops, Op{Name: OpMeasure, Qubits: []int{q}, Bits: []int{b}})
}

// MeasureAll measures every qubit into the classical bit of the same
// index. The bit register must be at least as wide as the qubit
// register.
func (c *Circuit) MeasureAll() {
	for q := 0; q < c.Qubits; q++ {
		c.Measure(q, q)
	}
}

// Reset appends a reset of qubit q to |0>.
func (c *Circuit) Reset(q int) {
	c.Ops = append(c.Ops, Op{Name: OpReset, Qubits: []int{q}})
}

// Symbolic reports whether any op in the circuit carries a symbolic
// param.
func (c *Circuit) Symbolic() bool {
	for _, op := range c.Ops {
		if op.Symbolic() {
			return true
		}
	}
	return false
}

// Bind returns a copy of the circuit with every symbolic param replaced
// by its value from bindings (in half-turns). It is an error for a
// symbolic param to have no binding; unused bindings are ignored.
func (c *Circuit) Bind(bindings map[string]float64) (*Circuit, error) {
	out := c.Clone()
	for i := range out.Ops {
		for j, p := range out.Ops[i].Params {
			if !p.Symbolic() {
				continue
			}
			value, ok := bindings[p.Name]
			if !ok {
				return nil, fmt.Errorf("binding circuit: no value for symbol %q", p.Name)
			}
			out.Ops[i].Params[j] = Num(value)
		}
	}
	return out, nil
}

// CountOps returns the number of occurrences of each op name.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, op := range c.Ops {
		counts[op.Name]++
	}
	return counts
}

// Depth returns the number of parallel timesteps needed to execute the
// circuit. Structural gates and measure/reset occupy one slot on each of
// their qubits. Barriers take no slot but synchronize their qubits: no
// op after the barrier may be scheduled before one that precedes it on
// any shared qubit.
func (c *Circuit) Depth() int {
	if c.Qubits == 0 {
		return 0
	}
	level := make([]int, c.Qubits)
	depth := 0
	for _, op := range c.Ops {
		front := 0
		for _, q := range op.Qubits {
			if level[q] > front {
				front = level[q]
			}
		}
		if op.Name == OpBarrier {
			for _, q := range op.Qubits {
				level[q] = front
			}
			continue
		}
		for _, q := range op.Qubits {
			level[q] = front + 1
		}
		if front+1 > depth {
			depth = front + 1
		}
	}
	return depth
}

// Validate checks structural integrity: register sizes non-negative,
// op names non-empty, qubit and bit indices in range, and no op with an
// empty qubit list.
func (c *Circuit) Validate() error {
	if c.Qubits < 0 || c.Bits < 0 {
		return fmt.Errorf("negative register size (qubits=%d bits=%d)", c.Qubits, c.Bits)
	}
	for i, op := range c.Ops {
		if op.Name == "" {
			return fmt.Errorf("op %d: empty name", i)
		}
		if len(op.Qubits) == 0 {
			return fmt.Errorf("op %d (%s): no qubits", i, op.Name)
		}
		for _, q := range op.Qubits {
			if q < 0 || q >= c.Qubits {
				return fmt.Errorf("op %d (%s): qubit %d out of range [0,%d)", i, op.Name, q, c.Qubits)
			}
		}
		for _, b := range op.Bits {
			if b < 0 || b >= c.Bits {
				return fmt.Errorf("op %d (%s): bit %d out of range [0,%d)", i, op.Name, b, c.Bits)
			}
		}
	}
	return nil
}
