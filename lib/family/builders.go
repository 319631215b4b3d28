// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package family

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/passbench/passbench/lib/circuit"
)

// QAOA builds the maxcut ansatz over a seeded random graph: an initial
// Hadamard layer, then per repetition a γ-weighted rzz on every graph
// edge and a β-weighted rx mixer on every qubit. The seed fixes both
// the graph (each pair drawn with probability 1/2) and, for the
// numeric variant, the angle values.
var QAOA = register(&Family{
	Name:          "qaoa",
	Parameterized: true,
	Seeded:        true,
	MinSize:       2,
	Build: func(p Params) (*circuit.Circuit, error) {
		rng := rand.New(rand.NewSource(p.Seed))

		type edge struct{ u, v int }
		var edges []edge
		for u := 0; u < p.Size; u++ {
			for v := u + 1; v < p.Size; v++ {
				if rng.Float64() < 0.5 {
					edges = append(edges, edge{u, v})
				}
			}
		}

		c := circuit.New(p.Size, p.Size)
		for q := 0; q < p.Size; q++ {
			c.H(q)
		}
		bindings := make(map[string]float64)
		for layer := 0; layer < p.Reps; layer++ {
			gamma := fmt.Sprintf("γ[%d]", layer)
			beta := fmt.Sprintf("β[%d]", layer)
			bindings[gamma] = 2 * rng.Float64()
			bindings[beta] = 2 * rng.Float64()
			for _, e := range edges {
				c.RZZ(e.u, e.v, circuit.Sym(gamma))
			}
			for q := 0; q < p.Size; q++ {
				c.RX(q, circuit.Sym(beta))
			}
		}
		c.Barrier()
		c.MeasureAll()
		if p.Symbolic {
			return c, nil
		}
		return c.Bind(bindings)
	},
})

// VQE2L builds a two-local variational ansatz: θ-weighted ry rotation
// layers separated by linear cx entanglers, with a closing rotation
// layer. The numeric variant binds a fixed cycle of eighth-turn
// angles; the family takes no seed.
var VQE2L = register(&Family{
	Name:          "vqe2l",
	Parameterized: true,
	MinSize:       2,
	Build: func(p Params) (*circuit.Circuit, error) {
		c := circuit.New(p.Size, p.Size)
		bindings := make(map[string]float64)
		next := 0
		rotationLayer := func() {
			for q := 0; q < p.Size; q++ {
				name := fmt.Sprintf("θ[%d]", next)
				bindings[name] = 0.125 * float64(next%8+1)
				c.RY(q, circuit.Sym(name))
				next++
			}
		}
		for layer := 0; layer < p.Reps; layer++ {
			rotationLayer()
			for q := 0; q < p.Size-1; q++ {
				c.CX(q, q+1)
			}
		}
		rotationLayer()
		c.Barrier()
		c.MeasureAll()
		if p.Symbolic {
			return c, nil
		}
		return c.Bind(bindings)
	},
})

// QFT builds the quantum Fourier transform: per qubit a Hadamard and a
// ladder of controlled phases halving at each step, then the
// bit-reversal swap network.
var QFT = register(&Family{
	Name:    "qft",
	MinSize: 1,
	Build: func(p Params) (*circuit.Circuit, error) {
		c := circuit.New(p.Size, p.Size)
		for i := 0; i < p.Size; i++ {
			c.H(i)
			for j := i + 1; j < p.Size; j++ {
				c.CP(j, i, circuit.Num(math.Ldexp(1, i-j)))
			}
		}
		for i := 0; i < p.Size/2; i++ {
			c.Swap(i, p.Size-1-i)
		}
		c.Barrier()
		c.MeasureAll()
		return c, nil
	},
})

/// GHZ builds the n-qubit GHZ state: one Hadamard and a cx chain.
var GHZ = register(&Family{
	Name:    "ghz",
	MinSize: 2,
	Build: func(p Params) (*circuit.Circuit, error) {
		c := circuit.New(p.Size, p.Size)
		c.H(0)
		for q := 0; q < p.Size-1; q++ {
			c.CX(q, q+1)
		}
		c.Barrier()
		c.MeasureAll()
		return c, nil
	},
})

// Grover builds a single Grover iteration with the all-ones oracle:
// uniform superposition, oracle, diffuser. The multi-controlled Z at
// the heart of both uses a ccx cascade; sizes above 3 allocate n-3
// clean ancilla qubits after the data register. Only the data qubits
// are measured.
var Grover = register(&Family{
	Name:    "grover",
	MinSize: 2,
	Build: func(p Params) (*circuit.Circuit, error) {
		n := p.Size
		ancillas := 0
		if n > 3 {
			ancillas = n - 3
		}
		c := circuit.New(n+ancillas, n)

		hAll := func() {
			for q := 0; q < n; q++ {
				c.H(q)
			}
		}
		xAll := func() {
			for q := 0; q < n; q++ {
				c.X(q)
			}
		}
		// mcz flips the phase of |1...1> on the data register.
		mcz := func() {
			switch {
			case n == 2:
				c.Apply(circuit.Op{Name: "cz", Qubits: []int{0, 1}})
			case n == 3:
				c.H(2)
				c.CCX(0, 1, 2)
				c.H(2)
			default:
				target := n - 1
				anc := func(j int) int { return n + j }
				c.H(target)
				c.CCX(0, 1, anc(0))
				for m := 2; m <= n-3; m++ {
					c.CCX(m, anc(m-2), anc(m-1))
				}
				c.CCX(n-2, anc(n-4), target)
				for m := n - 3; m >= 2; m-- {
					c.CCX(m, anc(m-2), anc(m-1))
				}
				c.CCX(0, 1, anc(0))
				c.H(target)
			}
		}

		hAll()
		mcz()
		hAll()
		xAll()
		mcz()
		xAll()
		hAll()
		c.Barrier()
		for q := 0; q < n; q++ {
			c.Measure(q, q)
		}
		return c, nil
	},
})

// VBEAdder builds the ripple-carry adder network over three registers
// a, b, and carry laid out contiguously: forward carry cascade, top-bit
// sum, then the uncomputing cascade interleaved with sums. Size is the
// total qubit count 3k+1 for a k-bit addition.
var VBEAdder = register(&Family{
	Name:    "vbe_adder",
	MinSize: 4,
	Build: func(p Params) (*circuit.Circuit, error) {
		k := (p.Size - 1) / 3
		a := func(i int) int { return i }
		b := func(i int) int { return k + i }
		carry := func(i int) int { return 2*k + i }

		c := circuit.New(p.Size, p.Size)
		carryGate := func(c0, a0, b0, c1 int) {
			c.CCX(a0, b0, c1)
			c.CX(a0, b0)
			c.CCX(c0, b0, c1)
		}
		carryInverse := func(c0, a0, b0, c1 int) {
			c.CCX(c0, b0, c1)
			c.CX(a0, b0)
			c.CCX(a0, b0, c1)
		}
		sumGate := func(c0, a0, b0 int) {
			c.CX(a0, b0)
			c.CX(c0, b0)
		}

		for i := 0; i < k; i++ {
			carryGate(carry(i), a(i), b(i), carry(i+1))
		}
		c.CX(a(k-1), b(k-1))
		sumGate(carry(k-1), a(k-1), b(k-1))
		for i := k - 2; i >= 0; i-- {
			carryInverse(carry(i), a(i), b(i), carry(i+1))
			sumGate(carry(i), a(i), b(i))
		}
		c.Barrier()
		c.MeasureAll()
		return c, nil
	},
})

// Random builds a brick pattern of random single-qubit gates and
// random disjoint cx pairs, 2n layers deep. The generator is seeded
// from the size alone, so regeneration is deterministic and the stem
// needs no extra identifying fields. Rotation angles are drawn from
// exact quarter-turn multiples.
var Random = register(&Family{
	Name:    "random",
	MinSize: 2,
	Build: func(p Params) (*circuit.Circuit, error) {
		rng := rand.New(rand.NewSource(int64(p.Size) * 7919))
		c := circuit.New(p.Size, p.Size)
		oneQubit := []string{"h", "sx", "rx", "rz"}
		for layer := 0; layer < 2*p.Size; layer++ {
			if layer%2 == 0 {
				for q := 0; q < p.Size; q++ {
					switch oneQubit[rng.Intn(len(oneQubit))] {
					case "h":
						c.H(q)
					case "sx":
						c.SX(q)
					case "rx":
						c.RX(q, circuit.Num(0.25*float64(1+rng.Intn(7))))
					case "rz":
						c.RZ(q, circuit.Num(0.25*float64(1+rng.Intn(7))))
					}
				}
				continue
			}
			perm := rng.Perm(p.Size)
			for i := 0; i+1 < p.Size; i += 2 {
				c.CX(perm[i], perm[i+1])
			}
		}
		c.Barrier()
		c.MeasureAll()
		return c, nil
	},
})
