// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package gateset

import (
	"fmt"

	"github.com/passbench/passbench/lib/circuit"
)

// Constructors for rule right-hand sides. Angles are half-turns.

func gate1(name string, q int) circuit.Op {
	return circuit.Op{Name: name, Qubits: []int{q}}
}

func rot1(name string, q int, halfTurns float64) circuit.Op {
	return circuit.Op{Name: name, Qubits: []int{q}, Params: []circuit.Param{circuit.Num(halfTurns)}}
}

func gate2(name string, a, b int) circuit.Op {
	return circuit.Op{Name: name, Qubits: []int{a, b}}
}

func rot2(name string, a, b int, halfTurns float64) circuit.Op {
	return circuit.Op{Name: name, Qubits: []int{a, b}, Params: []circuit.Param{circuit.Num(halfTurns)}}
}

func angleOf(op circuit.Op) (float64, error) {
	if len(op.Params) != 1 {
		return 0, fmt.Errorf("want exactly one parameter, have %d", len(op.Params))
	}
	if op.Params[0].Symbolic() {
		return 0, fmt.Errorf("symbolic parameter %q", op.Params[0].Name)
	}
	return op.Params[0].Value, nil
}

// IBMFalcon is the superconducting target: basis {rz, sx, x, cx}.
// Single-qubit rules follow the RZ-SX Euler form
// U(t, phi, lambda) = rz(lambda) sx rz(t+1) sx rz(phi+1), valid up to
// global phase.
var IBMFalcon = &Target{
	Name:  "ibm_falcon",
	basis: map[string]bool{"rz": true, "sx": true, "x": true, "cx": true},
	rules: map[string]rule{
		"h": func(op circuit.Op) ([]circuit.Op, error) {
			q := op.Qubits[0]
			return []circuit.Op{rot1("rz", q, 0.5), gate1("sx", q), rot1("rz", q, 0.5)}, nil
		},
		"rx": func(op circuit.Op) ([]circuit.Op, error) {
			t, err := angleOf(op)
			if err != nil {
				return nil, err
			}
			q := op.Qubits[0]
			return []circuit.Op{
				rot1("rz", q, 0.5), gate1("sx", q), rot1("rz", q, t+1),
				gate1("sx", q), rot1("rz", q, 0.5),
			}, nil
		},
		"ry": func(op circuit.Op) ([]circuit.Op, error) {
			t, err := angleOf(op)
			if err != nil {
				return nil, err
			}
			q := op.Qubits[0]
			return []circuit.Op{
				gate1("sx", q), rot1("rz", q, t+1), gate1("sx", q), rot1("rz", q, 1),
			}, nil
		},
		"rzz": func(op circuit.Op) ([]circuit.Op, error) {
			t, err := angleOf(op)
			if err != nil {
				return nil, err
			}
			a, b := op.Qubits[0], op.Qubits[1]
			return []circuit.Op{gate2("cx", a, b), rot1("rz", b, t), gate2("cx", a, b)}, nil
		},
		"cp": func(op circuit.Op) ([]circuit.Op, error) {
			t, err := angleOf(op)
			if err != nil {
				return nil, err
			}
			a, b := op.Qubits[0], op.Qubits[1]
			return []circuit.Op{
				rot1("rz", a, t/2), gate2("cx", a, b), rot1("rz", b, -t/2),
				gate2("cx", a, b), rot1("rz", b, t/2),
			}, nil
		},
	},
}

// Quantinuum is the trapped-ion target: basis {rx, ry, rz, rzz}.
// Two-qubit rules route through the diagonal identity
// cz = rz(-1/2) rz(-1/2) rzz(1/2), valid up to global phase.
var Quantinuum = &Target{
	Name:  "quantinuum",
	basis: map[string]bool{"rx": true, "ry": true, "rz": true, "rzz": true},
	rules: map[string]rule{
		"h": func(op circuit.Op) ([]circuit.Op, error) {
			q := op.Qubits[0]
			return []circuit.Op{rot1("rz", q, 1), rot1("ry", q, 0.5)}, nil
		},
		"x": func(op circuit.Op) ([]circuit.Op, error) {
			return []circuit.Op{rot1("rx", op.Qubits[0], 1)}, nil
		},
		"sx": func(op circuit.Op) ([]circuit.Op, error) {
			return []circuit.Op{rot1("rx", op.Qubits[0], 0.5)}, nil
		},
		"cx": func(op circuit.Op) ([]circuit.Op, error) {
			a, b := op.Qubits[0], op.Qubits[1]
			return []circuit.Op{
				rot1("rz", b, 1), rot1("ry", b, 0.5), rot1("rz", a, -0.5),
				rot2("rzz", a, b, 0.5), rot1("rz", b, 0.5), rot1("ry", b, 0.5),
			}, nil
		},
		"cz": func(op circuit.Op) ([]circuit.Op, error) {
			a, b := op.Qubits[0], op.Qubits[1]
			return []circuit.Op{
				rot1("rz", a, -0.5), rot1("rz", b, -0.5), rot2("rzz", a, b, 0.5),
			}, nil
		},
		"cp": func(op circuit.Op) ([]circuit.Op, error) {
			t, err := angleOf(op)
			if err != nil {
				return nil, err
			}
			a, b := op.Qubits[0], op.Qubits[1]
			return []circuit.Op{
				rot1("rz", a, t/2), rot1("rz", b, t/2), rot2("rzz", a, b, -t/2),
			}, nil
		},
	},
}

// genericRules expand gates shared by both targets into the h/cx/rz
// vocabulary, which the target rules then finish. The ccx sequence is
// the textbook T-gate construction.
var genericRules = map[string]rule{
	"t": func(op circuit.Op) ([]circuit.Op, error) {
		return []circuit.Op{rot1("rz", op.Qubits[0], 0.25)}, nil
	},
	"tdg": func(op circuit.Op) ([]circuit.Op, error) {
		return []circuit.Op{rot1("rz", op.Qubits[0], -0.25)}, nil
	},
	"s": func(op circuit.Op) ([]circuit.Op, error) {
		return []circuit.Op{rot1("rz", op.Qubits[0], 0.5)}, nil
	},
	"sdg": func(op circuit.Op) ([]circuit.Op, error) {
		return []circuit.Op{rot1("rz", op.Qubits[0], -0.5)}, nil
	},
	"z": func(op circuit.Op) ([]circuit.Op, error) {
		return []circuit.Op{rot1("rz", op.Qubits[0], 1)}, nil
	},
	"y": func(op circuit.Op) ([]circuit.Op, error) {
		q := op.Qubits[0]
		return []circuit.Op{rot1("rz", q, 1), gate1("x", q)}, nil
	},
	"p": func(op circuit.Op) ([]circuit.Op, error) {
		t, err := angleOf(op)
		if err != nil {
			return nil, err
		}
		return []circuit.Op{rot1("rz", op.Qubits[0], t)}, nil
	},
	"cz": func(op circuit.Op) ([]circuit.Op, error) {
		a, b := op.Qubits[0], op.Qubits[1]
		return []circuit.Op{gate1("h", b), gate2("cx", a, b), gate1("h", b)}, nil
	},
	"swap": func(op circuit.Op) ([]circuit.Op, error) {
		a, b := op.Qubits[0], op.Qubits[1]
		return []circuit.Op{gate2("cx", a, b), gate2("cx", b, a), gate2("cx", a, b)}, nil
	},
	"ccx": func(op circuit.Op) ([]circuit.Op, error) {
		a, b, c := op.Qubits[0], op.Qubits[1], op.Qubits[2]
		return []circuit.Op{
			gate1("h", c),
			gate2("cx", b, c), gate1("tdg", c),
			gate2("cx", a, c), gate1("t", c),
			gate2("cx", b, c), gate1("tdg", c),
			gate2("cx", a, c), gate1("t", b), gate1("t", c), gate1("h", c),
			gate2("cx", a, b), gate1("t", a), gate1("tdg", b),
			gate2("cx", a, b),
		}, nil
	},
}
