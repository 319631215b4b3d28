// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package family

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/passbench/passbench/lib/circuit"
)

func build(t *testing.T, name string, p Params) *circuit.Circuit {
	t.Helper()
	f, err := Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", name, err)
	}
	if err := f.Validate(p); err != nil {
		t.Fatalf("Validate(%s, %+v): %v", name, p, err)
	}
	c, err := f.Build(p)
	if err != nil {
		t.Fatalf("Build(%s, %+v): %v", name, p, err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("%s produced invalid circuit: %v", name, err)
	}
	return c
}

func TestNames(t *testing.T) {
	want := []string{"ghz", "grover", "qaoa", "qft", "random", "vbe_adder", "vqe2l"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestBuildersDeterministic(t *testing.T) {
	params := map[string]Params{
		"qaoa":      {Size: 6, Reps: 2, Seed: 11, Symbolic: true},
		"vqe2l":     {Size: 4, Reps: 2},
		"qft":       {Size: 5},
		"ghz":       {Size: 4},
		"grover":    {Size: 5},
		"vbe_adder": {Size: 7},
		"random":    {Size: 4},
	}
	for name, p := range params {
		first, err := build(t, name, p).EncodeBytes()
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		second, err := build(t, name, p).EncodeBytes()
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("%s: two builds with identical params differ", name)
		}
	}
}

func TestQAOAVariants(t *testing.T) {
	p := Params{Size: 6, Reps: 2, Seed: 11}

	symbolic := build(t, "qaoa", Params{Size: p.Size, Reps: p.Reps, Seed: p.Seed, Symbolic: true})
	if !symbolic.Symbolic() {
		t.Fatal("symbolic build has no symbolic params")
	}
	sawGamma := false
	for _, op := range symbolic.Ops {
		for _, param := range op.Params {
			if param.Name == "γ[0]" {
				sawGamma = true
			}
		}
	}
	if !sawGamma {
		t.Fatal("symbolic qaoa missing γ[0] parameter")
	}

	numeric := build(t, "qaoa", p)
	if numeric.Symbolic() {
		t.Fatal("numeric build still has symbolic params")
	}

	// Same seed, same structure: the variants differ only in params.
	if len(symbolic.Ops) != len(numeric.Ops) {
		t.Fatalf("variant op counts differ: %d vs %d", len(symbolic.Ops), len(numeric.Ops))
	}
	for i := range symbolic.Ops {
		if symbolic.Ops[i].Name != numeric.Ops[i].Name {
			t.Fatalf("op %d: %s vs %s", i, symbolic.Ops[i].Name, numeric.Ops[i].Name)
		}
	}
}

func TestGHZShape(t *testing.T) {
	c := build(t, "ghz", Params{Size: 4})
	counts := c.CountOps()
	if counts["h"] != 1 || counts["cx"] != 3 || counts["barrier"] != 1 || counts["measure"] != 4 {
		t.Fatalf("ghz_n4 counts = %v", counts)
	}
}

func TestQFTShape(t *testing.T) {
	n := 5
	c := build(t, "qft", Params{Size: n})
	counts := c.CountOps()
	if counts["h"] != n {
		t.Fatalf("h count = %d, want %d", counts["h"], n)
	}
	if want := n * (n - 1) / 2; counts["cp"] != want {
		t.Fatalf("cp count = %d, want %d", counts["cp"], want)
	}
	if counts["swap"] != n/2 {
		t.Fatalf("swap count = %d, want %d", counts["swap"], n/2)
	}

	// The first ladder rung halves per step.
	sawHalf := false
	for _, op := range c.Ops {
		if op.Name == "cp" && op.Params[0].Value == 0.5 {
			sawHalf = true
		}
	}
	if !sawHalf {
		t.Fatal("no cp with half-turn/2 angle found")
	}
}

func TestGroverSmall(t *testing.T) {
	c := build(t, "grover", Params{Size: 3})
	if c.Qubits != 3 {
		t.Fatalf("grover_n3 qubits = %d, want 3 (no ancillas)", c.Qubits)
	}
	counts := c.CountOps()
	if counts["h"] != 13 || counts["ccx"] != 2 || counts["x"] != 6 {
		t.Fatalf("grover_n3 counts = %v", counts)
	}
	if counts["measure"] != 3 {
		t.Fatalf("measure count = %d, want 3", counts["measure"])
	}
}

func TestGroverAncillas(t *testing.T) {
	c := build(t, "grover", Params{Size: 5})
	if c.Qubits != 7 {
		t.Fatalf("grover_n5 qubits = %d, want 7 (2 ancillas)", c.Qubits)
	}
	counts := c.CountOps()
	if counts["ccx"] != 10 {
		t.Fatalf("ccx count = %d, want 10", counts["ccx"])
	}
	// Ancillas are never measured.
	if counts["measure"] != 5 {
		t.Fatalf("measure count = %d, want 5", counts["measure"])
	}
}

func TestVBEAdderShape(t *testing.T) {
	c := build(t, "vbe_adder", Params{Size: 7})
	counts := c.CountOps()
	if counts["ccx"] != 6 || counts["cx"] != 8 {
		t.Fatalf("vbe_adder_n7 counts = %v", counts)
	}

	f, err := Lookup("vbe_adder")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := f.Validate(Params{Size: 6}); err == nil {
		t.Fatal("size 6 should fail the 3k+1 check")
	}
}

func TestVQE2LShape(t *testing.T) {
	n, reps := 4, 2
	c := build(t, "vqe2l", Params{Size: n, Reps: reps})
	counts := c.CountOps()
	if want := (reps + 1) * n; counts["ry"] != want {
		t.Fatalf("ry count = %d, want %d", counts["ry"], want)
	}
	if want := reps * (n - 1); counts["cx"] != want {
		t.Fatalf("cx count = %d, want %d", counts["cx"], want)
	}
	if c.Symbolic() {
		t.Fatal("numeric vqe2l still symbolic")
	}

	sym := build(t, "vqe2l", Params{Size: n, Reps: reps, Symbolic: true})
	if !sym.Symbolic() {
		t.Fatal("symbolic vqe2l has no symbols")
	}
}

func TestValidateRejectsBadParams(t *testing.T) {
	qaoa, err := Lookup("qaoa")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := qaoa.Validate(Params{Size: 1, Reps: 1}); err == nil {
		t.Fatal("size below minimum accepted")
	}
	if err := qaoa.Validate(Params{Size: 4, Reps: 0}); err == nil {
		t.Fatal("zero repetitions accepted for parameterized family")
	}

	qft, err := Lookup("qft")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	// Non-parameterized families ignore reps entirely.
	if err := qft.Validate(Params{Size: 3}); err != nil {
		t.Fatalf("qft rejects valid params: %v", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("shor"); err == nil {
		t.Fatal("expected error for unknown family")
	}
}
