// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"encoding/json"
	"testing"

	"github.com/passbench/passbench/lib/circuit"
)

func TestTakeCountsDirectivesSeparately(t *testing.T) {
	c := circuit.New(3, 3)
	c.H(0)
	c.CX(0, 1)
	c.CCX(0, 1, 2)
	c.Barrier()
	c.MeasureAll()
	c.Reset(0)

	s := Take(c)

	if s.NOpsTotal != 8 {
		t.Fatalf("NOpsTotal = %d, want 8", s.NOpsTotal)
	}
	if s.NOpsTotalGates != 3 {
		t.Fatalf("NOpsTotalGates = %d, want 3", s.NOpsTotalGates)
	}
	if s.NOps1Q != 1 || s.NOps2Q != 1 || s.Other != 1 {
		t.Fatalf("arity buckets = %d/%d/%d, want 1/1/1", s.NOps1Q, s.NOps2Q, s.Other)
	}
	if s.Barrier != 1 || s.Measure != 3 || s.Reset != 1 {
		t.Fatalf("directives = %d/%d/%d, want 1/3/1", s.Barrier, s.Measure, s.Reset)
	}
	if s.NQubits != 3 {
		t.Fatalf("NQubits = %d, want 3", s.NQubits)
	}

	// Structural totals reconcile exactly.
	if s.NOpsTotalGates != s.NOps1Q+s.NOps2Q+s.Other {
		t.Fatalf("gate total %d != bucket sum %d", s.NOpsTotalGates, s.NOps1Q+s.NOps2Q+s.Other)
	}
}

func TestTopOpsOrdering(t *testing.T) {
	// x appears before h; both end at count 1, so the tie keeps
	// first-encountered order rather than alphabetical.
	c := circuit.New(2, 0)
	c.X(1)
	c.CX(0, 1)
	c.CX(0, 1)
	c.H(0)

	s := Take(c)
	want := TopOps{{"cx", 2}, {"x", 1}, {"h", 1}}
	if len(s.TopOps) != len(want) {
		t.Fatalf("TopOps = %v, want %v", s.TopOps, want)
	}
	for i := range want {
		if s.TopOps[i] != want[i] {
			t.Fatalf("TopOps[%d] = %v, want %v", i, s.TopOps[i], want[i])
		}
	}
}

func TestTopOpsTruncatedToEight(t *testing.T) {
	names := []string{"h", "x", "sx", "rx", "ry", "rz", "t", "s", "sdg", "tdg"}
	c := circuit.New(1, 0)
	for _, name := range names {
		c.Apply(circuit.Op{Name: name, Qubits: []int{0}})
	}

	s := Take(c)
	if len(s.TopOps) != 8 {
		t.Fatalf("TopOps length = %d, want 8", len(s.TopOps))
	}
	// All tied at 1, so the cut keeps the first eight encountered.
	for i := 0; i < 8; i++ {
		if s.TopOps[i].Name != names[i] {
			t.Fatalf("TopOps[%d] = %q, want %q", i, s.TopOps[i].Name, names[i])
		}
	}
}

func TestTopOpsJSON(t *testing.T) {
	ranking := TopOps{{"cx", 12}, {"h", 4}}
	data, err := json.Marshal(ranking)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(data); got != `[["cx",12],["h",4]]` {
		t.Fatalf("JSON = %s", got)
	}

	var decoded TopOps
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != ranking[0] || decoded[1] != ranking[1] {
		t.Fatalf("round trip = %v, want %v", decoded, ranking)
	}

	if got := TopOps(nil).String(); got != "[]" {
		t.Fatalf("empty TopOps JSON = %s, want []", got)
	}
}

func TestDiffAntisymmetric(t *testing.T) {
	a := circuit.New(2, 2)
	a.H(0)
	a.CX(0, 1)
	a.Barrier()
	a.MeasureAll()

	b := circuit.New(2, 2)
	b.CX(0, 1)
	b.MeasureAll()

	before, after := Take(a), Take(b)
	forward := Diff(before, after)
	backward := Diff(after, before)

	if forward.Depth != -backward.Depth ||
		forward.NOpsTotal != -backward.NOpsTotal ||
		forward.Barrier != -backward.Barrier {
		t.Fatalf("Diff not antisymmetric: %+v vs %+v", forward, backward)
	}
	if forward.NOpsTotal != -2 {
		t.Fatalf("NOpsTotal delta = %d, want -2", forward.NOpsTotal)
	}
	if forward.Barrier != -1 {
		t.Fatalf("Barrier delta = %d, want -1", forward.Barrier)
	}
}
