// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics extracts size and composition measurements from
// circuits. A Snapshot is taken before and after a pass sequence runs;
// the engine reports the per-column differences between the two.
package metrics

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/passbench/passbench/lib/circuit"
)

// topOpsLimit caps the histogram at the 8 most frequent names. The
// ranking is a lossy debugging aid, not an input to any invariant.
const topOpsLimit = 8

// OpCount is one entry of a TopOps ranking.
type OpCount struct {
	Name  string
	Count int
}

// TopOps ranks op names by descending count; ties keep the order in
// which the names first appear in the circuit (stable sort). It
// serializes as a JSON array of [name, count] pairs, which is the form
// embedded in result CSV cells.
type TopOps []OpCount

// MarshalJSON encodes the ranking as [["cx",12],["h",4]].
func (t TopOps) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(t))
	for i, entry := range t {
		pairs[i] = [2]any{entry.Name, entry.Count}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes the [name, count] pair form.
func (t *TopOps) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decoding top_ops: %w", err)
	}
	out := make(TopOps, len(pairs))
	for i, pair := range pairs {
		if err := json.Unmarshal(pair[0], &out[i].Name); err != nil {
			return fmt.Errorf("decoding top_ops entry %d name: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &out[i].Count); err != nil {
			return fmt.Errorf("decoding top_ops entry %d count: %w", i, err)
		}
	}
	*t = out
	return nil
}

// String returns the JSON form, which is what lands in CSV cells.
func (t TopOps) String() string {
	data, err := json.Marshal(t)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Snapshot is one circuit measurement. Directive ops (barrier, measure,
// reset) are counted in their own columns and in NOpsTotal, never in the
// per-arity gate buckets, so NOpsTotalGates >= NOps1Q + NOps2Q + Other
// always holds (with equality, since every structural gate has an
// arity).
type Snapshot struct {
	Depth          int
	NQubits        int
	NOpsTotal      int
	NOpsTotalGates int
	NOps1Q         int
	NOps2Q         int
	Other          int
	Barrier        int
	Measure        int
	Reset          int
	TopOps         TopOps
}

// Take measures a circuit.
func Take(c *circuit.Circuit) Snapshot {
	s := Snapshot{
		Depth:   c.Depth(),
		NQubits: c.Qubits,
	}
	for _, op := range c.Ops {
		s.NOpsTotal++
		switch op.Name {
		case circuit.OpBarrier:
			s.Barrier++
		case circuit.OpMeasure:
			s.Measure++
		case circuit.OpReset:
			s.Reset++
		default:
			s.NOpsTotalGates++
			switch len(op.Qubits) {
			case 1:
				s.NOps1Q++
			case 2:
				s.NOps2Q++
			default:
				s.Other++
			}
		}
	}
	s.TopOps = rank(c)
	return s
}

func rank(c *circuit.Circuit) TopOps {
	counts := make(map[string]int)
	var order []string
	for _, op := range c.Ops {
		if counts[op.Name] == 0 {
			order = append(order, op.Name)
		}
		counts[op.Name]++
	}

	out := make(TopOps, len(order))
	for i, name := range order {
		out[i] = OpCount{Name: name, Count: counts[name]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > topOpsLimit {
		out = out[:topOpsLimit]
	}
	return out
}

// Delta is the per-column difference between two snapshots
// (after minus before). Qubit counts and top_ops are reported as raw
// before/after values instead, so they have no delta column.
type Delta struct {
	Depth          int
	NOpsTotal      int
	NOpsTotalGates int
	NOps1Q         int
	NOps2Q         int
	Other          int
	Barrier        int
	Measure        int
	Reset          int
}

// Diff computes after minus before.
func Diff(before, after Snapshot) Delta {
	return Delta{
		Depth:          after.Depth - before.Depth,
		NOpsTotal:      after.NOpsTotal - before.NOpsTotal,
		NOpsTotalGates: after.NOpsTotalGates - before.NOpsTotalGates,
		NOps1Q:         after.NOps1Q - before.NOps1Q,
		NOps2Q:         after.NOps2Q - before.NOps2Q,
		Other:          after.Other - before.Other,
		Barrier:        after.Barrier - before.Barrier,
		Measure:        after.Measure - before.Measure,
		Reset:          after.Reset - before.Reset,
	}
}
