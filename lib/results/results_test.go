// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/passbench/passbench/lib/metrics"
)

func sampleRow() Row {
	return Row{
		Timestamp: "2026-03-14T09:26:53",
		Gateset:   "ibm_falcon",
		Family:    "qft",
		Size:      8,
		Variant:   "",
		PassA:     "RB",
		PassB:     "RR",
		Direction: "A_then_B",
		Before: metrics.Snapshot{
			Depth: 20, NQubits: 8, NOpsTotal: 50, NOpsTotalGates: 41,
			NOps1Q: 20, NOps2Q: 21, Barrier: 1, Measure: 8,
			TopOps: metrics.TopOps{{Name: "cx", Count: 21}, {Name: "rz", Count: 20}},
		},
		After: metrics.Snapshot{
			Depth: 18, NQubits: 8, NOpsTotal: 45, NOpsTotalGates: 36,
			NOps1Q: 15, NOps2Q: 21, Barrier: 1, Measure: 8,
			TopOps: metrics.TopOps{{Name: "cx", Count: 21}, {Name: "rz", Count: 15}},
		},
	}
}

// index builds a column → position lookup for readable assertions.
func index(t *testing.T, header []string) map[string]int {
	t.Helper()
	idx := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := idx[col]; dup {
			t.Fatalf("duplicate column %q", col)
		}
		idx[col] = i
	}
	return idx
}

func TestHeaderShape(t *testing.T) {
	header := Header()

	// 8 ID columns, 9 metric triples, 2 histograms, 2 qubit counts.
	if want := 8 + 9*3 + 4; len(header) != want {
		t.Fatalf("header has %d columns, want %d", len(header), want)
	}
	if header[0] != "timestamp" {
		t.Errorf("first column = %q, want timestamp", header[0])
	}
	if header[len(header)-1] != "n_qubits_after" {
		t.Errorf("last column = %q, want n_qubits_after", header[len(header)-1])
	}

	idx := index(t, header)
	for _, col := range []string{"gateset", "variant", "direction", "n_ops1_delta", "n_ops_total_gates_after", "top_ops_before"} {
		if _, ok := idx[col]; !ok {
			t.Errorf("header missing column %q", col)
		}
	}
}

func TestRowValuesAlignWithHeader(t *testing.T) {
	header := Header()
	row := sampleRow()
	values := row.Values()

	if len(values) != len(header) {
		t.Fatalf("row has %d values for %d columns", len(values), len(header))
	}

	idx := index(t, header)
	expect := map[string]string{
		"timestamp":         "2026-03-14T09:26:53",
		"gateset":           "ibm_falcon",
		"family":            "qft",
		"size":              "8",
		"variant":           "",
		"passA":             "RB",
		"passB":             "RR",
		"direction":         "A_then_B",
		"depth_before":      "20",
		"depth_after":       "18",
		"depth_delta":       "-2",
		"n_ops_total_delta": "-5",
		"n_ops1_delta":      "-5",
		"n_ops2_delta":      "0",
		"barrier_after":     "1",
		"top_ops_after":     `[["cx",21],["rz",15]]`,
		"n_qubits_before":   "8",
		"n_qubits_after":    "8",
	}
	for col, want := range expect {
		if got := values[idx[col]]; got != want {
			t.Errorf("column %s = %q, want %q", col, got, want)
		}
	}
}

func TestTrialPathNaming(t *testing.T) {
	got := TrialPath("results", "quantinuum", "qaoa", 6, "r2_seed11_sym", "RB", "CTM", "B_then_A")
	want := filepath.Join("results", "quantinuum", "qaoa", "n6",
		"qaoa_n6_r2_seed11_sym__RB_CTM__B_then_A.csv")
	if got != want {
		t.Errorf("TrialPath = %q, want %q", got, want)
	}

	// Empty variant keeps its separator: three underscores.
	got = TrialPath("results", "ibm_falcon", "qft", 8, "", "RB", "RR", "A_then_B")
	want = filepath.Join("results", "ibm_falcon", "qft", "n8", "qft_n8___RB_RR__A_then_B.csv")
	if got != want {
		t.Errorf("TrialPath with empty variant = %q, want %q", got, want)
	}
}

func TestSummaryPathNaming(t *testing.T) {
	got := SummaryPath("results", "ibm_falcon", "qft", "2026-03-14")
	want := filepath.Join("results", "summary", "ibm_falcon", "qft", "2026-03-14_qft_ibm_falcon_pairwise.csv")
	if got != want {
		t.Errorf("SummaryPath = %q, want %q", got, want)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestWriteTrial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n8", "qft_n8___RB_RR__A_then_B.csv")

	if err := WriteTrial(path, sampleRow()); err != nil {
		t.Fatalf("WriteTrial: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("trial file has %d records, want header + 1 row", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header row starts with %q", records[0][0])
	}
	if records[1][0] != "2026-03-14T09:26:53" {
		t.Errorf("data row starts with %q", records[1][0])
	}

	// No temp leftovers next to the trial file.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("trial directory has %d entries, want 1", len(entries))
	}
}

func TestSummaryAppendAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary", "ibm_falcon", "qft", "2026-03-14_qft_ibm_falcon_pairwise.csv")

	// First open creates the file with a header.
	w, err := OpenSummary(path, false)
	if err != nil {
		t.Fatalf("first OpenSummary: %v", err)
	}
	if err := w.Append(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Second open appends without a second header.
	w, err = OpenSummary(path, false)
	if err != nil {
		t.Fatalf("second OpenSummary: %v", err)
	}
	if err := w.Append(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("after two appends: %d records, want header + 2 rows", len(records))
	}

	// A fresh open resets the file to header only.
	w, err = OpenSummary(path, true)
	if err != nil {
		t.Fatalf("fresh OpenSummary: %v", err)
	}
	if err := w.Append(sampleRow()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	records = readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("after fresh open: %d records, want header + 1 row", len(records))
	}
}

func TestSummaryExistsEvenWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2026-03-14_ghz_ibm_falcon_pairwise.csv")
	w, err := OpenSummary(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("empty summary has %d records, want just the header", len(records))
	}
}
