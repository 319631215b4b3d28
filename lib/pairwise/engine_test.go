// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package pairwise

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/passbench/passbench/lib/circuit"
	"github.com/passbench/passbench/lib/clock"
	"github.com/passbench/passbench/lib/family"
	"github.com/passbench/passbench/lib/freeze"
	"github.com/passbench/passbench/lib/results"
)

var engineEpoch = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

const engineDate = "2026-03-14"

func newTestEngine() *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(clock.Fake(engineEpoch), logger)
}

func buildFamily(t *testing.T, name string, p family.Params) *circuit.Circuit {
	t.Helper()
	fam, err := family.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", name, err)
	}
	c, err := fam.Build(p)
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	return c
}

func freezeArtifact(t *testing.T, circuitsRoot, gateset, stem string, c *circuit.Circuit, meta freeze.Metadata) string {
	t.Helper()
	path := filepath.Join(circuitsRoot, gateset, meta.Family, stem+freeze.ArtifactExt)
	if _, err := freeze.New(clock.Fake(engineEpoch)).Freeze(path, c, meta, freeze.Preserve); err != nil {
		t.Fatalf("freezing %s: %v", stem, err)
	}
	return path
}

// freezeQFT plants the standard single-artifact qft fixture: size 4,
// one barrier, four measures.
func freezeQFT(t *testing.T, circuitsRoot, gateset string) string {
	t.Helper()
	c := buildFamily(t, "qft", family.Params{Size: 4})
	return freezeArtifact(t, circuitsRoot, gateset, "qft_n4__"+gateset, c, freeze.Metadata{
		Family:        "qft",
		NativeGateset: gateset,
		Size:          4,
		Parameters:    "numeric",
	})
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

// cell returns the named column of a data record, resolved through the
// file's own header row.
func cell(t *testing.T, records [][]string, row int, column string) string {
	t.Helper()
	for i, name := range records[0] {
		if name == column {
			return records[row][i]
		}
	}
	t.Fatalf("no column %q in header %v", column, records[0])
	return ""
}

func TestRunWritesTrialsAndSummary(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
		Pairs:        [][2]string{{"RB", "RR"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Trials() != 2 {
		t.Fatalf("Trials() = %d, want 2 (one pair, both directions)", report.Trials())
	}
	scope := report.Scopes[0]
	if scope.Artifacts != 1 || scope.Orphans != 0 || scope.Skipped != 0 {
		t.Fatalf("scope accounting = %+v", scope)
	}

	// One CSV per direction, plus before/after dumps for each.
	trialDir := results.TrialDir(resultsRoot, "ibm_falcon", "qft", 4)
	for _, direction := range []string{"A_then_B", "B_then_A"} {
		trialPath := results.TrialPath(resultsRoot, "ibm_falcon", "qft", 4, "", "RB", "RR", direction)
		records := readCSV(t, trialPath)
		if len(records) != 2 {
			t.Fatalf("%s: %d records, want header + 1 row", trialPath, len(records))
		}
		if got := strings.Join(records[0], ","); got != strings.Join(results.Header(), ",") {
			t.Errorf("trial header = %s", got)
		}
		if got := cell(t, records, 1, "timestamp"); got != "2026-03-14T09:26:53" {
			t.Errorf("timestamp = %q", got)
		}
		if got := cell(t, records, 1, "direction"); got != direction {
			t.Errorf("direction = %q, want %q", got, direction)
		}
		if got := cell(t, records, 1, "variant"); got != "" {
			t.Errorf("variant = %q, want empty", got)
		}
		// RB runs in both directions, so the lone barrier is gone.
		if got := cell(t, records, 1, "barrier_before"); got != "1" {
			t.Errorf("barrier_before = %q, want 1", got)
		}
		if got := cell(t, records, 1, "barrier_after"); got != "0" {
			t.Errorf("barrier_after = %q, want 0", got)
		}
		if got := cell(t, records, 1, "barrier_delta"); got != "-1" {
			t.Errorf("barrier_delta = %q, want -1", got)
		}
		if got := cell(t, records, 1, "measure_delta"); got != "0" {
			t.Errorf("measure_delta = %q, want 0", got)
		}
		if got := cell(t, records, 1, "n_qubits_after"); got != "4" {
			t.Errorf("n_qubits_after = %q, want 4", got)
		}

		dumpBase := strings.TrimSuffix(trialPath, ".csv")
		before, err := circuit.ReadFile(dumpBase + "__before" + freeze.ArtifactExt)
		if err != nil {
			t.Fatalf("before dump: %v", err)
		}
		if before.Qubits != 4 {
			t.Errorf("before dump qubits = %d, want 4", before.Qubits)
		}
		if _, err := os.Stat(dumpBase + "__after" + freeze.ArtifactExt); err != nil {
			t.Errorf("after dump: %v", err)
		}
	}
	entries, err := os.ReadDir(trialDir)
	if err != nil {
		t.Fatalf("reading trial dir: %v", err)
	}
	if len(entries) != 6 {
		t.Errorf("trial dir has %d entries, want 6 (2 CSVs + 4 dumps)", len(entries))
	}

	summary := readCSV(t, results.SummaryPath(resultsRoot, "ibm_falcon", "qft", engineDate))
	if len(summary) != 3 {
		t.Fatalf("summary has %d records, want header + 2 rows", len(summary))
	}
	// Both directions share one baseline measurement; the passes must
	// not have touched it.
	for _, column := range []string{"depth_before", "n_ops_total_before", "n_ops1_before", "n_ops2_before"} {
		if a, b := cell(t, summary, 1, column), cell(t, summary, 2, column); a != b {
			t.Errorf("%s differs across directions: %q vs %q", column, a, b)
		}
	}
}

func TestRunAppendsAcrossRuns(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	params := Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
		Pairs:        [][2]string{{"RB", "RR"}},
	}
	engine := newTestEngine()
	summaryPath := results.SummaryPath(resultsRoot, "ibm_falcon", "qft", engineDate)

	for run := 1; run <= 2; run++ {
		if _, err := engine.Run(context.Background(), params); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}
	if got := len(readCSV(t, summaryPath)); got != 5 {
		t.Fatalf("summary has %d records after two runs, want header + 4 rows", got)
	}

	params.FreshSummary = true
	if _, err := engine.Run(context.Background(), params); err != nil {
		t.Fatalf("fresh run: %v", err)
	}
	if got := len(readCSV(t, summaryPath)); got != 3 {
		t.Errorf("summary has %d records after fresh run, want header + 2 rows", got)
	}
}

func TestSkipExistingElidesTrials(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	params := Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
		Pairs:        [][2]string{{"RB", "RR"}},
	}
	engine := newTestEngine()
	if _, err := engine.Run(context.Background(), params); err != nil {
		t.Fatalf("first run: %v", err)
	}

	params.SkipExisting = true
	report, err := engine.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	scope := report.Scopes[0]
	if scope.Trials != 0 || scope.SkippedExisting != 2 {
		t.Fatalf("scope = %+v, want 0 trials and 2 skipped-existing", scope)
	}
	summary := readCSV(t, results.SummaryPath(resultsRoot, "ibm_falcon", "qft", engineDate))
	if len(summary) != 3 {
		t.Errorf("summary has %d records, want header + 2 rows from the first run only", len(summary))
	}
}

// The symbolic filter admits artifacts whose parameter mode cannot be
// determined; the repetitions filter excludes them. Both behaviors are
// load-bearing for existing result sets.
func TestFilterStrictness(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")

	symbolic := buildFamily(t, "vqe2l", family.Params{Size: 2, Reps: 1, Symbolic: true})
	freezeArtifact(t, circuitsRoot, "ibm_falcon", "vqe2l_n2_r1_sym__ibm_falcon", symbolic, freeze.Metadata{
		Family:        "vqe2l",
		NativeGateset: "ibm_falcon",
		Size:          2,
		Repetitions:   1,
		Parameters:    "symbolic",
	})
	// No parameters field, no reps, and a stem without the variant
	// segment: mode and reps are both undeterminable.
	unknown := buildFamily(t, "vqe2l", family.Params{Size: 2, Reps: 1})
	freezeArtifact(t, circuitsRoot, "ibm_falcon", "vqe2l_n2__ibm_falcon", unknown, freeze.Metadata{
		Family:        "vqe2l",
		NativeGateset: "ibm_falcon",
		Size:          2,
	})

	base := Params{
		CircuitsRoot: circuitsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"vqe2l"},
		Pairs:        [][2]string{{"RB", "RR"}},
		Directions:   []Direction{AThenB},
		SymbolicOnly: true,
	}

	open := base
	open.ResultsRoot = filepath.Join(tmp, "results-open")
	report, err := newTestEngine().Run(context.Background(), open)
	if err != nil {
		t.Fatalf("symbolic-only run: %v", err)
	}
	if scope := report.Scopes[0]; scope.Trials != 2 || scope.Skipped != 0 {
		t.Fatalf("symbolic-only scope = %+v, want both artifacts admitted", scope)
	}

	strict := base
	strict.ResultsRoot = filepath.Join(tmp, "results-strict")
	strict.Reps = []int{1}
	report, err = newTestEngine().Run(context.Background(), strict)
	if err != nil {
		t.Fatalf("reps-filtered run: %v", err)
	}
	if scope := report.Scopes[0]; scope.Trials != 1 || scope.Skipped != 1 {
		t.Fatalf("reps-filtered scope = %+v, want the unresolved artifact skipped", scope)
	}
}

func TestNoDebugDumps(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
		Pairs:        [][2]string{{"RB", "RR"}},
		NoDebugDumps: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Trials() != 2 {
		t.Fatalf("Trials() = %d, want 2", report.Trials())
	}
	entries, err := os.ReadDir(results.TrialDir(resultsRoot, "ibm_falcon", "qft", 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("trial dir has %d entries, want the 2 CSVs only", len(entries))
	}
}

func TestSizeFilterSkips(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  filepath.Join(tmp, "results"),
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
		Sizes:        []int{99},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scope := report.Scopes[0]; scope.Trials != 0 || scope.Skipped != 1 {
		t.Fatalf("scope = %+v, want the artifact size-filtered", scope)
	}
}

func TestMalformedSidecarAbortsScope(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")

	ghz := buildFamily(t, "ghz", family.Params{Size: 3})
	ghzPath := freezeArtifact(t, circuitsRoot, "ibm_falcon", "ghz_n3__ibm_falcon", ghz, freeze.Metadata{
		Family:        "ghz",
		NativeGateset: "ibm_falcon",
		Size:          3,
		Parameters:    "numeric",
	})
	if err := os.WriteFile(freeze.MetaPath(ghzPath), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft", "ghz"},
		Pairs:        [][2]string{{"RB", "RR"}},
	})
	if err == nil {
		t.Fatal("Run succeeded despite malformed sidecar")
	}
	if !strings.Contains(err.Error(), "scope ibm_falcon/ghz") {
		t.Errorf("error does not name the failed scope: %v", err)
	}

	// The healthy scope ran first and is untouched by the failure.
	if report.Scopes[0].Err != nil || report.Scopes[0].Trials != 2 {
		t.Errorf("qft scope = %+v, want 2 trials and no error", report.Scopes[0])
	}
	if report.Scopes[1].Err == nil {
		t.Error("ghz scope has no recorded error")
	}
	// The failed scope's summary was already opened: header only.
	summary := readCSV(t, results.SummaryPath(resultsRoot, "ibm_falcon", "ghz", engineDate))
	if len(summary) != 1 {
		t.Errorf("ghz summary has %d records, want header only", len(summary))
	}
}

func TestEmptyScopeWritesHeadedSummary(t *testing.T) {
	tmp := t.TempDir()
	resultsRoot := filepath.Join(tmp, "results")

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: filepath.Join(tmp, "circuits"),
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"grover"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scope := report.Scopes[0]; scope.Artifacts != 0 || scope.Trials != 0 {
		t.Fatalf("scope = %+v, want empty", scope)
	}
	summary := readCSV(t, results.SummaryPath(resultsRoot, "ibm_falcon", "grover", engineDate))
	if len(summary) != 1 {
		t.Fatalf("summary has %d records, want header only", len(summary))
	}
	if got := strings.Join(summary[0], ","); got != strings.Join(results.Header(), ",") {
		t.Errorf("summary header = %s", got)
	}
}

func TestOrphanArtifactCounted(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	path := freezeQFT(t, circuitsRoot, "ibm_falcon")
	if err := os.Remove(freeze.MetaPath(path)); err != nil {
		t.Fatal(err)
	}

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  filepath.Join(tmp, "results"),
		Gatesets:     []string{"ibm_falcon"},
		Families:     []string{"qft"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scope := report.Scopes[0]; scope.Orphans != 1 || scope.Artifacts != 0 || scope.Trials != 0 {
		t.Fatalf("scope = %+v, want one orphan and nothing else", scope)
	}
}

func TestMultipleScopesAcrossWorkers(t *testing.T) {
	tmp := t.TempDir()
	circuitsRoot := filepath.Join(tmp, "circuits")
	resultsRoot := filepath.Join(tmp, "results")
	freezeQFT(t, circuitsRoot, "ibm_falcon")
	freezeQFT(t, circuitsRoot, "quantinuum")

	report, err := newTestEngine().Run(context.Background(), Params{
		CircuitsRoot: circuitsRoot,
		ResultsRoot:  resultsRoot,
		Gatesets:     []string{"ibm_falcon", "quantinuum"},
		Families:     []string{"qft"},
		Pairs:        [][2]string{{"RB", "RR"}},
		Workers:      2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Trials() != 4 {
		t.Fatalf("Trials() = %d, want 2 per gateset", report.Trials())
	}
	for _, gateset := range []string{"ibm_falcon", "quantinuum"} {
		summary := readCSV(t, results.SummaryPath(resultsRoot, gateset, "qft", engineDate))
		if len(summary) != 3 {
			t.Errorf("%s summary has %d records, want header + 2 rows", gateset, len(summary))
		}
	}
}
