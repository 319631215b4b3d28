// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package freeze

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/passbench/passbench/lib/circuit"
	"github.com/passbench/passbench/lib/clock"
)

var testEpoch = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestFreezer(t *testing.T) (*Freezer, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(testEpoch)
	return New(clk), clk
}

func bellCircuit(t *testing.T) *circuit.Circuit {
	t.Helper()
	c := circuit.New(2, 2)
	c.H(0)
	c.CX(0, 1)
	c.MeasureAll()
	return c
}

func testMeta() Metadata {
	return Metadata{
		Family:        "ghz",
		NativeGateset: "ibm_falcon",
		Size:          2,
		Parameters:    "numeric",
		BuildOptions:  map[string]any{"opt_level": 0},
	}
}

func TestFreezeWritesArtifactAndSidecar(t *testing.T) {
	freezer, _ := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "ghz_n2__ibm_falcon.circ.json")

	result, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Preserve)
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	if result.Disposition != Written {
		t.Errorf("Disposition = %v, want written", result.Disposition)
	}
	if !result.Wrote() {
		t.Error("Wrote() = false for a fresh write")
	}

	// The artifact must decode back to an equivalent circuit, and its
	// bytes must digest to the reported value.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading frozen artifact: %v", err)
	}
	if got := DigestBytes(data); got != result.Digest {
		t.Errorf("file digest %s != reported %s", FormatDigest(got), FormatDigest(result.Digest))
	}
	decoded, err := circuit.DecodeBytes(data)
	if err != nil {
		t.Fatalf("decoding frozen artifact: %v", err)
	}
	if decoded.Qubits != 2 || len(decoded.Ops) != 4 {
		t.Errorf("decoded circuit has %d qubits, %d ops; want 2, 4", decoded.Qubits, len(decoded.Ops))
	}

	meta, err := LoadMetadata(MetaPath(path))
	if err != nil {
		t.Fatalf("loading sidecar: %v", err)
	}
	if meta.Family != "ghz" || meta.NativeGateset != "ibm_falcon" || meta.Size != 2 {
		t.Errorf("sidecar identity fields = %q/%q/%d", meta.Family, meta.NativeGateset, meta.Size)
	}
	if want := "2026-03-14T09:26:53Z"; meta.CreatedTimestamp != want {
		t.Errorf("CreatedTimestamp = %q, want %q", meta.CreatedTimestamp, want)
	}
}

func TestFreezePreserveLeavesExistingFile(t *testing.T) {
	freezer, clk := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "ghz_n2__ibm_falcon.circ.json")

	first, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Preserve)
	if err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Freeze different content in preserve mode: the file must stay,
	// and the result must report the digest of the NEW content so the
	// caller can see the divergence.
	clk.Advance(time.Hour)
	changed := bellCircuit(t)
	changed.X(0)
	result, err := freezer.Freeze(path, changed, testMeta(), Preserve)
	if err != nil {
		t.Fatalf("preserve-mode Freeze failed: %v", err)
	}
	if result.Disposition != Preserved {
		t.Errorf("Disposition = %v, want preserved", result.Disposition)
	}
	if result.Wrote() {
		t.Error("Wrote() = true under preserve with existing file")
	}
	if result.Digest == first.Digest {
		t.Error("digest of changed content equals digest of original")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Error("preserve mode rewrote the artifact")
	}
	meta, err := LoadMetadata(MetaPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if want := "2026-03-14T09:26:53Z"; meta.CreatedTimestamp != want {
		t.Errorf("sidecar timestamp bumped under preserve: %q", meta.CreatedTimestamp)
	}
}

func TestFreezeCompareIdenticalIsNoOp(t *testing.T) {
	freezer, clk := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "ghz_n2__ibm_falcon.circ.json")

	first, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Force)
	if err != nil {
		t.Fatal(err)
	}

	clk.Advance(24 * time.Hour)
	result, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Compare)
	if err != nil {
		t.Fatalf("compare-mode Freeze failed: %v", err)
	}
	if result.Disposition != Unchanged {
		t.Errorf("Disposition = %v, want unchanged", result.Disposition)
	}
	if result.Digest != first.Digest {
		t.Errorf("digest changed across identical freezes")
	}

	// No write means no timestamp bump: the sidecar still carries the
	// first freeze's clock reading.
	meta, err := LoadMetadata(MetaPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if want := "2026-03-14T09:26:53Z"; meta.CreatedTimestamp != want {
		t.Errorf("sidecar timestamp = %q, want %q (no bump)", meta.CreatedTimestamp, want)
	}
}

func TestFreezeCompareOverwritesChangedContent(t *testing.T) {
	freezer, clk := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "ghz_n2__ibm_falcon.circ.json")

	if _, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Force); err != nil {
		t.Fatal(err)
	}

	clk.Advance(time.Hour)
	changed := bellCircuit(t)
	changed.X(1)
	result, err := freezer.Freeze(path, changed, testMeta(), Compare)
	if err != nil {
		t.Fatalf("compare-mode Freeze failed: %v", err)
	}
	if result.Disposition != Replaced {
		t.Errorf("Disposition = %v, want replaced", result.Disposition)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if DigestBytes(data) != result.Digest {
		t.Error("file content does not match the new digest after replace")
	}
	meta, err := LoadMetadata(MetaPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if want := "2026-03-14T10:26:53Z"; meta.CreatedTimestamp != want {
		t.Errorf("sidecar timestamp = %q, want fresh %q", meta.CreatedTimestamp, want)
	}
}

func TestFreezeForceAlwaysRewrites(t *testing.T) {
	freezer, clk := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "ghz_n2__ibm_falcon.circ.json")

	if _, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Force); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	result, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Force)
	if err != nil {
		t.Fatal(err)
	}
	if result.Disposition != Replaced {
		t.Errorf("Disposition = %v, want replaced", result.Disposition)
	}
	meta, err := LoadMetadata(MetaPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if want := "2026-03-14T09:27:53Z"; meta.CreatedTimestamp != want {
		t.Errorf("sidecar timestamp = %q, want %q", meta.CreatedTimestamp, want)
	}
}

func TestFreezeCreatesParentDirectories(t *testing.T) {
	freezer, _ := newTestFreezer(t)
	path := filepath.Join(t.TempDir(), "circuits", "ibm_falcon", "ghz", "ghz_n2__ibm_falcon.circ.json")

	result, err := freezer.Freeze(path, bellCircuit(t), testMeta(), Preserve)
	if err != nil {
		t.Fatalf("Freeze with missing parents failed: %v", err)
	}
	if result.Disposition != Written {
		t.Errorf("Disposition = %v, want written", result.Disposition)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestFreezeLeavesNoTempFiles(t *testing.T) {
	freezer, _ := newTestFreezer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ghz_n2__ibm_falcon.circ.json")

	for _, mode := range []Mode{Preserve, Force, Compare, Force} {
		if _, err := freezer.Freeze(path, bellCircuit(t), testMeta(), mode); err != nil {
			t.Fatalf("Freeze(%v) failed: %v", mode, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name != "ghz_n2__ibm_falcon.circ.json" && name != "ghz_n2__ibm_falcon.circ.meta.json" {
			t.Errorf("unexpected leftover file %q", name)
		}
	}
	if len(entries) != 2 {
		t.Errorf("directory holds %d entries, want 2", len(entries))
	}
}

func TestDigestInsensitiveToConstructionOrder(t *testing.T) {
	// Two circuits built through different code paths but encoding to
	// the same canonical bytes must digest identically.
	a := circuit.New(2, 2)
	a.H(0)
	a.CX(0, 1)
	a.MeasureAll()

	b := circuit.New(2, 2)
	b.Apply(circuit.Op{Name: "h", Qubits: []int{0}})
	b.Apply(circuit.Op{Name: "cx", Qubits: []int{0, 1}})
	b.Measure(0, 0)
	b.Measure(1, 1)

	ab, err := a.EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	bb, err := b.EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if DigestBytes(ab) != DigestBytes(bb) {
		t.Error("equivalent circuits produced different digests")
	}
}

func TestMetaPath(t *testing.T) {
	tests := []struct {
		artifact string
		want     string
	}{
		{"qft_n8__ibm_falcon.circ.json", "qft_n8__ibm_falcon.circ.meta.json"},
		{"circuits/quantinuum/qaoa/qaoa_n6_r2_seed11_sym__quantinuum.circ.json",
			"circuits/quantinuum/qaoa/qaoa_n6_r2_seed11_sym__quantinuum.circ.meta.json"},
	}
	for _, tt := range tests {
		if got := MetaPath(tt.artifact); got != tt.want {
			t.Errorf("MetaPath(%q) = %q, want %q", tt.artifact, got, tt.want)
		}
	}
}

func TestMetadataAcceptsLegacyTargetKey(t *testing.T) {
	// Older corpus generations wrote "target" instead of
	// "native_gateset", plus extra builder keys.
	legacy := `{
		"family": "qft",
		"target": "quantinuum",
		"size": 8,
		"parameters": "numeric",
		"opt_level": 0,
		"created_utc": "2025-11-02T10:00:00Z"
	}`
	var meta Metadata
	if err := meta.UnmarshalJSON([]byte(legacy)); err != nil {
		t.Fatalf("legacy sidecar rejected: %v", err)
	}
	if meta.NativeGateset != "quantinuum" {
		t.Errorf("NativeGateset = %q, want quantinuum", meta.NativeGateset)
	}

	// When both keys appear, the current one wins.
	both := `{"family": "qft", "native_gateset": "ibm_falcon", "target": "quantinuum", "size": 8, "parameters": "numeric"}`
	if err := meta.UnmarshalJSON([]byte(both)); err != nil {
		t.Fatal(err)
	}
	if meta.NativeGateset != "ibm_falcon" {
		t.Errorf("NativeGateset = %q, want ibm_falcon (native_gateset wins)", meta.NativeGateset)
	}
}

func TestParseDigest(t *testing.T) {
	data, err := bellCircuit(t).EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	digest := DigestBytes(data)

	parsed, err := ParseDigest(FormatDigest(digest))
	if err != nil {
		t.Fatalf("ParseDigest round-trip failed: %v", err)
	}
	if parsed != digest {
		t.Error("ParseDigest round-trip mismatch")
	}

	if _, err := ParseDigest("zz"); err == nil {
		t.Error("ParseDigest accepted non-hex input")
	}
	if _, err := ParseDigest("abcd"); err == nil {
		t.Error("ParseDigest accepted short input")
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"preserve": Preserve,
		"force":    Force,
		"compare":  Compare,
	} {
		got, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseMode("overwrite"); err == nil || !strings.Contains(err.Error(), "overwrite") {
		t.Errorf("ParseMode of unknown mode: err = %v", err)
	}
}
