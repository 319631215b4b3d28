// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package freeze persists circuit artifacts with content-addressed
// write-if-different semantics. A frozen artifact is two files: the
// canonical circuit serialization and a JSON metadata sidecar whose
// path derives from the artifact path. Every write goes through a
// temporary file in the destination directory followed by an atomic
// rename, so a crash or concurrent reader never observes a partially
// written artifact.
package freeze

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/passbench/passbench/lib/circuit"
	"github.com/passbench/passbench/lib/clock"
)

// ArtifactExt is the filename extension of frozen circuit artifacts.
// Discovery matches on it, and temp files never carry it.
const ArtifactExt = ".circ.json"

// Mode selects how Freeze treats an existing file at the target path.
type Mode int

const (
	// Preserve leaves an existing file untouched and only reports the
	// digest of the new content. This is the default: regeneration
	// never silently changes a corpus that downstream runs compare
	// against.
	Preserve Mode = iota

	// Force always overwrites.
	Force

	// Compare digests the existing file and overwrites only when the
	// new content differs. Identical content is a true no-op: no
	// write, no metadata timestamp bump.
	Compare
)

// String returns the mode name as accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case Preserve:
		return "preserve"
	case Force:
		return "force"
	case Compare:
		return "compare"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a freeze mode name.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "preserve":
		return Preserve, nil
	case "force":
		return Force, nil
	case "compare":
		return Compare, nil
	default:
		return Preserve, fmt.Errorf("unknown freeze mode %q (valid: preserve, force, compare)", name)
	}
}

// Metadata is the sidecar persisted next to every frozen artifact.
// Fields mirror the identifying fields of the build spec that produced
// the artifact; Repetitions and Seed are zero for families that do not
// use them and are omitted from the JSON in that case.
type Metadata struct {
	Family        string `json:"family"`
	NativeGateset string `json:"native_gateset"`
	Size          int    `json:"size"`
	Repetitions   int    `json:"repetitions,omitempty"`
	Seed          int64  `json:"seed,omitempty"`

	// Parameters records whether gate angles were left symbolic or
	// bound to numbers: "symbolic" or "numeric".
	Parameters string `json:"parameters"`

	// BuildOptions carries builder knobs that identify the artifact
	// beyond the family parameters (for example the optimization
	// level of the native-compilation step).
	BuildOptions map[string]any `json:"build_options,omitempty"`

	// CreatedTimestamp is stamped by Freeze on every actual write,
	// RFC 3339 in UTC.
	CreatedTimestamp string `json:"created_timestamp"`
}

// UnmarshalJSON accepts both the current schema and sidecars from
// older corpus generations, which named the gateset field "target".
// Unknown keys are tolerated: old sidecars carry extra builder
// details that this harness does not model.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type wire struct {
		Family           string         `json:"family"`
		NativeGateset    string         `json:"native_gateset"`
		Target           string         `json:"target"`
		Size             int            `json:"size"`
		Repetitions      int            `json:"repetitions"`
		Seed             int64          `json:"seed"`
		Parameters       string         `json:"parameters"`
		BuildOptions     map[string]any `json:"build_options"`
		CreatedTimestamp string         `json:"created_timestamp"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	gateset := w.NativeGateset
	if gateset == "" {
		gateset = w.Target
	}
	*m = Metadata{
		Family:           w.Family,
		NativeGateset:    gateset,
		Size:             w.Size,
		Repetitions:      w.Repetitions,
		Seed:             w.Seed,
		Parameters:       w.Parameters,
		BuildOptions:     w.BuildOptions,
		CreatedTimestamp: w.CreatedTimestamp,
	}
	return nil
}

// MetaPath derives the sidecar path from an artifact path: the final
// dotted segment is replaced with ".meta.json". The relationship is a
// pure function of the path — the sidecar holds no pointer back to
// the artifact, and existence is checked at read time.
func MetaPath(artifactPath string) string {
	return strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath)) + ".meta.json"
}

// LoadMetadata reads and parses a metadata sidecar.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata sidecar: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parsing metadata sidecar %s: %w", path, err)
	}
	return meta, nil
}

// Disposition reports what Freeze did with the target file.
type Disposition int

const (
	// Written: no file existed; the artifact was created.
	Written Disposition = iota

	// Preserved: a file existed and preserve mode left it untouched.
	Preserved

	// Unchanged: compare mode found identical content and did not
	// write.
	Unchanged

	// Replaced: a file existed and was overwritten (force mode, or
	// compare mode with differing content).
	Replaced
)

// String returns the disposition name used in logs and CLI output.
func (d Disposition) String() string {
	switch d {
	case Written:
		return "written"
	case Preserved:
		return "preserved"
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Result reports the outcome of a single Freeze call.
type Result struct {
	// Digest is the circuit-domain digest of the NEW content. It is
	// reported in every mode, even when nothing was written, so
	// callers can compare a would-be artifact against the frozen one.
	Digest Digest

	// Disposition records whether the target was written, preserved,
	// unchanged, or replaced.
	Disposition Disposition
}

// Wrote reports whether the call actually put new bytes on disk.
func (r Result) Wrote() bool {
	return r.Disposition == Written || r.Disposition == Replaced
}

// Freezer writes artifacts and their metadata sidecars. The injected
// clock stamps sidecar timestamps, keeping them deterministic under
// test.
type Freezer struct {
	clock clock.Clock
}

// New returns a Freezer stamping sidecars from the given clock.
func New(clk clock.Clock) *Freezer {
	return &Freezer{clock: clk}
}

// Freeze serializes the circuit canonically and persists it at path
// according to mode. On any actual artifact write the metadata sidecar
// is rewritten right after with a fresh CreatedTimestamp; the two
// writes are individually atomic but not atomic together, so after a
// crash between them the sidecar may be one generation older than the
// artifact. No artifact write means the sidecar is not touched at all.
//
// The returned Result always carries the digest of the new content.
func (f *Freezer) Freeze(path string, c *circuit.Circuit, meta Metadata, mode Mode) (Result, error) {
	data, err := c.EncodeBytes()
	if err != nil {
		return Result{}, fmt.Errorf("encoding circuit: %w", err)
	}
	digest := DigestBytes(data)

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return Result{}, fmt.Errorf("checking artifact %s: %w", path, statErr)
	}

	if exists {
		switch mode {
		case Preserve:
			return Result{Digest: digest, Disposition: Preserved}, nil
		case Compare:
			existing, err := os.ReadFile(path)
			if err != nil {
				return Result{}, fmt.Errorf("reading existing artifact %s: %w", path, err)
			}
			if DigestBytes(existing) == digest {
				return Result{Digest: digest, Disposition: Unchanged}, nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return Result{}, fmt.Errorf("freezing artifact %s: %w", path, err)
	}

	meta.CreatedTimestamp = f.clock.Now().UTC().Format(time.RFC3339)
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encoding metadata: %w", err)
	}
	metaData = append(metaData, '\n')
	if err := writeFileAtomic(MetaPath(path), metaData); err != nil {
		return Result{}, fmt.Errorf("freezing metadata sidecar: %w", err)
	}

	disposition := Written
	if exists {
		disposition = Replaced
	}
	return Result{Digest: digest, Disposition: disposition}, nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory and an atomic rename. The temp name never matches the
// artifact or sidecar suffixes, so a crashed write is invisible to
// discovery.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".freeze-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	success = true
	return nil
}
