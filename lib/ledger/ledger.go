// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger maintains the append-only freeze ledger: one CBOR
// record per freeze that actually wrote bytes, kept in a single file
// at the corpus root. The ledger is the source of truth for verify —
// a frozen corpus whose artifacts still digest to their latest ledger
// entries has not drifted.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/passbench/passbench/lib/codec"
	"github.com/passbench/passbench/lib/freeze"
)

// FileName is the ledger's name under the corpus root.
const FileName = "ledger.cbor"

// Record is one freeze event. Records are never rewritten: refreezing
// an artifact appends a new record, and the latest record for a name
// is authoritative.
type Record struct {
	// Name is the artifact path relative to the corpus root,
	// slash-separated on every platform.
	Name string `cbor:"name"`

	// Digest is the 32-byte circuit-domain digest of the frozen
	// bytes.
	Digest []byte `cbor:"digest"`

	// Size is the artifact's size in bytes at freeze time.
	Size int64 `cbor:"size"`

	// FrozenAt is the freeze timestamp, RFC 3339 in UTC.
	FrozenAt string `cbor:"frozen_at"`

	// Tool identifies the harness build that performed the freeze.
	Tool string `cbor:"tool,omitempty"`
}

// Path returns the ledger file path for a corpus root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads every record in the ledger, oldest first. A missing
// ledger file is an empty ledger, not an error.
func Load(root string) ([]Record, error) {
	data, err := os.ReadFile(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	var records []Record
	decoder := codec.NewDecoder(bytes.NewReader(data))
	for {
		var record Record
		if err := decoder.Decode(&record); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding ledger record %d: %w", len(records), err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Append adds records to the ledger atomically. The ledger is a CBOR
// sequence, so appending is a concatenation — existing bytes are
// carried over verbatim and the new records encoded after them, then
// the whole file is renamed into place.
func Append(root string, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := os.ReadFile(Path(root))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading ledger: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	encoder := codec.NewEncoder(&buf)
	for i, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("encoding ledger record %d: %w", i, err)
		}
	}

	tmpFile, err := os.CreateTemp(root, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, Path(root)); err != nil {
		return fmt.Errorf("renaming ledger into place: %w", err)
	}
	success = true
	return nil
}

// Latest returns the most recent record for the given artifact name.
func Latest(records []Record, name string) (Record, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Name == name {
			return records[i], true
		}
	}
	return Record{}, false
}

// Report is the outcome of verifying a corpus against its ledger.
type Report struct {
	// Checked counts artifacts found on disk.
	Checked int

	// Modified lists artifacts whose current digest differs from
	// their latest ledger entry.
	Modified []string

	// Untracked lists artifacts on disk with no ledger entry.
	Untracked []string

	// Orphaned lists ledger names whose artifact no longer exists.
	Orphaned []string
}

// Clean reports whether the corpus matches its ledger exactly.
func (r *Report) Clean() bool {
	return len(r.Modified) == 0 && len(r.Untracked) == 0 && len(r.Orphaned) == 0
}

// Verify walks every artifact under root, re-digests it, and compares
// against the latest ledger entry for its name. Artifacts are matched
// by relative slash-separated path, the same form Append records.
func Verify(root string) (*Report, error) {
	records, err := Load(root)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), freeze.ArtifactExt) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		name := filepath.ToSlash(rel)
		seen[name] = true
		report.Checked++

		record, ok := Latest(records, name)
		if !ok {
			report.Untracked = append(report.Untracked, name)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading artifact %s: %w", name, err)
		}
		digest := freeze.DigestBytes(data)
		if !bytes.Equal(digest[:], record.Digest) {
			report.Modified = append(report.Modified, name)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		// Missing corpus root: nothing on disk, every ledger entry is
		// an orphan.
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("walking corpus: %w", err)
	}

	orphaned := make(map[string]bool)
	for _, record := range records {
		if !seen[record.Name] && !orphaned[record.Name] {
			orphaned[record.Name] = true
			report.Orphaned = append(report.Orphaned, record.Name)
		}
	}
	return report, nil
}
