// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package results owns the comparison-row CSV schema and the two sinks
// every trial feeds: a single-row per-trial file and the append-only
// per-scope summary. Column order is fixed — downstream notebooks
// index these files positionally.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/passbench/passbench/lib/metrics"
)

// idCols identify a trial: when, where, on what, and which ordered
// pass pair produced it.
var idCols = []string{
	"timestamp",
	"gateset",
	"family",
	"size",
	"variant",
	"passA",
	"passB",
	"direction",
}

// metricCols are the snapshot fields reported as before/after/delta
// triples, in schema order.
var metricCols = []string{
	"depth",
	"n_ops_total",
	"n_ops_total_gates",
	"n_ops1",
	"n_ops2",
	"other",
	"barrier",
	"measure",
	"reset",
}

// Header returns the full CSV column list: the ID columns, a
// before/after/delta triple per metric, the JSON-encoded top-op
// histograms, and the raw qubit counts.
func Header() []string {
	cols := make([]string, 0, len(idCols)+3*len(metricCols)+4)
	cols = append(cols, idCols...)
	for _, name := range metricCols {
		cols = append(cols, name+"_before", name+"_after", name+"_delta")
	}
	cols = append(cols, "top_ops_before", "top_ops_after", "n_qubits_before", "n_qubits_after")
	return cols
}

// Row is one trial's comparison result. It is created once per trial
// and appended to exactly two sinks; it is never updated.
type Row struct {
	Timestamp string
	Gateset   string
	Family    string
	Size      int
	Variant   string
	PassA     string
	PassB     string
	Direction string

	Before metrics.Snapshot
	After  metrics.Snapshot
}

// Values renders the row in Header order. Deltas are recomputed from
// the snapshots, so the three columns of a triple can never disagree.
func (r Row) Values() []string {
	delta := metrics.Diff(r.Before, r.After)

	values := make([]string, 0, len(idCols)+3*len(metricCols)+4)
	values = append(values,
		r.Timestamp,
		r.Gateset,
		r.Family,
		strconv.Itoa(r.Size),
		r.Variant,
		r.PassA,
		r.PassB,
		r.Direction,
	)

	triple := func(before, after, d int) {
		values = append(values, strconv.Itoa(before), strconv.Itoa(after), strconv.Itoa(d))
	}
	triple(r.Before.Depth, r.After.Depth, delta.Depth)
	triple(r.Before.NOpsTotal, r.After.NOpsTotal, delta.NOpsTotal)
	triple(r.Before.NOpsTotalGates, r.After.NOpsTotalGates, delta.NOpsTotalGates)
	triple(r.Before.NOps1Q, r.After.NOps1Q, delta.NOps1Q)
	triple(r.Before.NOps2Q, r.After.NOps2Q, delta.NOps2Q)
	triple(r.Before.Other, r.After.Other, delta.Other)
	triple(r.Before.Barrier, r.After.Barrier, delta.Barrier)
	triple(r.Before.Measure, r.After.Measure, delta.Measure)
	triple(r.Before.Reset, r.After.Reset, delta.Reset)

	values = append(values,
		r.Before.TopOps.String(),
		r.After.TopOps.String(),
		strconv.Itoa(r.Before.NQubits),
		strconv.Itoa(r.After.NQubits),
	)
	return values
}

// TrialDir returns the per-size directory trial files land in:
// <root>/<gateset>/<family>/n<size>.
func TrialDir(root, gateset, family string, size int) string {
	return filepath.Join(root, gateset, family, fmt.Sprintf("n%d", size))
}

// TrialBase returns the trial filename without extension:
// <family>_n<size>_<variant>__<passA>_<passB>__<direction>. An empty
// variant leaves its underscore in place — the triple underscore is
// part of the established naming, and renaming would orphan every
// existing result.
func TrialBase(family string, size int, variant, passA, passB, direction string) string {
	return fmt.Sprintf("%s_n%d_%s__%s_%s__%s", family, size, variant, passA, passB, direction)
}

// TrialPath returns the full per-trial CSV path.
func TrialPath(root, gateset, family string, size int, variant, passA, passB, direction string) string {
	return filepath.Join(
		TrialDir(root, gateset, family, size),
		TrialBase(family, size, variant, passA, passB, direction)+".csv",
	)
}

// SummaryPath returns the dated per-scope aggregate path:
// <root>/summary/<gateset>/<family>/<date>_<family>_<gateset>_pairwise.csv.
func SummaryPath(root, gateset, family, date string) string {
	return filepath.Join(root, "summary", gateset, family,
		fmt.Sprintf("%s_%s_%s_pairwise.csv", date, family, gateset))
}

// WriteTrial writes a single-row CSV (header plus the row) at path,
// creating parent directories. The write goes through a temp file and
// rename so a crash never leaves a header-only fragment behind.
func WriteTrial(path string, row Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating trial directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".trial-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp trial file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	writer := csv.NewWriter(tmpFile)
	if err := writer.Write(Header()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing trial header: %w", err)
	}
	if err := writer.Write(row.Values()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing trial row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("flushing trial file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp trial file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming trial file into place: %w", err)
	}
	success = true
	return nil
}

// SummaryWriter is a scope's aggregate sink. One writer owns the file
// for the scope's lifetime; rows are flushed as they are appended, so
// each append is the unit of durability.
type SummaryWriter struct {
	file *os.File
	csv  *csv.Writer
}

// OpenSummary opens the scope aggregate at path. With fresh false the
// file is appended to when it already exists (no second header);
// otherwise — first open of the day, or fresh true — it is created
// from scratch with a header. The file exists after OpenSummary even
// if no row is ever appended: an empty scope still leaves a dated,
// headed summary.
func OpenSummary(path string, fresh bool) (*SummaryWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating summary directory: %w", err)
	}

	appending := false
	if !fresh {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			appending = true
		}
	}

	var file *os.File
	var err error
	if appending {
		file, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening summary %s: %w", path, err)
	}

	w := &SummaryWriter{file: file, csv: csv.NewWriter(file)}
	if !appending {
		if err := w.csv.Write(Header()); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing summary header: %w", err)
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flushing summary header: %w", err)
		}
	}
	return w, nil
}

// Append writes one row and flushes it.
func (w *SummaryWriter) Append(row Row) error {
	if err := w.csv.Write(row.Values()); err != nil {
		return fmt.Errorf("appending summary row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flushing summary row: %w", err)
	}
	return nil
}

// Close flushes and closes the sink.
func (w *SummaryWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flushing summary: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing summary: %w", err)
	}
	return nil
}
