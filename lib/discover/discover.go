// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package discover locates frozen artifacts and resolves the fields
// the pairwise engine needs from them. An artifact participates only
// when its metadata sidecar can be found; fields missing from the
// sidecar fall back to filename patterns, matching the layout the
// generator writes.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/passbench/passbench/lib/freeze"
)

// Pair is one discovered artifact with its resolved metadata sidecar.
type Pair struct {
	Artifact string
	Meta     string
}

// Find walks root/gateset/family for artifacts and resolves each
// one's sidecar. Artifacts without a resolvable sidecar are returned
// on the orphans list instead — skipping them is the caller's call to
// log, not an error. A missing scope directory yields empty results;
// ordering is lexical traversal order and carries no semantics beyond
// log readability.
func Find(root, gateset, family string) (pairs []Pair, orphans []string, err error) {
	scope := filepath.Join(root, gateset, family)

	err = filepath.WalkDir(scope, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), freeze.ArtifactExt) {
			return nil
		}
		meta, ok := sidecarFor(path)
		if !ok {
			orphans = append(orphans, path)
			return nil
		}
		pairs = append(pairs, Pair{Artifact: path, Meta: meta})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", scope, err)
	}
	return pairs, orphans, nil
}

// sidecarFor tries the two sidecar naming conventions, newest first:
// strip the final dotted segment ("x.circ.json" → "x.circ.meta.json"),
// then strip two ("x.meta.json" — older corpus generations named
// sidecars off the bare stem).
func sidecarFor(artifactPath string) (string, bool) {
	keep := freeze.MetaPath(artifactPath)
	if fileExists(keep) {
		return keep, true
	}
	stem := strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath))
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	drop := stem + ".meta.json"
	if fileExists(drop) {
		return drop, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var (
	sizePattern = regexp.MustCompile(`_n(\d+)`)

	// Filename fallbacks for variant fields, keyed off how each
	// family class embeds them in the stem.
	seededVariantPattern        = regexp.MustCompile(`_r(\d+)_seed(\d+)_(sym|num)__`)
	parameterizedVariantPattern = regexp.MustCompile(`_r(\d+)_(sym|num)__`)
)

// ResolveSize returns the artifact's size from the sidecar, falling
// back to the _n<size> filename segment. Zero means unresolved — the
// engine soft-skips those.
func ResolveSize(meta freeze.Metadata, basename string) int {
	if meta.Size > 0 {
		return meta.Size
	}
	if m := sizePattern.FindStringSubmatch(basename); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

// ResolveVariant returns the repetitions, seed, and parameter-mode tag
// ("sym", "num", or "" when undeterminable) for an artifact. Sidecar
// fields win; the filename fallback is consulted per missing field and
// only matches for families that encode the field in their stems
// (parameterized families carry _r<reps>, seeded ones _seed<seed>).
// Zero reps/seed mean absent — the sidecar schema's omitempty already
// equates the two.
func ResolveVariant(meta freeze.Metadata, basename string, parameterized, seeded bool) (reps int, seed int64, tag string) {
	reps = meta.Repetitions
	seed = meta.Seed
	tag = paramTag(meta.Parameters)

	var fileReps int
	var fileSeed int64
	var fileTag string
	switch {
	case seeded:
		if m := seededVariantPattern.FindStringSubmatch(basename); m != nil {
			fileReps, _ = strconv.Atoi(m[1])
			fileSeed, _ = strconv.ParseInt(m[2], 10, 64)
			fileTag = m[3]
		}
	case parameterized:
		if m := parameterizedVariantPattern.FindStringSubmatch(basename); m != nil {
			fileReps, _ = strconv.Atoi(m[1])
			fileTag = m[2]
		}
	}

	if reps == 0 {
		reps = fileReps
	}
	if seed == 0 {
		seed = fileSeed
	}
	if tag == "" {
		tag = fileTag
	}
	return reps, seed, tag
}

// paramTag maps a sidecar parameters value to its short tag. Prefix
// matching tolerates annotated values like "symbolic (default)".
func paramTag(parameters string) string {
	lower := strings.ToLower(parameters)
	switch {
	case strings.HasPrefix(lower, "symbolic"):
		return "sym"
	case strings.HasPrefix(lower, "numeric"):
		return "num"
	default:
		return ""
	}
}

// VariantString derives the variant used in result filenames and rows.
// Non-parameterized families always get an empty variant; for the rest
// it joins the present fields: r<reps>, seed<seed> (seeded families
// only), and the parameter tag.
func VariantString(parameterized, seeded bool, reps int, seed int64, tag string) string {
	if !parameterized {
		return ""
	}
	var parts []string
	if reps > 0 {
		parts = append(parts, fmt.Sprintf("r%d", reps))
	}
	if seeded && seed != 0 {
		parts = append(parts, fmt.Sprintf("seed%d", seed))
	}
	if tag != "" {
		parts = append(parts, tag)
	}
	return strings.Join(parts, "_")
}
