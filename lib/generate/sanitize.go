// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package generate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/passbench/passbench/lib/circuit"
)

// Symbolic parameter names coming out of the family builders use the
// conventional greek letters; downstream tools want plain identifiers.
var greekReplacer = strings.NewReplacer(
	"γ", "gamma",
	"β", "beta",
	"θ", "theta",
	"ϑ", "theta",
)

var (
	safeNamePattern  = regexp.MustCompile(`^[A-Za-z_][0-9A-Za-z_]*$`)
	unsafeRunPattern = regexp.MustCompile(`[^0-9A-Za-z_]+`)
)

// SanitizeNames rewrites every symbolic parameter name in c to a plain
// identifier: greek letters become their spelled names, any remaining
// non-identifier run collapses to a single underscore, and a leading
// digit gets an underscore prefix. Names are processed in sorted order
// and collisions disambiguated with a numeric suffix, so the rewrite
// is deterministic; already-sanitized circuits come back unchanged.
// Circuits without symbolic parameters are returned as-is.
func SanitizeNames(c *circuit.Circuit) *circuit.Circuit {
	seen := make(map[string]bool)
	var names []string
	for _, op := range c.Ops {
		for _, p := range op.Params {
			if p.Symbolic() && !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	if len(names) == 0 {
		return c
	}
	sort.Strings(names)

	rename := make(map[string]string, len(names))
	taken := make(map[string]bool, len(names))
	changed := false
	for _, name := range names {
		candidate := sanitizeName(name)
		for n := 2; taken[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", sanitizeName(name), n)
		}
		taken[candidate] = true
		rename[name] = candidate
		if candidate != name {
			changed = true
		}
	}
	if !changed {
		return c
	}

	out := c.Clone()
	for i := range out.Ops {
		for j, p := range out.Ops[i].Params {
			if p.Symbolic() {
				out.Ops[i].Params[j] = circuit.Sym(rename[p.Name])
			}
		}
	}
	return out
}

func sanitizeName(name string) string {
	if safeNamePattern.MatchString(name) {
		return name
	}
	s := greekReplacer.Replace(name)
	s = unsafeRunPattern.ReplaceAllString(s, "_")
	s = strings.TrimRight(s, "_")
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}
