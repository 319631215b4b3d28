// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package circuit defines the quantum circuit intermediate representation
// shared by the whole harness: generators build circuits, transformation
// passes rewrite them, metrics count them, and the freezer serializes them.
//
// A Circuit is a flat, ordered list of operations over a fixed qubit and
// classical bit register. Operations are either structural gates (h, cx,
// rz, ...) or directives (barrier, measure, reset). Gate angles are Params:
// each is either symbolic (a named placeholder such as "gamma[0]") or
// numeric, stored in half-turns (multiples of pi) so that common structural
// angles like pi/2 are exact.
//
// The JSON codec is canonical: encoding the same circuit always produces
// the same bytes. This is what makes content-addressed freezing and
// byte-level drift detection possible. Decode validates structure (qubit
// indices in range, well-formed params) and rejects unknown format
// versions.
package circuit
