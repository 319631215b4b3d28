// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// Passbench uses two serialization formats with a clear boundary:
//
//   - JSON for artifact-facing surfaces: the canonical circuit
//     serialization, metadata sidecars, generation plans, and CLI
//     --json output. These files are read and diffed by people.
//   - CBOR for machine-only records: the freeze ledger and results
//     archive container headers, where byte-reproducibility matters
//     more than readability.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes — the property that makes ledgers and archives diffable by
// digest.
//
// For buffer-oriented operations (ledger records):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (archive headers, record sequences):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Types serialized only as CBOR use `cbor` struct tags; types that
// also appear in JSON output use `json` tags, which fxamacker/cbor
// reads as fallback. Never both on one field.
package codec
