// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package freeze

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest of an artifact's canonical
// serialized form. Two circuits that encode to the same bytes have the
// same digest regardless of how they were constructed in memory.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions.
type domainKey [32]byte

// Domain separation keys. These are fixed constants — changing them
// invalidates every digest recorded in existing sidecars and ledgers.
// The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, so the keys stay readable in hex dumps
// (BLAKE3 keyed mode treats the key as an opaque 32-byte value).
var (
	circuitDomainKey = domainKey{
		'p', 'a', 's', 's', 'b', 'e', 'n', 'c', 'h', '.', 'c', 'i', 'r', 'c', 'u', 'i',
		't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// DigestBytes computes the circuit-domain digest of a canonical
// serialization. This is the digest Freeze returns, the one recorded
// in the ledger, and the one verify recomputes.
func DigestBytes(data []byte) Digest {
	return keyedHash(circuitDomainKey, data)
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the canonical format used in the ledger, logs, and
// CLI output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing artifact digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("artifact digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// keyedHash computes the BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Digest {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	// The error is only returned for wrong key length, so this cannot
	// fail with our fixed-size type.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("freeze: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
