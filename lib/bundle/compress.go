// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm used for a bundle entry.
// Values are stored in entry headers — these are protocol constants,
// changing them breaks bundle format compatibility.
type Codec uint8

const (
	// Raw indicates uncompressed data. Entries whose compressed form
	// would not be smaller than the original are stored raw.
	Raw Codec = 0

	// Zstd indicates zstd compression at the default level. Best
	// ratio for the CSV and JSON text a results tree holds; the
	// default for bundle creation.
	Zstd Codec = 1

	// LZ4 indicates LZ4 block compression. Faster than zstd with a
	// lower ratio, for large trees where pack time matters more than
	// archive size.
	LZ4 Codec = 2
)

// String returns the human-readable name of a codec.
func (c Codec) String() string {
	switch c {
	case Raw:
		return "raw"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec from its string representation.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "raw":
		return Raw, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec: %q", name)
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("bundle: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("bundle: zstd decoder initialization failed: " + err.Error())
	}
}

// compress compresses data with the requested codec and returns the
// stored bytes plus the codec actually used. When the compressed form
// is not smaller than the input, the data is returned unchanged with
// [Raw].
func compress(data []byte, tag Codec) ([]byte, Codec, error) {
	switch tag {
	case Raw:
		return data, Raw, nil

	case Zstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, Raw, nil
		}
		return compressed, Zstd, nil

	case LZ4:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 when it determines the data is
		// incompressible.
		if written == 0 || written >= len(data) {
			return data, Raw, nil
		}
		return destination[:written], LZ4, nil

	default:
		return nil, 0, fmt.Errorf("unsupported codec: %d", tag)
	}
}

// decompress reverses compress. The uncompressedSize must match the
// original data length exactly — this is verified and a mismatch
// returns an error.
func decompress(stored []byte, tag Codec, uncompressedSize int64) ([]byte, error) {
	switch tag {
	case Raw:
		if int64(len(stored)) != uncompressedSize {
			return nil, fmt.Errorf("raw entry: size %d does not match expected %d",
				len(stored), uncompressedSize)
		}
		return stored, nil

	case Zstd:
		result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if int64(len(result)) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d",
				len(result), uncompressedSize)
		}
		return result, nil

	case LZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(stored, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if int64(read) != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d",
				read, uncompressedSize)
		}
		return destination, nil

	default:
		return nil, fmt.Errorf("unsupported codec: %d", tag)
	}
}
