// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle packs a results tree into a single .pbz archive for
// handoff and unpacks it elsewhere.
//
// A bundle is a flat stream: 4-byte magic, then a CBOR bundle header,
// then one CBOR entry header plus compressed bytes per file. Every
// CBOR blob carries a 4-byte little-endian length prefix so readers
// can frame the stream without a lookahead decoder. Entries are
// ordered by slash-separated relative path, so the same tree always
// produces the same archive layout.
package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/passbench/passbench/lib/codec"
	"github.com/passbench/passbench/lib/version"
)

// Ext is the conventional bundle file extension.
const Ext = ".pbz"

// magic is the 4-byte bundle file signature: "PBZ" + format version.
var magic = [4]byte{'P', 'B', 'Z', '1'}

// Header describes a bundle as a whole. It is the first CBOR blob in
// the stream.
type Header struct {
	// Tool identifies the passbench build that wrote the bundle.
	Tool string `cbor:"tool"`

	// CreatedAt is the bundle creation time, RFC 3339 in UTC.
	CreatedAt string `cbor:"created_at"`

	// Entries is the number of files in the bundle.
	Entries int `cbor:"entries"`
}

// Entry describes one file. Paths are relative to the bundled root
// and slash-separated on every platform.
type Entry struct {
	Path string `cbor:"path"`

	// Size is the uncompressed byte length.
	Size int64 `cbor:"size"`

	// Stored is the byte length as stored in the bundle, after
	// compression. The entry's data follows its header immediately
	// and is exactly this long.
	Stored int64 `cbor:"stored"`

	// Mode holds the file's permission bits.
	Mode uint32 `cbor:"mode"`

	// Codec is the compression applied to this entry.
	Codec Codec `cbor:"codec"`
}

// Create walks root and writes every regular file into a bundle on w,
// compressed with the requested codec. Files ending in [Ext] are
// skipped, so a bundle written into the tree it packs never archives
// itself. Returns the header that was written.
func Create(w io.Writer, root string, tag Codec) (Header, error) {
	paths, err := collectFiles(root)
	if err != nil {
		return Header{}, err
	}

	if _, err := w.Write(magic[:]); err != nil {
		return Header{}, fmt.Errorf("writing bundle magic: %w", err)
	}

	header := Header{
		Tool:      version.Tool(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:   len(paths),
	}
	if err := writeBlock(w, header, "bundle header"); err != nil {
		return Header{}, err
	}

	for _, rel := range paths {
		if err := appendFile(w, root, rel, tag); err != nil {
			return Header{}, fmt.Errorf("bundling %s: %w", rel, err)
		}
	}
	return header, nil
}

// collectFiles returns the relative slash-separated paths of every
// regular file under root, sorted.
func collectFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), Ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func appendFile(w io.Writer, root, rel string, tag Codec) error {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	stored, used, err := compress(data, tag)
	if err != nil {
		return err
	}

	entry := Entry{
		Path:   rel,
		Size:   int64(len(data)),
		Stored: int64(len(stored)),
		Mode:   uint32(info.Mode().Perm()),
		Codec:  used,
	}
	if err := writeBlock(w, entry, "entry header"); err != nil {
		return err
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("writing entry data: %w", err)
	}
	return nil
}

// Extract unpacks a bundle from r under dest, creating directories as
// needed. Entry paths are validated before anything touches disk:
// absolute paths and paths escaping dest via ".." are rejected.
// Returns the extracted entries in bundle order.
func Extract(r io.Reader, dest string) ([]Entry, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, header.Entries)
	for i := 0; i < header.Entries; i++ {
		entry, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if !fs.ValidPath(entry.Path) || entry.Path == "." {
			return nil, fmt.Errorf("entry %d: unsafe path %q", i, entry.Path)
		}

		stored := make([]byte, entry.Stored)
		if _, err := io.ReadFull(r, stored); err != nil {
			return nil, fmt.Errorf("entry %s: reading data: %w", entry.Path, err)
		}
		data, err := decompress(stored, entry.Codec, entry.Size)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
		}

		target := filepath.Join(dest, filepath.FromSlash(entry.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
		}
		mode := fs.FileMode(entry.Mode).Perm()
		if err := os.WriteFile(target, data, mode); err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
		}
		// WriteFile's permission argument is filtered by the umask;
		// restore the recorded mode exactly.
		if err := os.Chmod(target, mode); err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// List reads a bundle's header and entry headers from r without
// writing anything to disk. Entry data is skipped over.
func List(r io.Reader) (Header, []Entry, error) {
	header, err := readHeader(r)
	if err != nil {
		return Header{}, nil, err
	}

	entries := make([]Entry, 0, header.Entries)
	for i := 0; i < header.Entries; i++ {
		entry, err := readEntry(r)
		if err != nil {
			return header, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := io.CopyN(io.Discard, r, entry.Stored); err != nil {
			return header, nil, fmt.Errorf("entry %s: skipping data: %w", entry.Path, err)
		}
		entries = append(entries, entry)
	}
	return header, entries, nil
}

func readHeader(r io.Reader) (Header, error) {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return Header{}, fmt.Errorf("reading bundle magic: %w", err)
	}
	if got != magic {
		if got[0] == 'P' && got[1] == 'B' && got[2] == 'Z' {
			return Header{}, fmt.Errorf("bundle version %q is not supported (this code supports version %q)",
				got[3], magic[3])
		}
		return Header{}, fmt.Errorf("not a passbench bundle (invalid magic bytes)")
	}

	block, err := readBlock(r, "bundle header")
	if err != nil {
		return Header{}, err
	}
	var header Header
	if err := codec.Unmarshal(block, &header); err != nil {
		return Header{}, fmt.Errorf("decoding bundle header: %w", err)
	}
	if header.Entries < 0 {
		return Header{}, fmt.Errorf("bundle header has negative entry count %d", header.Entries)
	}
	return header, nil
}

func readEntry(r io.Reader) (Entry, error) {
	block, err := readBlock(r, "entry header")
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := codec.Unmarshal(block, &entry); err != nil {
		return Entry{}, fmt.Errorf("decoding entry header: %w", err)
	}
	if entry.Size < 0 || entry.Stored < 0 {
		return Entry{}, fmt.Errorf("entry %q has negative sizes", entry.Path)
	}
	return entry, nil
}

// writeBlock encodes v as CBOR and writes it with a length prefix.
func writeBlock(w io.Writer, v any, what string) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", what, err)
	}
	var lengthBytes [4]byte
	binary.LittleEndian.PutUint32(lengthBytes[:], uint32(len(data)))
	if _, err := w.Write(lengthBytes[:]); err != nil {
		return fmt.Errorf("writing %s length: %w", what, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}

// readBlock reads one length-prefixed CBOR blob.
func readBlock(r io.Reader, what string) ([]byte, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return nil, fmt.Errorf("reading %s length: %w", what, err)
	}
	data := make([]byte, binary.LittleEndian.Uint32(lengthBytes[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	return data, nil
}
