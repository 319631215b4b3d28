// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements "passbench archive": pack a results tree
// into a single .pbz bundle, unpack one, or inspect its contents.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/passbench/passbench/cmd/passbench/cli"
	"github.com/passbench/passbench/lib/bundle"
)

// Command returns the top-level "archive" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "archive",
		Summary: "Pack, unpack, and inspect results bundles",
		Description: `Work with .pbz results bundles.

A bundle packs every file under a directory into a single compressed
stream, for moving sweep results between machines without dragging a
tree of small CSVs through scp. Bundles written into the tree they
pack never archive themselves.`,
		Subcommands: []*cli.Command{
			createCommand(),
			extractCommand(),
			listCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Pack the default results tree",
				Command:     "passbench archive create",
			},
			{
				Description: "Pack a specific tree with lz4",
				Command:     "passbench archive create results/pairwise --codec lz4 -o sweep.pbz",
			},
			{
				Description: "Unpack a bundle into a fresh directory",
				Command:     "passbench archive extract sweep.pbz --dest imported/",
			},
			{
				Description: "See what a bundle holds without unpacking",
				Command:     "passbench archive list sweep.pbz",
			},
		},
	}
}

// --- create ---

type createParams struct {
	cli.Settings
	cli.JSONOutput
	Output string `flag:"output,o" desc:"bundle file to write (default: <dir-name>.pbz)"`
	Codec  string `flag:"codec"    desc:"compression: raw, zstd, or lz4" default:"zstd"`
}

// createView is the pack outcome, shaped for --json output.
type createView struct {
	Output  string `json:"output"`
	Root    string `json:"root"`
	Entries int    `json:"entries"`
	Codec   string `json:"codec"`
	Bytes   int64  `json:"bytes"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Pack a directory into a bundle",
		Usage:   "passbench archive create [dir] [flags]",
		Description: `Walk a directory and write every regular file into a single .pbz
bundle. With no argument the configured results directory is packed.

Entries are compressed with zstd unless --codec says otherwise; each
entry falls back to raw storage when compression would not shrink it.`,
		Examples: []cli.Example{
			{
				Description: "Pack the configured results tree",
				Command:     "passbench archive create",
			},
			{
				Description: "Pack an arbitrary directory, uncompressed",
				Command:     "passbench archive create /tmp/scratch --codec raw -o scratch.pbz",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Run: func(args []string) error {
			cfg, _, err := params.Load()
			if err != nil {
				return err
			}

			if len(args) > 1 {
				return fmt.Errorf("unexpected arguments after %q", args[0])
			}
			root := cfg.Paths.Results
			if len(args) == 1 {
				root = args[0]
			}

			tag, err := bundle.ParseCodec(params.Codec)
			if err != nil {
				return err
			}

			output := params.Output
			if output == "" {
				output = filepath.Base(filepath.Clean(root)) + bundle.Ext
			}

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			header, err := bundle.Create(out, root, tag)
			if err != nil {
				out.Close()
				os.Remove(output)
				return err
			}
			if err := out.Close(); err != nil {
				os.Remove(output)
				return fmt.Errorf("closing %s: %w", output, err)
			}

			info, err := os.Stat(output)
			if err != nil {
				return fmt.Errorf("stat %s: %w", output, err)
			}

			view := createView{
				Output:  output,
				Root:    root,
				Entries: header.Entries,
				Codec:   tag.String(),
				Bytes:   info.Size(),
			}
			if done, err := params.EmitJSON(view); done {
				return err
			}
			fmt.Printf("%s: %d files from %s (%s, %s)\n",
				view.Output, view.Entries, view.Root, view.Codec, formatSize(view.Bytes))
			return nil
		},
	}
}

// --- extract ---

type extractParams struct {
	cli.Settings
	cli.JSONOutput
	Dest string `flag:"dest,d" desc:"directory to unpack into" default:"."`
}

// extractView is the unpack outcome, shaped for --json output.
type extractView struct {
	Bundle  string   `json:"bundle"`
	Dest    string   `json:"dest"`
	Entries int      `json:"entries"`
	Paths   []string `json:"paths"`
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Unpack a bundle into a directory",
		Usage:   "passbench archive extract <bundle> [flags]",
		Description: `Unpack every entry of a bundle under --dest, creating directories
as needed. Entry paths are validated before anything touches disk, so
a malicious bundle cannot write outside the destination.`,
		Examples: []cli.Example{
			{
				Description: "Unpack into the current directory",
				Command:     "passbench archive extract sweep.pbz",
			},
			{
				Description: "Unpack somewhere specific",
				Command:     "passbench archive extract sweep.pbz --dest /srv/bench/imported",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("extract", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one bundle file argument")
			}
			if _, _, err := params.Load(); err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer in.Close()

			entries, err := bundle.Extract(in, params.Dest)
			if err != nil {
				return err
			}

			view := extractView{
				Bundle:  args[0],
				Dest:    params.Dest,
				Entries: len(entries),
				Paths:   make([]string, 0, len(entries)),
			}
			for _, entry := range entries {
				view.Paths = append(view.Paths, entry.Path)
			}
			if done, err := params.EmitJSON(view); done {
				return err
			}
			fmt.Printf("%d files extracted under %s\n", view.Entries, view.Dest)
			return nil
		},
	}
}

// --- list ---

type listParams struct {
	cli.Settings
	cli.JSONOutput
}

// listView is a bundle's table of contents, shaped for --json output.
type listView struct {
	Bundle    string         `json:"bundle"`
	Tool      string         `json:"tool"`
	CreatedAt string         `json:"created_at"`
	Entries   []bundle.Entry `json:"entries"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "Show a bundle's contents without unpacking",
		Usage:   "passbench archive list <bundle> [flags]",
		Description: `Read a bundle's header and entry headers, skipping over the data.
Nothing is written to disk.`,
		Examples: []cli.Example{
			{
				Description: "List entries with sizes and codecs",
				Command:     "passbench archive list sweep.pbz",
			},
			{
				Description: "Machine-readable table of contents",
				Command:     "passbench archive list sweep.pbz --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one bundle file argument")
			}
			if _, _, err := params.Load(); err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer in.Close()

			header, entries, err := bundle.List(in)
			if err != nil {
				return err
			}

			view := listView{
				Bundle:    args[0],
				Tool:      header.Tool,
				CreatedAt: header.CreatedAt,
				Entries:   entries,
			}
			if done, err := params.EmitJSON(view); done {
				return err
			}

			fmt.Printf("%s: %d entries, written by %s at %s\n",
				view.Bundle, len(entries), header.Tool, header.CreatedAt)
			if len(entries) == 0 {
				return nil
			}

			var size, stored int64
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "PATH\tSIZE\tSTORED\tCODEC\n")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
					entry.Path,
					formatSize(entry.Size),
					formatSize(entry.Stored),
					entry.Codec,
				)
				size += entry.Size
				stored += entry.Stored
			}
			writer.Flush()
			fmt.Printf("\n%s stored as %s\n", formatSize(size), formatSize(stored))
			return nil
		},
	}
}

// formatSize returns a human-readable byte count.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
