package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rendertree/pkg/layout"
)

// recordFields describes the packed record for the layout command.
var recordFields = []struct {
	name   string
	offset int
	size   int
	note   string
}{
	{"sequence", layout.OffsetSequence, 4, "int32, all kinds"},
	{"kind", layout.OffsetKind, 1, "1 element, 2 text, 3 attribute, 4 component"},
	{"flags", layout.OffsetFlags, 1, "attribute value case"},
	{"reserved", layout.OffsetReserved, 2, "zero"},
	{"length", layout.OffsetLength, 4, "subtree length, containers only"},
	{"str", layout.OffsetStr, 4, "string table index: name, content or type"},
	{"ref", layout.OffsetRef, 4, "value index, callback handle or component id"},
	{"handle", layout.OffsetHandle, 4, "component instance handle, 0 if unbound"},
}

func layoutCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [tree-file]",
		Short: "Print the packed record format",
		Long: `Print the fixed-width record format used by packed images.

With a tree document, also pack it and dump each record in hex.

Examples:
  rendertree layout
  rendertree layout counter.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			printRecordFormat(out)
			if len(args) == 0 {
				return nil
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			seq, err := buildFile(args[0], cfg, newRegistry(flags.strict))
			if err != nil {
				return err
			}
			img, err := layout.Pack(seq, cfg.LayoutLimits())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			return dumpRecords(out, img)
		},
	}

	return cmd
}

func printRecordFormat(w io.Writer) {
	fmt.Fprintf(w, "Record size: %d bytes, little-endian\n\n", layout.RecordSize)
	fmt.Fprintf(w, "  %-10s %6s %4s  %s\n", "FIELD", "OFFSET", "SIZE", "CONTENTS")
	for _, f := range recordFields {
		fmt.Fprintf(w, "  %-10s %6d %4d  %s\n", f.name, f.offset, f.size, f.note)
	}
	fmt.Fprintf(w, "\nFlags: 0x%02x callback, 0x%02x nil value\n", layout.FlagCallback, layout.FlagNilValue)
}

func dumpRecords(w io.Writer, img *layout.Image) error {
	view := layout.NewView(img)
	for i := 0; i < view.Len(); i++ {
		r, err := view.Record(i)
		if err != nil {
			return err
		}
		raw := img.Records[i*layout.RecordSize : (i+1)*layout.RecordSize]
		fmt.Fprintf(w, "%4d %-9s %s\n", i, r.Kind(), hex.EncodeToString(raw))
	}
	return nil
}
