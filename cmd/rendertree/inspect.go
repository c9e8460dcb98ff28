package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rendertree/pkg/frame"
	"github.com/vango-dev/rendertree/pkg/layout"
	"github.com/vango-dev/rendertree/pkg/tree"
)

var (
	elementColor   = color.New(color.FgCyan)
	attributeColor = color.New(color.FgYellow)
	textColor      = color.New(color.FgWhite)
	componentColor = color.New(color.FgMagenta, color.Bold)
	dimColor       = color.New(color.FgHiBlack)
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var packed bool

	cmd := &cobra.Command{
		Use:   "inspect <tree-file>",
		Short: "Build a tree document and print its frames",
		Long: `Build a tree document and print the resulting frame sequence.

Each line shows the frame index, its sequence number and kind-specific
fields. Container frames show their subtree length.

Examples:
  rendertree inspect counter.yaml
  rendertree inspect --packed counter.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			seq, err := buildFile(args[0], cfg, newRegistry(flags.strict), tree.WithLogger(logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printSequence(out, seq); err != nil {
				return err
			}
			if !packed {
				return nil
			}

			img, err := layout.Pack(seq, cfg.LayoutLimits())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			success(out, "Packed %d records, %d strings, %d values, %d handles (%d bytes)",
				img.Len(), len(img.Strings), len(img.Values), len(img.Handles), len(img.Bytes()))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&packed, "packed", "p", false, "Also pack the sequence and print image statistics")

	return cmd
}

// printSequence writes one indented line per frame.
func printSequence(w io.Writer, seq tree.Sequence) error {
	return seq.Walk(func(depth, index int, f frame.Frame) error {
		indent := strings.Repeat("  ", depth)
		prefix := dimColor.Sprintf("%4d [seq %d]", index, f.Sequence())
		_, err := fmt.Fprintf(w, "%s %s%s\n", prefix, indent, describe(f))
		return err
	})
}

func describe(f frame.Frame) string {
	switch f.Kind() {
	case frame.KindElement:
		return elementColor.Sprintf("<%s>", f.ElementName()) +
			dimColor.Sprintf(" (%d frames)", f.ElementSubtreeLength())
	case frame.KindText:
		return textColor.Sprintf("%q", f.TextContent())
	case frame.KindAttribute:
		return attributeColor.Sprintf("%s=%s", f.AttributeName(), f.AttributeValue())
	case frame.KindComponent:
		s := componentColor.Sprint(f.ComponentType().String())
		if f.IsBound() {
			s += dimColor.Sprintf(" #%d", f.ComponentID())
		}
		return s + dimColor.Sprintf(" (%d frames)", f.ComponentSubtreeLength())
	default:
		return f.String()
	}
}
