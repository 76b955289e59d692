package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"borrowck/internal/unit"
)

var packCmd = &cobra.Command{
	Use:   "pack <input> [output]",
	Short: "Convert a unit file between JSON and MessagePack",
	Long: `Re-encode a unit file. Without an output path a .bck.json input is written
next to it as .bck.mp and the reverse. The document is validated on the way.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	in := args[0]
	from := unit.EncodingOf(in)
	if from == unit.EncodingUnknown {
		return fmt.Errorf("%s: expected a %s or %s file", in, unit.ExtJSON, unit.ExtMsgpack)
	}
	out := ""
	if len(args) == 2 {
		out = args[1]
	} else {
		out = swapExt(in, from)
	}
	to := unit.EncodingOf(out)
	if to == unit.EncodingUnknown {
		return fmt.Errorf("%s: expected a %s or %s file", out, unit.ExtJSON, unit.ExtMsgpack)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	doc, err := unit.Parse(in, data, from)
	if err != nil {
		return err
	}
	encoded, err := doc.Encode(to)
	if err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return err
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %d bytes)\n", in, out, to, len(encoded))
	}
	return nil
}

func swapExt(path string, enc unit.Encoding) string {
	if enc == unit.EncodingJSON {
		return strings.TrimSuffix(path, unit.ExtJSON) + unit.ExtMsgpack
	}
	return strings.TrimSuffix(path, unit.ExtMsgpack) + unit.ExtJSON
}
