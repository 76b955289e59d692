package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"borrowck/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain [CODE]",
	Short: "Describe a diagnostic code, or list every code",
	Example: `  borrowck explain SEM3101
  borrowck explain 3203
  borrowck explain`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			listCodes(out)
			return nil
		}
		code, ok := diag.ParseCode(args[0])
		if !ok {
			return fmt.Errorf("unknown diagnostic code %q", args[0])
		}
		explainCode(out, code)
		return nil
	},
}

func listCodes(w io.Writer) {
	id := color.New(color.Bold)
	for _, code := range diag.Codes() {
		fmt.Fprintf(w, "%s  %s\n", id.Sprintf("%-8s", code.ID()), code.Title())
	}
}

func explainCode(w io.Writer, code diag.Code) {
	fmt.Fprintf(w, "%s: %s\n", color.New(color.FgRed, color.Bold).Sprint(code.ID()), code.Title())
	if help := code.Help(); help != "" {
		fmt.Fprintf(w, "\n%s %s\n", color.New(color.FgCyan).Sprint("help:"), help)
	}
}
