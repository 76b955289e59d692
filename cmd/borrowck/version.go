package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"borrowck/internal/unit"
	"borrowck/internal/version"
)

var versionFormat string

type versionPayload struct {
	Tool string `json:"tool"`
	version.Info
	UnitFormat string `json:"unit_format"`
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Current()
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFormat) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(versionPayload{Tool: "borrowck", Info: info, UnitFormat: unit.SupportedFormat})
		case "pretty":
			fmt.Fprintf(out, "borrowck %s\n", version.Colored())
			if info.GitCommit != "" {
				fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Fprintf(out, "built:  %s\n", info.BuildDate)
			}
			fmt.Fprintf(out, "reads unit format %s\n", unit.SupportedFormat)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}
