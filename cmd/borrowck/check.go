package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"borrowck/internal/diag"
	"borrowck/internal/diagfmt"
	"borrowck/internal/driver"
	"borrowck/internal/observ"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Infer regions and check ownership for unit files",
	Long: `Check every unit file named on the command line, or found under the given
directories (the current directory by default). Directories are filtered by the
[check].include globs of borrowck.toml. Exits with status 1 when any error is
reported.`,
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := resolveCheckSettings(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	timer := observ.NewTimer()
	if showTimings(cmd) {
		defer func() { fmt.Fprint(cmd.ErrOrStderr(), timer.Summary()) }()
	}

	var files []string
	err = timer.Track("discover", func() (string, error) {
		var err error
		files, err = driver.Discover(args, s.include)
		return fmt.Sprintf("%d files", len(files)), err
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !quiet(cmd) {
			fmt.Fprintln(cmd.ErrOrStderr(), "no unit files found")
		}
		return nil
	}

	start := time.Now()
	var res *driver.Result
	err = timer.Track("check", func() (string, error) {
		var err error
		if s.ui {
			res, err = runCheckWithUI(cmd.Context(), "checking", files, s.opts)
		} else {
			res, err = driver.CheckFiles(cmd.Context(), files, s.opts)
		}
		return s.opts.Mode.String(), err
	})
	if err != nil {
		return err
	}
	err = timer.Track("render", func() (string, error) {
		return string(s.format), render(cmd.OutOrStdout(), res, s)
	})
	if err != nil {
		return err
	}
	if !quiet(cmd) && s.format != formatJSON {
		fmt.Fprintln(cmd.ErrOrStderr(), runSummary(res, time.Since(start)))
	}
	if res.HasErrors() {
		dumpTraceRing = true
		return errCheckFailed
	}
	return nil
}

func showTimings(cmd *cobra.Command) bool {
	t, _ := cmd.Root().PersistentFlags().GetBool("timings")
	return t
}

// render writes the diagnostics of every file in input order.
func render(w io.Writer, res *driver.Result, s *checkSettings) error {
	if s.format == formatJSON {
		out := make(map[string]diagfmt.DiagnosticsOutput, len(res.Files))
		for _, f := range res.Files {
			out[f.Path] = diagfmt.BuildDiagnosticsOutput(f.Bag, res.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         s.pathMode,
				IncludeNotes:     true,
				IncludeHelp:      s.hints,
			})
		}
		return diagfmt.JSONFiles(w, out)
	}

	all := diag.NewBag(1)
	for _, f := range res.Files {
		all.Merge(f.Bag)
	}
	if all.Len() == 0 {
		return nil
	}
	switch s.format {
	case formatShort:
		diagfmt.Short(w, all, res.FileSet, s.pathMode, true)
	default:
		diagfmt.Pretty(w, all, res.FileSet, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   s.context,
			PathMode:  s.pathMode,
			ShowNotes: s.notes,
			ShowHelp:  s.hints,
		})
	}
	return nil
}

func runSummary(res *driver.Result, elapsed time.Duration) string {
	var functions, cached, failed int
	for _, f := range res.Files {
		functions += f.Functions
		if f.Cached {
			cached++
		}
		if f.Bag.HasErrors() {
			failed++
		}
	}
	return fmt.Sprintf("checked %d files (%d functions, %d cached, %d failed) in %s",
		len(res.Files), functions, cached, failed, elapsed.Round(time.Millisecond))
}
