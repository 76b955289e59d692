package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"borrowck/internal/driver"
	"borrowck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Check unit files and re-check them whenever they change",
	RunE:  runWatch,
}

func init() {
	addCheckFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a re-check")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := resolveCheckSettings(cmd)
	if err != nil {
		return err
	}
	// The progress UI owns the terminal; it does not mix with a long-running
	// stream of results.
	s.ui = false
	if len(args) == 0 {
		args = []string{"."}
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := driver.Discover(args, s.include)
	if err != nil {
		return err
	}
	if err := recheck(ctx, cmd, s, files); err != nil {
		return err
	}

	w, err := watch.New(args, watch.Options{Include: s.include, Debounce: debounce})
	if err != nil {
		return err
	}
	defer w.Close()
	if !quiet(cmd) {
		fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl+C to stop")
	}
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		return recheck(ctx, cmd, s, changed)
	})
}

// recheck checks files and prints the results. Diagnostics do not stop the
// watch loop.
func recheck(ctx context.Context, cmd *cobra.Command, s *checkSettings, files []string) error {
	if len(files) == 0 {
		return nil
	}
	start := time.Now()
	res, err := driver.CheckFiles(ctx, files, s.opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if !quiet(cmd) && s.format != formatJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", time.Now().Format(time.TimeOnly), runSummary(res, time.Since(start)))
	}
	return render(cmd.OutOrStdout(), res, s)
}
