package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"borrowck/internal/config"
	"borrowck/internal/diagfmt"
	"borrowck/internal/driver"
)

var (
	manifestOnce   sync.Once
	loadedManifest *config.Manifest
	manifestErr    error
)

// manifest returns the borrowck.toml governing the working directory, or
// the defaults when there is none. It is loaded once per process.
func manifest() (*config.Manifest, error) {
	manifestOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			manifestErr = err
			return
		}
		loadedManifest, _, manifestErr = config.Discover(wd)
	})
	return loadedManifest, manifestErr
}

var useColor bool

func applyColorFlag(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		useColor = isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	case "on":
		useColor = true
	case "off":
		useColor = false
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	color.NoColor = !useColor
	return nil
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatShort  outputFormat = "short"
	formatJSON   outputFormat = "json"
)

type checkSettings struct {
	opts     driver.Options
	include  []string
	format   outputFormat
	pathMode diagfmt.PathMode
	context  int8
	notes    bool
	hints    bool
	ui       bool
}

func addCheckFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", "", "check mode (strict|collecting); defaults to borrowck.toml, then collecting")
	f.Int("jobs", 0, "files checked in parallel (0 = GOMAXPROCS)")
	f.Int("max-diagnostics", 0, "maximum diagnostics kept per file")
	f.Bool("cache", false, "reuse results from the on-disk cache")
	f.String("cache-dir", "", "cache directory (default $XDG_CACHE_HOME/borrowck)")
	f.String("format", string(formatPretty), "output format (pretty|short|json)")
	f.String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	f.Int8("context", 0, "source lines shown above each diagnostic")
	f.Bool("notes", false, "render notes with their own source excerpt")
	f.Bool("hints", false, "print remediation help for each diagnostic")
	f.String("ui", string(uiModeAuto), "progress UI (auto|on|off)")
}

// resolveCheckSettings layers the check flags over borrowck.toml.
func resolveCheckSettings(cmd *cobra.Command) (*checkSettings, error) {
	m, err := manifest()
	if err != nil {
		return nil, err
	}
	cfg := m.Config
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Check.Mode, _ = f.GetString("mode")
	}
	if f.Changed("jobs") {
		cfg.Check.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("max-diagnostics") {
		cfg.Check.MaxDiagnostics, _ = f.GetInt("max-diagnostics")
	}
	if f.Changed("cache") {
		cfg.Cache.Enabled, _ = f.GetBool("cache")
	}
	if f.Changed("cache-dir") {
		cfg.Cache.Dir, _ = f.GetString("cache-dir")
		cfg.Cache.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	s := &checkSettings{
		include: cfg.Check.Include,
		opts: driver.Options{
			Mode:           cfg.Mode(),
			MaxDiagnostics: cfg.Check.MaxDiagnostics,
			Jobs:           cfg.Check.Jobs,
			BaseDir:        wd,
		},
	}
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir != "" && m.Root != "" && !f.Changed("cache-dir") {
			dir = resolveFrom(m.Root, dir)
		}
		cache, err := driver.OpenDiskCache("borrowck", dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		s.opts.Cache = cache
	}

	format, _ := f.GetString("format")
	switch outputFormat(strings.ToLower(format)) {
	case formatPretty, formatShort, formatJSON:
		s.format = outputFormat(strings.ToLower(format))
	default:
		return nil, fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}
	pm, _ := f.GetString("path-mode")
	var ok bool
	if s.pathMode, ok = diagfmt.ParsePathMode(pm); !ok {
		return nil, fmt.Errorf("invalid --path-mode value %q", pm)
	}
	s.context, _ = f.GetInt8("context")
	s.notes, _ = f.GetBool("notes")
	s.hints, _ = f.GetBool("hints")

	uiValue, _ := f.GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return nil, err
	}
	s.ui = wantProgressUI(mode, s.format, quiet(cmd))
	return s, nil
}

// resolveFrom joins a relative path from borrowck.toml to the manifest root.
func resolveFrom(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
