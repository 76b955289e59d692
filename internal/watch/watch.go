// Package watch re-runs a check whenever input files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"borrowck/internal/driver"
)

// DefaultDebounce is the quiet period after the last event before a re-check.
const DefaultDebounce = 150 * time.Millisecond

type Options struct {
	Include  []string
	Debounce time.Duration
}

// Handler receives the sorted set of changed input files.
type Handler func(ctx context.Context, changed []string) error

// Watcher tracks directories for changes to input files. Directories are
// watched recursively; explicitly named files are watched through their
// parent directory.
type Watcher struct {
	fw    *fsnotify.Watcher
	roots []string
	files map[string]struct{}
	opts  Options
}

func New(paths []string, opts Options) (*Watcher, error) {
	if len(opts.Include) == 0 {
		opts.Include = driver.DefaultInclude
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fw: fw, files: make(map[string]struct{}), opts: opts}
	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		if !info.IsDir() {
			w.files[p] = struct{}{}
			err = fw.Add(filepath.Dir(p))
		} else {
			w.roots = append(w.roots, p)
			err = w.addTree(p)
		}
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}
	return w, nil
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// relevant reports whether path is an input file the watcher cares about.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if _, ok := w.files[path]; ok {
		return true
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if ok, _ := driver.MatchInclude(filepath.ToSlash(rel), w.opts.Include); ok {
			return true
		}
	}
	return false
}

// Run delivers changes to h until ctx is cancelled or h fails. Bursts of
// events are coalesced: h runs once the debounce period passes without new
// events.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && w.underRoot(ev.Name) {
					if err := w.addTree(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
						return fmt.Errorf("watch %s: %w", ev.Name, err)
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.relevant(ev.Name) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)
			if err := h(ctx, changed); err != nil {
				return err
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}
