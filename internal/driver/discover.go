package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"borrowck/internal/unit"
)

// DefaultInclude matches every input encoding.
var DefaultInclude = []string{"**/*" + unit.ExtJSON, "**/*" + unit.ExtMsgpack}

// Discover expands paths into a sorted, duplicate-free list of input files.
// Files named explicitly are kept whatever their name; directories are
// walked and filtered through include.
func Discover(paths, include []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			ok, err := MatchInclude(filepath.ToSlash(rel), include)
			if err != nil {
				return err
			}
			if ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// MatchInclude matches the slash-separated relative path rel against glob
// patterns. A leading "**/" matches any number of directories.
func MatchInclude(rel string, patterns []string) (bool, error) {
	for _, pat := range patterns {
		if rest, ok := strings.CutPrefix(pat, "**/"); ok {
			for p := rel; ; {
				ok, err := filepath.Match(rest, p)
				if err != nil {
					return false, fmt.Errorf("include pattern %q: %w", pat, err)
				}
				if ok {
					return true, nil
				}
				i := strings.IndexByte(p, '/')
				if i < 0 {
					break
				}
				p = p[i+1:]
			}
			continue
		}
		ok, err := filepath.Match(pat, rel)
		if err != nil {
			return false, fmt.Errorf("include pattern %q: %w", pat, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
