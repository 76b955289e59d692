package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"borrowck/internal/diag"
	"borrowck/internal/ownership"
)

const moveTwice = `{
  "format": "1.0.0",
  "source": "let s = \"text\";\nf(s);\nf(s);\n",
  "functions": [{
    "name": "main",
    "body": [
      {"kind": "let", "name": "s", "span": [4, 5], "value": {"kind": "literal", "lit": "string", "text": "text", "span": [8, 14]}},
      {"kind": "call", "callee": {"kind": "ident", "name": "f"}, "args": [{"kind": "ident", "name": "s", "span": [18, 19]}]},
      {"kind": "call", "callee": {"kind": "ident", "name": "f"}, "args": [{"kind": "ident", "name": "s", "span": [24, 25]}]}
    ]
  }]
}`

const clean = `{"format": "1.0.0", "functions": [{"name": "noop"}]}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.bck.json"), clean)
	writeFile(t, filepath.Join(dir, "nested", "deep", "b.bck.mp"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, ".hidden", "c.bck.json"), clean)
	explicit := filepath.Join(dir, "notes.txt")

	files, err := Discover([]string{dir, explicit, dir}, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.bck.json"),
		filepath.Join(dir, "nested", "deep", "b.bck.mp"),
		explicit,
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Fatalf("files:\n%s\nwant:\n%s", strings.Join(files, "\n"), strings.Join(want, "\n"))
	}

	only, err := Discover([]string{dir}, []string{"a.*"})
	if err != nil || len(only) != 1 {
		t.Fatalf("include filter: %v %v", only, err)
	}
	if _, err := Discover([]string{dir}, []string{"["}); err == nil {
		t.Fatalf("bad pattern should fail")
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) final(file string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last Status
	for _, ev := range r.events {
		if ev.File == file {
			last = ev.Status
		}
	}
	return last
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.bck.json")
	good := filepath.Join(dir, "good.bck.json")
	broken := filepath.Join(dir, "broken.bck.json")
	writeFile(t, bad, moveTwice)
	writeFile(t, good, clean)
	writeFile(t, broken, `{"format": "9.0.0"}`)

	rec := &recorder{}
	res, err := CheckFiles(context.Background(), []string{bad, broken, good}, Options{
		Mode:     ownership.ModeCollecting,
		Jobs:     2,
		Progress: rec,
		BaseDir:  dir,
	})
	if err != nil {
		t.Fatalf("CheckFiles: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("expected errors")
	}
	got := diag.FormatGoldenDiagnostics(res.Diagnostics(), res.FileSet, true)
	want := "note SEM3101 bad.bck.json:2:3 value moved here\n" +
		"error SEM3101 bad.bck.json:3:3 use of moved value 's'\n" +
		"error IO4003 broken.bck.json:1:1 format version 9.0.0 does not satisfy ^1"
	if got != want {
		t.Fatalf("diagnostics:\n%s\nwant:\n%s", got, want)
	}
	if res.Files[2].Bag.Len() != 0 || res.Files[2].Functions != 1 {
		t.Fatalf("clean file result: %+v", res.Files[2])
	}
	if rec.final(bad) != StatusError || rec.final(good) != StatusDone || rec.final(broken) != StatusError {
		t.Fatalf("progress: %+v", rec.events)
	}
}

func TestCheckFilesCache(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.bck.json")
	writeFile(t, bad, moveTwice)
	cache, err := OpenDiskCache("borrowck", filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	opts := Options{Mode: ownership.ModeCollecting, Cache: cache, BaseDir: dir}

	first, err := CheckFiles(context.Background(), []string{bad}, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := CheckFiles(context.Background(), []string{bad}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Files[0].Cached || !second.Files[0].Cached {
		t.Fatalf("cached flags: first=%v second=%v", first.Files[0].Cached, second.Files[0].Cached)
	}
	a := diag.FormatGoldenDiagnostics(first.Diagnostics(), first.FileSet, true)
	b := diag.FormatGoldenDiagnostics(second.Diagnostics(), second.FileSet, true)
	if a != b || a == "" {
		t.Fatalf("cached diagnostics differ:\n%s\nvs\n%s", a, b)
	}

	strict := opts
	strict.Mode = ownership.ModeStrict
	third, err := CheckFiles(context.Background(), []string{bad}, strict)
	if err != nil || third.Files[0].Cached {
		t.Fatalf("mode must be part of the key: cached=%v err=%v", third.Files[0].Cached, err)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	var payload DiskPayload
	if hit, err := cache.Get(CacheKey("x", "y", nil), &payload); hit || err != nil {
		t.Fatalf("empty cache lookup: %v %v", hit, err)
	}
}
