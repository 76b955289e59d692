package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	lone := filepath.Join(t.TempDir(), "lone.txt")
	if err := os.WriteFile(lone, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := New([]string{dir, lone}, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	cases := map[string]bool{
		filepath.Join(dir, "a.bck.json"):               true,
		filepath.Join(dir, "sub", "b.bck.mp"):          true,
		filepath.Join(dir, "notes.txt"):                false,
		filepath.Join(dir, "..", "x.bck.json"):         false,
		lone:                                           true,
		filepath.Join(filepath.Dir(lone), "other.txt"): false,
	}
	for path, want := range cases {
		if got := w.relevant(path); got != want {
			t.Fatalf("relevant(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestRunReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			got <- changed
			return nil
		})
	}()

	target := filepath.Join(dir, "main.bck.json")
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-got:
		if len(changed) != 1 || changed[0] != target {
			t.Fatalf("unexpected change set %v", changed)
		}
	case <-ctx.Done():
		t.Fatalf("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
