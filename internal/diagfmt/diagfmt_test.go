package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

const movedSource = "let s = x;\nconsume(s);\n"

func movedBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.bck.json", []byte(movedSource))
	bag := diag.NewBag(0)
	d := diag.NewError(diag.SemaUseAfterMove, source.Span{File: id, Start: 19, End: 20}, "use of moved value 's'").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "value moved here")
	bag.Add(d)
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := movedBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})

	want := strings.Join([]string{
		"error[SEM3101]: use of moved value 's'",
		" --> main.bck.json:2:9",
		"  |",
		"2 | consume(s);",
		"  |         ^",
		"  = note: value moved here (main.bck.json:1:5)",
		"",
		"1 error, 0 warnings",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("pretty output mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestPrettyContextNotesAndHelp(t *testing.T) {
	bag, fs := movedBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true, ShowHelp: true})
	got := buf.String()

	for _, want := range []string{
		"1 | let s = x;\n2 | consume(s);\n",
		"  note: value moved here\n --> main.bck.json:1:5\n",
		"  |     ^\n",
		"  = help: " + diag.SemaUseAfterMove.Help(),
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestUnderlineWidth(t *testing.T) {
	text := "borrow(&mut value)"
	u := underline(text, source.LineCol{Line: 1, Col: 8}, source.LineCol{Line: 1, Col: 18})
	if u != "       ^~~~~~~~~" {
		t.Fatalf("unexpected underline %q", u)
	}
	multi := underline(text, source.LineCol{Line: 1, Col: 8}, source.LineCol{Line: 3, Col: 2})
	if len(multi) != len(text) {
		t.Fatalf("multi-line span should underline to end of line, got %q", multi)
	}
}

func TestShort(t *testing.T) {
	bag, fs := movedBag(t)
	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeAuto, true)
	want := "main.bck.json:2:9: error[SEM3101]: use of moved value 's'\n" +
		"  main.bck.json:1:5: note: value moved here\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := movedBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Errors != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3101" || d.Severity != "error" || d.Location.StartLine != 2 || d.Location.StartCol != 9 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 1 {
		t.Fatalf("unexpected notes: %+v", d.Notes)
	}
	if d.Help != "" {
		t.Fatalf("help should be omitted unless requested")
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs := movedBag(t)
	bag.Add(diag.NewError(diag.SemaBorrowConflict, source.Span{File: 0, Start: 0, End: 3}, "second"))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Code != "SEM3101" {
		t.Fatalf("max should truncate output: %+v", out)
	}
}

func TestParsePathMode(t *testing.T) {
	for _, s := range []string{"auto", "absolute", "relative", "basename"} {
		m, ok := ParsePathMode(s)
		if !ok || m.String() != s {
			t.Fatalf("round trip failed for %q", s)
		}
	}
	if _, ok := ParsePathMode("nope"); ok {
		t.Fatalf("unknown mode accepted")
	}
}
