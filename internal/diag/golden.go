package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"borrowck/internal/source"
)

// goldenLine is one rendered entry: a diagnostic or one of its notes.
type goldenLine struct {
	label, code, path string
	line, col         uint32
	msg               string
}

func (g goldenLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", g.label, g.code, g.path, g.line, g.col, g.msg)
}

// FormatGoldenDiagnostics renders diagnostics one per line as
// "<severity> <CODE> <path>:<line>:<col> <message>" for golden comparisons.
// Notes become "note" lines under the code of their diagnostic. Paths are
// relative to the FileSet base directory; entries are sorted by path,
// position, label, code and message. Spans of unknown files are skipped.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	var lines []goldenLine
	add := func(label string, code Code, sp source.Span, msg string) {
		f := fs.Get(sp.File)
		if f == nil {
			return
		}
		start, _ := fs.Resolve(sp)
		lines = append(lines, goldenLine{
			label: label,
			code:  code.ID(),
			path:  goldenPath(f.FormatPath("relative", fs.BaseDir())),
			line:  start.Line,
			col:   start.Col,
			msg:   strings.Join(strings.Fields(msg), " "),
		})
	}
	for i := range diags {
		d := &diags[i]
		add(d.Severity.Label(), d.Code, d.Primary, d.Message)
		if includeNotes {
			for _, n := range d.Notes {
				add("note", d.Code, n.Span, n.Msg)
			}
		}
	}

	slices.SortStableFunc(lines, func(a, b goldenLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.line, b.line),
			cmp.Compare(a.col, b.col),
			cmp.Compare(a.label, b.label),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func goldenPath(p string) string {
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
