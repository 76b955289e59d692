package diagfmt

import (
	"fmt"
	"io"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

// Short writes one line per diagnostic in the compiler-style
// "path:line:col: severity[CODE]: message" form. Notes are indented below
// their diagnostic.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode, withNotes bool) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s[%s]: %s\n", location(fs, d.Primary, mode), d.Severity.Label(), d.Code.ID(), d.Message)
		if !withNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s: note: %s\n", location(fs, n.Span, mode), n.Msg)
		}
	}
}
