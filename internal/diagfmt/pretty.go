package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

type palette struct {
	err, warn, info, note, help, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgGreen, color.Bold),
		help:   color.New(color.FgCyan),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.help, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty formats diagnostics in a human-readable form, in bag order
// (callers sort the bag first). Each diagnostic renders as
//
//	error[SEM3101]: use of moved value 's'
//	 --> main.bck.json:5:3
//	  |
//	5 |   consume(s)
//	  |   ^
//	  = note: value moved here (main.bck.json:4:11)
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts, p)
	}
	if n := bag.Len(); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.bold.Sprint(summary(bag)))
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	label := d.Severity.Label()
	fmt.Fprintf(w, "%s%s %s\n",
		p.severity(d.Severity).Sprintf("%s[%s]", label, d.Code.ID()),
		p.bold.Sprint(":"),
		p.bold.Sprint(d.Message))

	gutterWidth := snippet(w, d.Primary, fs, opts, p, p.caret)

	pad := strings.Repeat(" ", gutterWidth)
	for _, n := range d.Notes {
		if opts.ShowNotes {
			fmt.Fprintf(w, "%s%s %s\n", pad, p.note.Sprint("note:"), n.Msg)
			snippet(w, n.Span, fs, opts, p, p.note)
			continue
		}
		fmt.Fprintf(w, "%s%s %s %s (%s)\n", pad, p.gutter.Sprint("="), p.note.Sprint("note:"), n.Msg, location(fs, n.Span, opts.PathMode))
	}
	if opts.ShowHelp {
		if help := d.Code.Help(); help != "" {
			fmt.Fprintf(w, "%s%s %s %s\n", pad, p.gutter.Sprint("="), p.help.Sprint("help:"), help)
		}
	}
}

// snippet writes the location arrow and the source excerpt of span and
// returns the gutter width used.
func snippet(w io.Writer, span source.Span, fs *source.FileSet, opts PrettyOpts, p palette, marker *color.Color) int {
	f := fs.Get(span.File)
	if f == nil {
		fmt.Fprintf(w, "  %s <unknown>\n", p.gutter.Sprint("-->"))
		return 2
	}
	start, end := fs.Resolve(span)
	lines := excerpt(f, start.Line, opts.Context)
	gutterWidth := len(strconv.FormatUint(uint64(start.Line), 10)) + 1
	pad := strings.Repeat(" ", gutterWidth)
	bar := p.gutter.Sprint("|")

	fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad[1:], p.gutter.Sprint("-->"), formatPath(fs, span.File, opts.PathMode), start.Line, start.Col)
	fmt.Fprintf(w, "%s%s\n", pad, bar)
	for _, l := range lines {
		num := strconv.FormatUint(uint64(l.num), 10)
		fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat(" ", gutterWidth-1-len(num)), p.gutter.Sprint(num), bar, l.text)
	}
	primary := lines[len(lines)-1].text
	if u := underline(primary, start, end); u != "" {
		fmt.Fprintf(w, "%s%s %s\n", pad, bar, marker.Sprint(u))
	}
	return gutterWidth
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs.Get(span.File) == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, span.File, mode), start.Line, start.Col)
}

func summary(bag *diag.Bag) string {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
