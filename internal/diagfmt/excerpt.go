package diagfmt

import (
	"strings"

	"borrowck/internal/source"
)

// formatPath renders the file path of id according to mode.
func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	default:
		return f.FormatPath(mode.String(), "")
	}
}

// excerptLine is one rendered source line of an excerpt.
type excerptLine struct {
	num  uint32
	text string
}

// excerpt returns the primary line of span preceded by up to context lines.
func excerpt(f *source.File, line uint32, context int8) []excerptLine {
	first := line
	for i := int8(0); i < context && first > 1; i++ {
		first--
	}
	out := make([]excerptLine, 0, line-first+1)
	for n := first; n <= line; n++ {
		out = append(out, excerptLine{num: n, text: expandTabs(f.GetLine(n))})
	}
	return out
}

// underline builds the "^~~~" marker for the columns [startCol, endCol) of a
// line. A span that ends on a later line is underlined to the end of text.
func underline(text string, start, end source.LineCol) string {
	if start.Col == 0 {
		return ""
	}
	from := int(start.Col) - 1
	to := int(end.Col) - 1
	if end.Line != start.Line {
		to = len(text)
	}
	if from > len(text) {
		from = len(text)
	}
	width := max(to-from, 1)
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", from))
	sb.WriteByte('^')
	if width > 1 {
		sb.WriteString(strings.Repeat("~", width-1))
	}
	return sb.String()
}

func expandTabs(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\r"), "\t", " ")
}
