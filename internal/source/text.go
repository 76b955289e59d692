package source

import (
	"bytes"
	"path/filepath"
	"sort"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textFlags describes the line conventions of content. Bytes are never
// rewritten: front ends report spans as offsets into the text they read.
func textFlags(content []byte) FileFlags {
	var fl FileFlags
	if bytes.HasPrefix(content, utf8BOM) {
		fl |= FileHasBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		fl |= FileHasCRLF
	}
	return fl
}

// lineIndex holds the offset of every '\n' in content.
func lineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- bounded by file size checked in GetLine
		}
	}
	return out
}

// position maps a byte offset to a 1-based line and column. A newline
// belongs to the line it ends.
func position(lineIdx []uint32, off uint32) LineCol {
	before := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	if before == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	return LineCol{Line: uint32(before) + 1, Col: off - lineIdx[before-1]} // #nosec G115
}

func cleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
