package source

type (
	// FileID indexes a file within its FileSet.
	FileID uint32
	// FileFlags records how a file was added and what its text looks like.
	FileFlags uint8
)

const (
	// FileVirtual marks text added from memory: tests and embedded unit sources.
	FileVirtual FileFlags = 1 << iota
	FileHasBOM
	// FileHasCRLF marks text with Windows line endings; GetLine strips the CR.
	FileHasCRLF
)

// File is one registered text together with its line index.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
