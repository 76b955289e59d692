package ownership

import (
	"borrowck/internal/diag"
	"borrowck/internal/source"
)

// Violation is one ownership or borrow error found by the walk.
type Violation struct {
	Code diag.Code
	Var  string
	Msg  string
	At   source.Span
	// Related is the conflicting earlier event, NoSpan when there is none.
	Related    source.Span
	RelatedMsg string

	// Borrow conflicts: mutability of the existing and the new borrow.
	ExistingMut bool
	NewMut      bool
	// Partial moves: fields already moved out.
	Fields []string
}

func (v *Violation) Error() string { return v.Msg }

// Diagnostic converts the violation into an error diagnostic.
func (v *Violation) Diagnostic() diag.Diagnostic {
	d := diag.NewError(v.Code, v.At, v.Msg)
	if v.Related != source.NoSpan && v.RelatedMsg != "" {
		d = d.WithNote(v.Related, v.RelatedMsg)
	}
	return d
}
