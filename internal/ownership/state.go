// Package ownership tracks moves and borrows of local variables while walking
// a function body.
package ownership

import (
	"fmt"
	"slices"
	"strings"

	"borrowck/internal/scope"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

type StateKind uint8

const (
	Owned StateKind = iota
	Moved
	PartiallyMoved
	Borrowed
	MutBorrowed
)

func (k StateKind) String() string {
	switch k {
	case Owned:
		return "owned"
	case Moved:
		return "moved"
	case PartiallyMoved:
		return "partially moved"
	case Borrowed:
		return "borrowed"
	case MutBorrowed:
		return "mutably borrowed"
	default:
		return fmt.Sprintf("StateKind(%d)", k)
	}
}

// State is the ownership state of one variable. Only the fields of its Kind
// are meaningful.
type State struct {
	Kind StateKind

	MovedTo string // Moved
	MovedAt source.Span

	MovedFields map[string]source.Span // PartiallyMoved

	Count    int    // Borrowed
	Borrower string // MutBorrowed
}

func (s State) String() string {
	switch s.Kind {
	case Moved:
		return "moved to " + s.MovedTo
	case PartiallyMoved:
		return "partially moved (" + strings.Join(s.Fields(), ", ") + ")"
	case Borrowed:
		return fmt.Sprintf("borrowed x%d", s.Count)
	case MutBorrowed:
		return "mutably borrowed by " + s.Borrower
	default:
		return s.Kind.String()
	}
}

// Fields lists moved fields in order.
func (s State) Fields() []string {
	out := make([]string, 0, len(s.MovedFields))
	for f := range s.MovedFields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (s State) clone() State {
	if s.MovedFields != nil {
		fields := make(map[string]source.Span, len(s.MovedFields))
		for k, v := range s.MovedFields {
			fields[k] = v
		}
		s.MovedFields = fields
	}
	return s
}

// firstMove returns the earliest field move, used as the secondary position.
func (s State) firstMove() source.Span {
	var first source.Span
	for _, f := range s.Fields() {
		if sp := s.MovedFields[f]; first == source.NoSpan || sp.Before(first) {
			first = sp
		}
	}
	return first
}

// Info is the ownership record of one declared variable.
type Info struct {
	Name    string
	State   State
	Type    *types.Type
	Mut     bool
	Copy    bool
	Scope   scope.ID
	Param   bool
	Defined source.Span
}

// owned reports whether the function frame owns the variable's data, which is
// true for locals and by-value parameters.
func (i *Info) owned() bool {
	return !i.Param || !i.Type.IsReference()
}

type TargetKind uint8

const (
	// TargetTracked is a borrow of a named variable.
	TargetTracked TargetKind = iota
	// TargetOpaque is a borrow of a computed place; it never conflicts.
	TargetOpaque
)

// BorrowTarget is what a borrow points at.
type BorrowTarget struct {
	Kind TargetKind
	Var  string // TargetTracked

	info *Info
}

func (t BorrowTarget) String() string {
	if t.Kind == TargetOpaque {
		return "<expression>"
	}
	return t.Var
}

type BorrowID uint32

// BorrowInfo is one active borrow.
type BorrowInfo struct {
	ID        BorrowID
	Borrower  string
	Target    BorrowTarget
	Mut       bool
	Scope     scope.ID
	At        source.Span
	Temporary bool // ends with its statement

	holder holder
}

// holder is what keeps a borrow alive: a declared variable, or a synthetic
// name for temporaries and borrowers that were never declared.
type holder struct {
	info *Info
	name string
}
