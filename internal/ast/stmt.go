package ast

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

type (
	// Let declares Name. Type is nil when the declaration carries none.
	Let struct {
		Loc
		Name  string
		Mut   bool
		Type  *types.Type
		Value Expr
	}

	// LetTuple destructures Value into several bindings.
	LetTuple struct {
		Loc
		Bindings []Binding
		Value    Expr
	}

	ExprStmt struct {
		Loc
		X Expr
	}

	Return struct {
		Loc
		Value Expr
	}

	Break struct {
		Loc
		Value Expr
	}

	Continue struct {
		Loc
	}

	Defer struct {
		Loc
		X Expr
	}
)

type Binding struct {
	Name string
	Mut  bool
	Sp   source.Span
}

func (*Let) stmtNode()      {}
func (*LetTuple) stmtNode() {}
func (*ExprStmt) stmtNode() {}
func (*Return) stmtNode()   {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*Defer) stmtNode()    {}
