package ast

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitChar
	LitUnit
)

// WrapKind lists single-operand nodes that are checked through their operand.
type WrapKind uint8

const (
	WrapSpawn WrapKind = iota
	WrapAwait
	WrapTry
	WrapUnwrap
	WrapCast
)

func (k WrapKind) String() string {
	switch k {
	case WrapSpawn:
		return "spawn"
	case WrapAwait:
		return "await"
	case WrapTry:
		return "try"
	case WrapUnwrap:
		return "unwrap"
	case WrapCast:
		return "cast"
	default:
		return "wrap"
	}
}

type (
	Ident struct {
		Loc
		Name string
	}

	Literal struct {
		Loc
		Kind  LitKind
		Value string
	}

	Binary struct {
		Loc
		Op          string
		Left, Right Expr
	}

	Unary struct {
		Loc
		Op      string
		Operand Expr
	}

	Call struct {
		Loc
		Callee Expr
		Args   []Expr
	}

	MethodCall struct {
		Loc
		Receiver Expr
		Method   string
		Args     []Expr
	}

	// Ref is &Operand or &mut Operand.
	Ref struct {
		Loc
		Operand Expr
		Mut     bool
	}

	Deref struct {
		Loc
		Operand Expr
	}

	Assign struct {
		Loc
		Target, Value Expr
	}

	// CompoundAssign is Target Op= Value.
	CompoundAssign struct {
		Loc
		Op            string
		Target, Value Expr
	}

	// Block evaluates to Tail when it has one.
	Block struct {
		Loc
		Stmts []Stmt
		Tail  Expr
	}

	// If holds an else branch that is nil, a *Block or another *If.
	If struct {
		Loc
		Cond Expr
		Then *Block
		Else Expr
	}

	// Loop is `loop {}` when Iter is nil, otherwise `for Pattern in Iter {}`.
	Loop struct {
		Loc
		Pattern string
		Iter    Expr
		Body    *Block
	}

	While struct {
		Loc
		Cond Expr
		Body *Block
	}

	Match struct {
		Loc
		Scrutinee Expr
		Arms      []MatchArm
	}

	Lambda struct {
		Loc
		Params []Param
		Body   Expr
	}

	Tuple struct {
		Loc
		Elems []Expr
	}

	Array struct {
		Loc
		Elems []Expr
	}

	StructLit struct {
		Loc
		Name   string
		Fields []FieldInit
	}

	// Field carries the resolved field type when the front end supplies it;
	// consuming a field of non-Copy type moves it out of its base.
	Field struct {
		Loc
		Operand Expr
		Name    string
		Type    *types.Type
	}

	Index struct {
		Loc
		Operand, Index Expr
	}

	// Wrap covers spawn, await, try, unwrap and cast. Type is set for casts.
	Wrap struct {
		Loc
		Kind    WrapKind
		Operand Expr
		Type    *types.Type
	}
)

// MatchArm binds Bindings for the duration of Guard and Body.
type MatchArm struct {
	Bindings []string
	Guard    Expr
	Body     Expr
	Sp       source.Span
}

type FieldInit struct {
	Name  string
	Value Expr
}

func (*Ident) exprNode()          {}
func (*Literal) exprNode()        {}
func (*Binary) exprNode()         {}
func (*Unary) exprNode()          {}
func (*Call) exprNode()           {}
func (*MethodCall) exprNode()     {}
func (*Ref) exprNode()            {}
func (*Deref) exprNode()          {}
func (*Assign) exprNode()         {}
func (*CompoundAssign) exprNode() {}
func (*Block) exprNode()          {}
func (*If) exprNode()             {}
func (*Loop) exprNode()           {}
func (*While) exprNode()          {}
func (*Match) exprNode()          {}
func (*Lambda) exprNode()         {}
func (*Tuple) exprNode()          {}
func (*Array) exprNode()          {}
func (*StructLit) exprNode()      {}
func (*Field) exprNode()          {}
func (*Index) exprNode()          {}
func (*Wrap) exprNode()           {}
