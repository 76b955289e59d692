// Package ast is the syntax tree the checker walks. Node kinds form a closed
// set: every Expr and Stmt implementation lives in this package and the
// engines switch over them exhaustively.
package ast

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Node is anything with a source position.
type Node interface {
	Span() source.Span
}

// Expr is an expression node. The marker method seals the set.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Loc is embedded by every node kind.
type Loc struct {
	Sp source.Span
}

func (l Loc) Span() source.Span { return l.Sp }

// Param is a function or lambda parameter.
type Param struct {
	Name string
	Type *types.Type
	Mut  bool
	Sp   source.Span
}

// SelfParam names the receiver parameter of methods.
const SelfParam = "self"

// RegionBound is an explicit 'region: 'a + 'b bound.
type RegionBound struct {
	Region   string
	Outlives []string
}

// Function is one checkable body with its resolved signature.
type Function struct {
	Name         string
	Impl         string // receiver type for methods, "" for free functions
	RegionParams []string
	RegionBounds []RegionBound
	Params       []Param
	Ret          *types.Type // nil means unit
	Body         *Block
	Sp           source.Span
}

func (f *Function) Span() source.Span { return f.Sp }

// QualifiedName is Impl.Name for methods.
func (f *Function) QualifiedName() string {
	if f.Impl == "" {
		return f.Name
	}
	return f.Impl + "." + f.Name
}

// Receiver returns the self parameter, if the function has one.
func (f *Function) Receiver() (Param, bool) {
	for _, p := range f.Params {
		if p.Name == SelfParam {
			return p, true
		}
	}
	return Param{}, false
}

// Impl groups methods under the type they are declared on.
type Impl struct {
	Target  string
	Methods []*Function
}

// Unit is one decoded input file.
type Unit struct {
	Path      string
	File      source.FileID
	Functions []*Function
	Impls     []Impl
}

// AllFunctions lists free functions followed by methods, in declaration order.
func (u *Unit) AllFunctions() []*Function {
	out := make([]*Function, 0, len(u.Functions))
	out = append(out, u.Functions...)
	for _, impl := range u.Impls {
		out = append(out, impl.Methods...)
	}
	return out
}
