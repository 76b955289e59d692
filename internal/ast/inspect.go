package ast

import "fmt"

// Inspect walks n depth-first, calling fn for each node before its
// children. Children are skipped when fn returns false. Nil children are not
// visited.
func Inspect(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Function:
		if n.Body != nil {
			Inspect(n.Body, fn)
		}

	case *Let:
		inspectExpr(n.Value, fn)
	case *LetTuple:
		inspectExpr(n.Value, fn)
	case *ExprStmt:
		inspectExpr(n.X, fn)
	case *Return:
		inspectExpr(n.Value, fn)
	case *Break:
		inspectExpr(n.Value, fn)
	case *Continue:
	case *Defer:
		inspectExpr(n.X, fn)

	case *Ident, *Literal:
	case *Binary:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)
	case *Unary:
		inspectExpr(n.Operand, fn)
	case *Call:
		inspectExpr(n.Callee, fn)
		inspectExprs(n.Args, fn)
	case *MethodCall:
		inspectExpr(n.Receiver, fn)
		inspectExprs(n.Args, fn)
	case *Ref:
		inspectExpr(n.Operand, fn)
	case *Deref:
		inspectExpr(n.Operand, fn)
	case *Assign:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Value, fn)
	case *CompoundAssign:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Value, fn)
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, fn)
		}
		inspectExpr(n.Tail, fn)
	case *If:
		inspectExpr(n.Cond, fn)
		if n.Then != nil {
			Inspect(n.Then, fn)
		}
		inspectExpr(n.Else, fn)
	case *Loop:
		inspectExpr(n.Iter, fn)
		if n.Body != nil {
			Inspect(n.Body, fn)
		}
	case *While:
		inspectExpr(n.Cond, fn)
		if n.Body != nil {
			Inspect(n.Body, fn)
		}
	case *Match:
		inspectExpr(n.Scrutinee, fn)
		for _, arm := range n.Arms {
			inspectExpr(arm.Guard, fn)
			inspectExpr(arm.Body, fn)
		}
	case *Lambda:
		inspectExpr(n.Body, fn)
	case *Tuple:
		inspectExprs(n.Elems, fn)
	case *Array:
		inspectExprs(n.Elems, fn)
	case *StructLit:
		for _, f := range n.Fields {
			inspectExpr(f.Value, fn)
		}
	case *Field:
		inspectExpr(n.Operand, fn)
	case *Index:
		inspectExpr(n.Operand, fn)
		inspectExpr(n.Index, fn)
	case *Wrap:
		inspectExpr(n.Operand, fn)
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}
}

func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectExprs(es []Expr, fn func(Node) bool) {
	for _, e := range es {
		inspectExpr(e, fn)
	}
}

// isNil catches typed nil pointers stored in the interface.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Block:
		return n == nil
	case *Function:
		return n == nil
	}
	return false
}
