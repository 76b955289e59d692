package ownership

import (
	"fortio.org/safecast"

	"borrowck/internal/ast"
	"borrowck/internal/types"
)

// inferType gives a declaration without a written type the type of its
// initializer. It only looks at the shape of the expression; calls and
// operators yield Unknown, which counts as Copy.
func (c *Checker) inferType(e ast.Expr) *types.Type {
	switch e := e.(type) {
	case nil:
		return types.Unknown
	case *ast.Literal:
		switch e.Kind {
		case ast.LitInt:
			return types.MakeInt(types.Width64)
		case ast.LitFloat:
			return types.MakeFloat(types.Width64)
		case ast.LitBool:
			return types.Bool
		case ast.LitString:
			return types.String
		case ast.LitChar:
			return types.Char
		default:
			return types.Unit
		}
	case *ast.Ident:
		if info, ok := c.Lookup(e.Name); ok {
			return info.Type
		}
	case *ast.Ref:
		return types.MakeReference(c.inferType(e.Operand), "", e.Mut)
	case *ast.Deref:
		if t := c.inferType(e.Operand); t.IsReference() || t.Kind == types.KindPointer {
			return t.Elem
		}
	case *ast.Tuple:
		elems := make([]*types.Type, len(e.Elems))
		for i, x := range e.Elems {
			elems[i] = c.inferType(x)
		}
		return types.MakeTuple(elems...)
	case *ast.Array:
		elem := types.Unknown
		if len(e.Elems) > 0 {
			elem = c.inferType(e.Elems[0])
		}
		n, err := safecast.Conv[uint32](len(e.Elems))
		if err != nil {
			panic(err)
		}
		return types.MakeArray(elem, n)
	case *ast.StructLit:
		return types.MakeNamed(e.Name)
	case *ast.Field:
		if e.Type != nil {
			return e.Type
		}
	case *ast.Wrap:
		if e.Kind == ast.WrapCast && e.Type != nil {
			return e.Type
		}
	case *ast.Lambda:
		params := make([]*types.Type, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Type
		}
		return types.MakeFn(params, types.Unknown)
	case *ast.Binary:
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return types.Bool
		}
	}
	return types.Unknown
}

// tupleElems returns n element types for destructuring t, padding with
// Unknown when t is not a tuple of that arity.
func tupleElems(t *types.Type, n int) []*types.Type {
	out := make([]*types.Type, n)
	for i := range out {
		out[i] = types.Unknown
		if t != nil && t.Kind == types.KindTuple && len(t.Args) == n {
			out[i] = t.Args[i]
		}
	}
	return out
}
