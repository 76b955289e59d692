package unit

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"borrowck/internal/ast"
	"borrowck/internal/diag"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Unit converts the document into ast nodes whose spans point into file.
// Identifiers and region names are NFC-normalised so that differently
// composed spellings name the same variable.
func (d *Document) Unit(path string, file source.FileID) (*ast.Unit, error) {
	b := &builder{file: file, path: path}
	u := &ast.Unit{Path: path, File: file}
	for i := range d.raw.Functions {
		fn, err := b.function(&d.raw.Functions[i], "")
		if err != nil {
			return nil, err
		}
		if fn.Impl != "" {
			u.Impls = appendMethod(u.Impls, fn)
			continue
		}
		u.Functions = append(u.Functions, fn)
	}
	for _, impl := range d.raw.Impls {
		target := nfc(impl.Target)
		for i := range impl.Methods {
			fn, err := b.function(&impl.Methods[i], target)
			if err != nil {
				return nil, err
			}
			u.Impls = appendMethod(u.Impls, fn)
		}
	}
	return u, nil
}

func appendMethod(impls []ast.Impl, fn *ast.Function) []ast.Impl {
	for i := range impls {
		if impls[i].Target == fn.Impl {
			impls[i].Methods = append(impls[i].Methods, fn)
			return impls
		}
	}
	return append(impls, ast.Impl{Target: fn.Impl, Methods: []*ast.Function{fn}})
}

func nfc(s string) string { return norm.NFC.String(s) }

type builder struct {
	file source.FileID
	path string
	fn   string
}

func (b *builder) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if b.fn != "" {
		msg = fmt.Sprintf("function '%s': %s", b.fn, msg)
	}
	return &Error{Code: diag.IOMalformedUnit, Path: b.path, Msg: msg}
}

func (b *builder) span(s rawSpan) (source.Span, error) {
	switch len(s) {
	case 0:
		return source.Span{File: b.file}, nil
	case 2:
		if s[1] < s[0] {
			return source.Span{}, b.errorf("span [%d, %d] ends before it starts", s[0], s[1])
		}
		return source.Span{File: b.file, Start: s[0], End: s[1]}, nil
	default:
		return source.Span{}, b.errorf("span must be [start, end], got %d numbers", len(s))
	}
}

// typ parses a type string. An empty string yields def.
func (b *builder) typ(s string, def *types.Type) (*types.Type, error) {
	if s == "" {
		return def, nil
	}
	t, err := types.Parse(nfc(s))
	if err != nil {
		return nil, b.errorf("%v", err)
	}
	return t, nil
}

func (b *builder) function(raw *rawFunction, impl string) (*ast.Function, error) {
	b.fn = nfc(raw.Name)
	if b.fn == "" {
		return nil, b.errorf("function without a name")
	}
	fn := &ast.Function{Name: b.fn, Impl: impl}
	if raw.Receiver != "" {
		fn.Impl = nfc(raw.Receiver)
	}
	var err error
	if fn.Sp, err = b.span(raw.Span); err != nil {
		return nil, err
	}
	for _, r := range raw.RegionParams {
		fn.RegionParams = append(fn.RegionParams, nfc(r))
	}
	for _, rb := range raw.RegionBounds {
		bound := ast.RegionBound{Region: nfc(rb.Region)}
		for _, o := range rb.Outlives {
			bound.Outlives = append(bound.Outlives, nfc(o))
		}
		fn.RegionBounds = append(fn.RegionBounds, bound)
	}
	if fn.Params, err = b.params(raw.Params); err != nil {
		return nil, err
	}
	if fn.Ret, err = b.typ(raw.Ret, nil); err != nil {
		return nil, err
	}
	body := &ast.Block{Loc: ast.Loc{Sp: fn.Sp}}
	if body.Stmts, err = b.stmts(raw.Body); err != nil {
		return nil, err
	}
	if raw.Tail != nil {
		if body.Tail, err = b.expr(raw.Tail); err != nil {
			return nil, err
		}
	}
	fn.Body = body
	return fn, nil
}

func (b *builder) params(raw []rawParam) ([]ast.Param, error) {
	out := make([]ast.Param, 0, len(raw))
	for _, p := range raw {
		ty, err := b.typ(p.Type, types.Unknown)
		if err != nil {
			return nil, err
		}
		sp, err := b.span(p.Span)
		if err != nil {
			return nil, err
		}
		name := nfc(p.Name)
		if name == "" {
			return nil, b.errorf("parameter without a name")
		}
		out = append(out, ast.Param{Name: name, Type: ty, Mut: p.Mut, Sp: sp})
	}
	return out, nil
}

func (b *builder) stmts(raw []*rawNode) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(raw))
	for _, n := range raw {
		s, err := b.stmt(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// stmt converts a statement node. Expression kinds in statement position are
// wrapped in an ExprStmt.
func (b *builder) stmt(n *rawNode) (ast.Stmt, error) {
	if n == nil {
		return nil, b.errorf("null statement")
	}
	sp, err := b.span(n.Span)
	if err != nil {
		return nil, err
	}
	loc := ast.Loc{Sp: sp}
	switch n.Kind {
	case "let":
		s := &ast.Let{Loc: loc, Name: nfc(n.Name), Mut: n.Mut}
		if s.Name == "" {
			return nil, b.errorf("let without a name")
		}
		if s.Type, err = b.typ(n.Ty, nil); err != nil {
			return nil, err
		}
		if n.Value != nil {
			if s.Value, err = b.expr(n.Value); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "let_tuple":
		s := &ast.LetTuple{Loc: loc}
		for _, rb := range n.Bindings {
			bsp, err := b.span(rb.Span)
			if err != nil {
				return nil, err
			}
			s.Bindings = append(s.Bindings, ast.Binding{Name: nfc(rb.Name), Mut: rb.Mut, Sp: bsp})
		}
		if s.Value, err = b.required(n.Value, "let_tuple", "value"); err != nil {
			return nil, err
		}
		return s, nil
	case "expr":
		x, err := b.required(n.Value, "expr", "value")
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Loc: loc, X: x}, nil
	case "return":
		s := &ast.Return{Loc: loc}
		if n.Value != nil {
			if s.Value, err = b.expr(n.Value); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "break":
		s := &ast.Break{Loc: loc}
		if n.Value != nil {
			if s.Value, err = b.expr(n.Value); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "continue":
		return &ast.Continue{Loc: loc}, nil
	case "defer":
		x, err := b.required(n.Value, "defer", "value")
		if err != nil {
			return nil, err
		}
		return &ast.Defer{Loc: loc, X: x}, nil
	}
	x, err := b.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Loc: loc, X: x}, nil
}

func (b *builder) required(n *rawNode, kind, field string) (ast.Expr, error) {
	if n == nil {
		return nil, b.errorf("%s node without %q", kind, field)
	}
	return b.expr(n)
}

func (b *builder) list(raw []*rawNode) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(raw))
	for _, n := range raw {
		x, err := b.expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

var litKinds = map[string]ast.LitKind{
	"int":    ast.LitInt,
	"float":  ast.LitFloat,
	"bool":   ast.LitBool,
	"string": ast.LitString,
	"char":   ast.LitChar,
	"unit":   ast.LitUnit,
}

var wrapKinds = map[string]ast.WrapKind{
	"spawn":  ast.WrapSpawn,
	"await":  ast.WrapAwait,
	"try":    ast.WrapTry,
	"unwrap": ast.WrapUnwrap,
	"cast":   ast.WrapCast,
}

func (b *builder) expr(n *rawNode) (ast.Expr, error) {
	if n == nil {
		return nil, b.errorf("null expression")
	}
	sp, err := b.span(n.Span)
	if err != nil {
		return nil, err
	}
	loc := ast.Loc{Sp: sp}
	switch n.Kind {
	case "ident":
		if n.Name == "" {
			return nil, b.errorf("ident without a name")
		}
		return &ast.Ident{Loc: loc, Name: nfc(n.Name)}, nil
	case "literal":
		kind, ok := litKinds[n.Lit]
		if !ok {
			return nil, b.errorf("unknown literal kind %q", n.Lit)
		}
		return &ast.Literal{Loc: loc, Kind: kind, Value: n.Text}, nil
	case "binary":
		left, err := b.required(n.Left, "binary", "left")
		if err != nil {
			return nil, err
		}
		right, err := b.required(n.Right, "binary", "right")
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Loc: loc, Op: n.Op, Left: left, Right: right}, nil
	case "unary":
		x, err := b.required(n.Operand, "unary", "operand")
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Loc: loc, Op: n.Op, Operand: x}, nil
	case "call":
		callee, err := b.required(n.Callee, "call", "callee")
		if err != nil {
			return nil, err
		}
		args, err := b.list(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Loc: loc, Callee: callee, Args: args}, nil
	case "method_call":
		recv, err := b.required(n.Receiver, "method_call", "receiver")
		if err != nil {
			return nil, err
		}
		args, err := b.list(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.MethodCall{Loc: loc, Receiver: recv, Method: nfc(n.Method), Args: args}, nil
	case "ref":
		x, err := b.required(n.Operand, "ref", "operand")
		if err != nil {
			return nil, err
		}
		return &ast.Ref{Loc: loc, Operand: x, Mut: n.Mut}, nil
	case "deref":
		x, err := b.required(n.Operand, "deref", "operand")
		if err != nil {
			return nil, err
		}
		return &ast.Deref{Loc: loc, Operand: x}, nil
	case "assign", "compound_assign":
		target, err := b.required(n.Target, n.Kind, "target")
		if err != nil {
			return nil, err
		}
		value, err := b.required(n.Value, n.Kind, "value")
		if err != nil {
			return nil, err
		}
		if n.Kind == "assign" {
			return &ast.Assign{Loc: loc, Target: target, Value: value}, nil
		}
		return &ast.CompoundAssign{Loc: loc, Op: n.Op, Target: target, Value: value}, nil
	case "block":
		return b.block(n)
	case "if":
		return b.ifExpr(n)
	case "loop", "for":
		s := &ast.Loop{Loc: loc, Pattern: nfc(n.Pattern)}
		if n.Iter != nil {
			if s.Iter, err = b.expr(n.Iter); err != nil {
				return nil, err
			}
		}
		if s.Body, err = b.blockField(n.Body, n.Kind); err != nil {
			return nil, err
		}
		return s, nil
	case "while":
		cond, err := b.required(n.Cond, "while", "cond")
		if err != nil {
			return nil, err
		}
		body, err := b.blockField(n.Body, "while")
		if err != nil {
			return nil, err
		}
		return &ast.While{Loc: loc, Cond: cond, Body: body}, nil
	case "match":
		return b.match(n, loc)
	case "lambda":
		params, err := b.params(n.Params)
		if err != nil {
			return nil, err
		}
		body, err := b.required(n.Body, "lambda", "body")
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Loc: loc, Params: params, Body: body}, nil
	case "tuple", "array":
		elems, err := b.list(n.Elems)
		if err != nil {
			return nil, err
		}
		if n.Kind == "tuple" {
			return &ast.Tuple{Loc: loc, Elems: elems}, nil
		}
		return &ast.Array{Loc: loc, Elems: elems}, nil
	case "struct":
		s := &ast.StructLit{Loc: loc, Name: nfc(n.Name)}
		for _, f := range n.Fields {
			v, err := b.required(f.Value, "struct field", "value")
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, ast.FieldInit{Name: nfc(f.Name), Value: v})
		}
		return s, nil
	case "field":
		x, err := b.required(n.Operand, "field", "operand")
		if err != nil {
			return nil, err
		}
		ty, err := b.typ(n.Ty, nil)
		if err != nil {
			return nil, err
		}
		return &ast.Field{Loc: loc, Operand: x, Name: nfc(n.Field), Type: ty}, nil
	case "index":
		x, err := b.required(n.Operand, "index", "operand")
		if err != nil {
			return nil, err
		}
		idx, err := b.required(n.Index, "index", "index")
		if err != nil {
			return nil, err
		}
		return &ast.Index{Loc: loc, Operand: x, Index: idx}, nil
	}
	if kind, ok := wrapKinds[n.Kind]; ok {
		x, err := b.required(n.Operand, n.Kind, "operand")
		if err != nil {
			return nil, err
		}
		ty, err := b.typ(n.Ty, nil)
		if err != nil {
			return nil, err
		}
		return &ast.Wrap{Loc: loc, Kind: kind, Operand: x, Type: ty}, nil
	}
	if n.Kind == "" {
		return nil, b.errorf("node without a kind")
	}
	return nil, b.errorf("unknown node kind %q", n.Kind)
}

func (b *builder) block(n *rawNode) (*ast.Block, error) {
	sp, err := b.span(n.Span)
	if err != nil {
		return nil, err
	}
	blk := &ast.Block{Loc: ast.Loc{Sp: sp}}
	if blk.Stmts, err = b.stmts(n.Stmts); err != nil {
		return nil, err
	}
	if n.Tail != nil {
		if blk.Tail, err = b.expr(n.Tail); err != nil {
			return nil, err
		}
	}
	return blk, nil
}

// blockField accepts a block node; any other expression becomes the tail of
// an implicit block.
func (b *builder) blockField(n *rawNode, kind string) (*ast.Block, error) {
	if n == nil {
		return nil, b.errorf("%s node without \"body\"", kind)
	}
	if n.Kind == "block" {
		return b.block(n)
	}
	x, err := b.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Loc: ast.Loc{Sp: x.Span()}, Tail: x}, nil
}

func (b *builder) ifExpr(n *rawNode) (*ast.If, error) {
	sp, err := b.span(n.Span)
	if err != nil {
		return nil, err
	}
	s := &ast.If{Loc: ast.Loc{Sp: sp}}
	if s.Cond, err = b.required(n.Cond, "if", "cond"); err != nil {
		return nil, err
	}
	if s.Then, err = b.blockField(n.Then, "if"); err != nil {
		return nil, err
	}
	if n.Else == nil {
		return s, nil
	}
	if n.Else.Kind == "if" {
		s.Else, err = b.ifExpr(n.Else)
	} else {
		s.Else, err = b.blockField(n.Else, "else")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *builder) match(n *rawNode, loc ast.Loc) (*ast.Match, error) {
	scrutinee, err := b.required(n.Scrutinee, "match", "scrutinee")
	if err != nil {
		return nil, err
	}
	m := &ast.Match{Loc: loc, Scrutinee: scrutinee}
	for _, ra := range n.Arms {
		sp, err := b.span(ra.Span)
		if err != nil {
			return nil, err
		}
		arm := ast.MatchArm{Sp: sp}
		for _, name := range ra.Bindings {
			arm.Bindings = append(arm.Bindings, nfc(name))
		}
		if ra.Guard != nil {
			if arm.Guard, err = b.expr(ra.Guard); err != nil {
				return nil, err
			}
		}
		if arm.Body, err = b.required(ra.Body, "match arm", "body"); err != nil {
			return nil, err
		}
		m.Arms = append(m.Arms, arm)
	}
	return m, nil
}
