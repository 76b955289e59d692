package ownership

import (
	"errors"
	"fmt"

	"borrowck/internal/ast"
	"borrowck/internal/diag"
	"borrowck/internal/lifetime"
	"borrowck/internal/scope"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// CheckFunction walks one function body in a fresh top-level scope holding
// its parameters. In strict mode the first violation is returned; in
// collecting mode the result is nil and Violations holds the findings.
func (c *Checker) CheckFunction(fn *ast.Function) error {
	c.returnsRef = fn.Ret.IsReference()
	c.PushScope(scope.KindFunction)
	for _, p := range fn.Params {
		info := c.DefineVar(p.Name, p.Type, p.Mut, p.Sp)
		info.Param = true
		if c.regions != nil {
			if _, ok := c.regions.VarRegion(p.Name); !ok {
				c.declareRegion(p.Name, p.Type)
			}
		}
	}
	if fn.Body != nil {
		mark := len(c.temps)
		if err := c.stmts(fn.Body.Stmts); err != nil {
			return err
		}
		if fn.Body.Tail != nil {
			if err := c.consume(fn.Body.Tail, "<return>"); err != nil {
				return err
			}
			if c.returnsRef {
				if err := c.checkReturnRef(fn.Body.Tail, fn.Body.Tail.Span()); err != nil {
					return err
				}
			}
		}
		c.endStatement(mark)
	}
	return c.PopScope()
}

func (c *Checker) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) stmt(s ast.Stmt) error {
	mark := len(c.temps)
	defer c.endStatement(mark)

	switch s := s.(type) {
	case *ast.Let:
		return c.let(s)
	case *ast.LetTuple:
		if err := c.consume(s.Value, "<destructure>"); err != nil {
			return err
		}
		elems := tupleElems(c.inferType(s.Value), len(s.Bindings))
		for i, b := range s.Bindings {
			c.DefineVar(b.Name, elems[i], b.Mut, b.Sp)
			c.declareRegion(b.Name, nil)
		}
		return nil
	case *ast.ExprStmt:
		return c.expr(s.X)
	case *ast.Return:
		if s.Value == nil {
			return nil
		}
		if err := c.consume(s.Value, "<return>"); err != nil {
			return err
		}
		if c.returnsRef {
			return c.checkReturnRef(s.Value, s.Sp)
		}
		return nil
	case *ast.Break:
		if s.Value == nil {
			return nil
		}
		return c.consume(s.Value, "<break>")
	case *ast.Continue:
		return nil
	case *ast.Defer:
		return c.expr(s.X)
	default:
		panic(fmt.Sprintf("ownership: unhandled statement %T", s))
	}
}

func (c *Checker) let(s *ast.Let) error {
	// The binding does not exist yet; an outer variable of the same name must
	// keep its own borrow.
	pending := holder{name: fmt.Sprintf("let %s@%d", s.Name, s.Sp.Start)}
	if s.Value != nil {
		if err := c.bindValue(pending, s.Name, s.Value, s.Name); err != nil {
			return err
		}
	}
	ty := s.Type
	if ty == nil {
		ty = c.inferType(s.Value)
	}
	info := c.DefineVar(s.Name, ty, s.Mut, s.Sp)
	c.rehold(pending, holder{info: info})
	if target, mut, ok := refTarget(s.Value); ok {
		c.RegisterReference(s.Name, target, mut, s.Value.Span())
	} else if src, ok := c.aliasSource(s.Value); ok {
		c.refs[info] = src
	}
	return c.checkDeclRegion(s, ty)
}

// bindValue consumes a value that is stored into the variable borrower. A
// direct &ident operand becomes a borrow kept by h instead of a temporary.
func (c *Checker) bindValue(h holder, borrower string, value ast.Expr, to string) error {
	if r, ok := value.(*ast.Ref); ok {
		if id, ok := r.Operand.(*ast.Ident); ok {
			return c.borrow(h, borrower, id.Name, r.Mut, false, r.Sp)
		}
	}
	return c.consume(value, to)
}

// aliasSource follows `let r2 = r1` where r1 is a tracked reference.
func (c *Checker) aliasSource(value ast.Expr) (refInfo, bool) {
	id, ok := value.(*ast.Ident)
	if !ok {
		return refInfo{}, false
	}
	holder, ok := c.Lookup(id.Name)
	if !ok {
		return refInfo{}, false
	}
	src, ok := c.refs[holder]
	return src, ok
}

// consume evaluates e as a value that is moved into to. Field expressions of
// non-Copy type move the field out of their base variable.
func (c *Checker) consume(e ast.Expr, to string) error {
	switch e := e.(type) {
	case *ast.Ident:
		return c.useVar(e.Name, to, e.Sp)
	case *ast.Field:
		if base, ok := e.Operand.(*ast.Ident); ok && e.Type != nil && !types.IsCopy(e.Type) {
			return c.moveField(base.Name, e.Name, e.Sp)
		}
	}
	return c.expr(e)
}

// place checks an expression used as a location: its base variable must be
// readable but is not moved.
func (c *Checker) place(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Ident:
		info, ok := c.Lookup(e.Name)
		if !ok {
			return nil
		}
		return c.checkReadable(info, e.Sp)
	case *ast.Field:
		if base, ok := e.Operand.(*ast.Ident); ok {
			return c.checkField(base.Name, e.Name, e.Sp)
		}
		return c.place(e.Operand)
	case *ast.Index:
		if err := c.place(e.Operand); err != nil {
			return err
		}
		return c.expr(e.Index)
	case *ast.Deref:
		return c.place(e.Operand)
	default:
		return c.expr(e)
	}
}

func (c *Checker) expr(e ast.Expr) error {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Ident:
		return c.UseVar(e.Name, e.Sp)
	case *ast.Literal:
		return nil
	case *ast.Binary:
		if err := c.expr(e.Left); err != nil {
			return err
		}
		return c.expr(e.Right)
	case *ast.Unary:
		return c.expr(e.Operand)
	case *ast.Call:
		if err := c.callee(e.Callee); err != nil {
			return err
		}
		return c.args(e.Args, calleeName(e.Callee))
	case *ast.MethodCall:
		if err := c.place(e.Receiver); err != nil {
			return err
		}
		return c.args(e.Args, e.Method)
	case *ast.Ref:
		if id, ok := e.Operand.(*ast.Ident); ok {
			name := fmt.Sprintf("&%s@%d", id.Name, e.Sp.Start)
			return c.borrow(holder{name: name}, name, id.Name, e.Mut, true, e.Sp)
		}
		if err := c.place(e.Operand); err != nil {
			return err
		}
		name := fmt.Sprintf("&<expr>@%d", e.Sp.Start)
		c.addBorrow(holder{name: name}, name, BorrowTarget{Kind: TargetOpaque}, e.Mut, true, e.Sp)
		return nil
	case *ast.Deref:
		return c.place(e.Operand)
	case *ast.Assign:
		return c.assign(e)
	case *ast.CompoundAssign:
		if err := c.expr(e.Value); err != nil {
			return err
		}
		if err := c.place(e.Target); err != nil {
			return err
		}
		if id, ok := e.Target.(*ast.Ident); ok {
			if info, ok := c.Lookup(id.Name); ok {
				return c.checkNotBorrowed(info, e.Sp, "assign to")
			}
		}
		return nil
	case *ast.Block:
		return c.block(e, scope.KindBlock)
	case *ast.If:
		return c.ifChain(e)
	case *ast.Loop:
		if e.Iter != nil {
			if err := c.consume(e.Iter, "<loop>"); err != nil {
				return err
			}
		}
		c.PushScope(scope.KindLoop)
		if e.Pattern != "" {
			c.DefineVar(e.Pattern, types.Unknown, false, e.Sp)
			c.declareRegion(e.Pattern, nil)
		}
		if err := c.blockBody(e.Body); err != nil {
			return err
		}
		return c.PopScope()
	case *ast.While:
		if err := c.expr(e.Cond); err != nil {
			return err
		}
		c.PushScope(scope.KindLoop)
		if err := c.blockBody(e.Body); err != nil {
			return err
		}
		return c.PopScope()
	case *ast.Match:
		return c.match(e)
	case *ast.Lambda:
		c.PushScope(scope.KindLambda)
		for _, p := range e.Params {
			c.DefineVar(p.Name, p.Type, p.Mut, p.Sp)
			c.declareRegion(p.Name, p.Type)
		}
		if err := c.consume(e.Body, "<lambda>"); err != nil {
			return err
		}
		return c.PopScope()
	case *ast.Tuple:
		return c.args(e.Elems, "<tuple>")
	case *ast.Array:
		return c.args(e.Elems, "<array>")
	case *ast.StructLit:
		for _, f := range e.Fields {
			if err := c.consume(f.Value, e.Name+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	case *ast.Field, *ast.Index:
		return c.place(e)
	case *ast.Wrap:
		return c.consume(e.Operand, "<"+e.Kind.String()+">")
	default:
		panic(fmt.Sprintf("ownership: unhandled expression %T", e))
	}
}

// callee checks the function position of a call. Calling a local closure
// reads it; plain function names are not tracked.
func (c *Checker) callee(e ast.Expr) error {
	if id, ok := e.(*ast.Ident); ok {
		return c.UseVar(id.Name, id.Sp)
	}
	return c.place(e)
}

func calleeName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.Field:
		return e.Name
	default:
		return "<call>"
	}
}

// args consumes each argument once; arguments pass by value.
func (c *Checker) args(list []ast.Expr, to string) error {
	for _, a := range list {
		if err := c.consume(a, to); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) assign(e *ast.Assign) error {
	id, isIdent := e.Target.(*ast.Ident)
	if isIdent {
		if err := c.bindValue(c.holderOf(id.Name), id.Name, e.Value, id.Name); err != nil {
			return err
		}
		info, ok := c.Lookup(id.Name)
		if !ok {
			return nil
		}
		if err := c.AssignVar(id.Name, c.inferType(e.Value), e.Sp); err != nil {
			return err
		}
		if target, mut, ok := refTarget(e.Value); ok {
			c.RegisterReference(id.Name, target, mut, e.Value.Span())
		} else {
			// The old referent is no longer reachable through the variable.
			delete(c.refs, info)
			c.release(holder{info: info})
		}
		return nil
	}

	if err := c.consume(e.Value, "<assign>"); err != nil {
		return err
	}
	// Writing a moved-out field puts it back.
	if f, ok := e.Target.(*ast.Field); ok {
		if base, ok := f.Operand.(*ast.Ident); ok {
			if info, ok := c.Lookup(base.Name); ok {
				if err := c.checkNotBorrowed(info, e.Sp, "assign to"); err != nil {
					return err
				}
				if info.State.Kind == PartiallyMoved {
					delete(info.State.MovedFields, f.Name)
					if len(info.State.MovedFields) == 0 {
						info.State = State{Kind: Owned}
						c.syncBorrowState(info)
					}
					return nil
				}
				return c.checkField(base.Name, f.Name, f.Sp)
			}
		}
	}
	return c.place(e.Target)
}

func (c *Checker) block(b *ast.Block, kind scope.Kind) error {
	c.PushScope(kind)
	if err := c.blockBody(b); err != nil {
		return err
	}
	return c.PopScope()
}

func (c *Checker) blockBody(b *ast.Block) error {
	if b == nil {
		return nil
	}
	if err := c.stmts(b.Stmts); err != nil {
		return err
	}
	if b.Tail == nil {
		return nil
	}
	mark := len(c.temps)
	defer c.endStatement(mark)
	return c.consume(b.Tail, "<block>")
}

// ifChain checks every branch from the same starting state and merges the
// results: a variable moved in any branch is moved afterwards.
func (c *Checker) ifChain(e *ast.If) error {
	if err := c.expr(e.Cond); err != nil {
		return err
	}
	before := c.snapshot()
	if err := c.block(e.Then, scope.KindBranch); err != nil {
		return err
	}
	merged := c.snapshot()
	c.restore(before)
	switch els := e.Else.(type) {
	case nil:
		mergeInto(merged, before)
	case *ast.Block:
		if err := c.block(els, scope.KindBranch); err != nil {
			return err
		}
		mergeInto(merged, c.snapshot())
	case *ast.If:
		if err := c.ifChain(els); err != nil {
			return err
		}
		mergeInto(merged, c.snapshot())
	default:
		if err := c.expr(els); err != nil {
			return err
		}
		mergeInto(merged, c.snapshot())
	}
	c.restore(merged)
	return nil
}

func (c *Checker) match(e *ast.Match) error {
	if err := c.expr(e.Scrutinee); err != nil {
		return err
	}
	before := c.snapshot()
	var merged map[*Info]State
	for _, arm := range e.Arms {
		c.restore(before)
		c.PushScope(scope.KindArm)
		for _, name := range arm.Bindings {
			c.DefineVar(name, types.Unknown, false, arm.Sp)
			c.declareRegion(name, nil)
		}
		if arm.Guard != nil {
			if err := c.expr(arm.Guard); err != nil {
				return err
			}
		}
		if err := c.consume(arm.Body, "<match>"); err != nil {
			return err
		}
		if err := c.PopScope(); err != nil {
			return err
		}
		if merged == nil {
			merged = c.snapshot()
		} else {
			mergeInto(merged, c.snapshot())
		}
	}
	if merged != nil {
		c.restore(merged)
	}
	return nil
}

// checkReturnRef rejects returning a reference to data owned by the function.
func (c *Checker) checkReturnRef(e ast.Expr, at source.Span) error {
	var src *Info
	switch e := e.(type) {
	case *ast.Ref:
		if root := placeRoot(e.Operand); root != nil {
			src, _ = c.Lookup(root.Name)
		}
	case *ast.Ident:
		if info, ok := c.Lookup(e.Name); ok {
			if ref, tracked := c.refs[info]; tracked {
				src = ref.source
			}
		}
	}
	if src == nil || !src.owned() {
		return nil
	}
	return c.report(&Violation{
		Code:       diag.SemaReturnLocalRef,
		Var:        src.Name,
		Msg:        fmt.Sprintf("cannot return a reference to local variable '%s'", src.Name),
		At:         at,
		Related:    src.Defined,
		RelatedMsg: "local variable defined here",
	})
}

// placeRoot returns the variable a field or index chain starts from. Derefs
// stop the search: the data behind them is not owned by the variable.
func placeRoot(e ast.Expr) *ast.Ident {
	for {
		switch x := e.(type) {
		case *ast.Ident:
			return x
		case *ast.Field:
			e = x.Operand
		case *ast.Index:
			e = x.Operand
		default:
			return nil
		}
	}
}

// declareRegion gives a new binding a region in the inferencer: the written
// region of a reference type, otherwise a fresh one.
func (c *Checker) declareRegion(name string, ty *types.Type) lifetime.Region {
	if c.regions == nil {
		return lifetime.Region{}
	}
	var r lifetime.Region
	if ty.IsReference() && ty.Region != "" {
		r = c.regions.ResolveRegionName(ty.Region)
	} else {
		r = c.regions.FreshRegion()
	}
	c.regions.RegisterVarRegion(name, r)
	return r
}

// checkDeclRegion registers the region of a let binding and, for a reference
// with a written region, checks that the initializer's data lives long enough.
func (c *Checker) checkDeclRegion(s *ast.Let, ty *types.Type) error {
	if c.regions == nil {
		return nil
	}
	var referentName string
	switch v := s.Value.(type) {
	case *ast.Ref:
		if id, ok := v.Operand.(*ast.Ident); ok {
			referentName = id.Name
		}
	case *ast.Ident:
		if info, ok := c.Lookup(v.Name); ok && info.Type.IsReference() && info.Name != s.Name {
			referentName = v.Name
		}
	}
	var referent lifetime.Region
	haveReferent := false
	if referentName != "" {
		referent, haveReferent = c.regions.VarRegion(referentName)
	}

	if !ty.IsReference() || ty.Region == "" {
		// An elided reference takes the region of what it points at.
		if haveReferent && ty.IsReference() {
			c.regions.RegisterVarRegion(s.Name, referent)
			return nil
		}
		c.declareRegion(s.Name, ty)
		return nil
	}
	declared := c.declareRegion(s.Name, ty)
	if !haveReferent {
		return nil
	}
	err := c.regions.CheckReferenceValidity(declared, referent)
	var re *lifetime.Error
	if err == nil || !errors.As(err, &re) {
		return err
	}
	v := &Violation{
		Code: re.Code(),
		Var:  referentName,
		Msg:  fmt.Sprintf("'%s' does not live long enough for '%s' with region %s", referentName, s.Name, declared),
		At:   s.Value.Span(),
	}
	if info, ok := c.Lookup(referentName); ok {
		v.Related, v.RelatedMsg = info.Defined, "borrowed value defined here"
	}
	return c.report(v)
}

func refTarget(e ast.Expr) (string, bool, bool) {
	r, ok := e.(*ast.Ref)
	if !ok {
		return "", false, false
	}
	id, ok := r.Operand.(*ast.Ident)
	if !ok {
		return "", false, false
	}
	return id.Name, r.Mut, true
}
