package ownership

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/diag"
	"borrowck/internal/lifetime"
	"borrowck/internal/scope"
	"borrowck/internal/source"
	"borrowck/internal/trace"
	"borrowck/internal/types"
)

// Mode selects how violations are surfaced.
type Mode uint8

const (
	// ModeStrict stops at the first violation and returns it.
	ModeStrict Mode = iota
	// ModeCollecting records every violation and keeps walking.
	ModeCollecting
)

func (m Mode) String() string {
	if m == ModeCollecting {
		return "collecting"
	}
	return "strict"
}

// ParseMode accepts "strict" and "collecting".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict":
		return ModeStrict, nil
	case "collecting", "collect", "":
		return ModeCollecting, nil
	default:
		return ModeCollecting, fmt.Errorf("invalid check mode: %q (expected: strict|collecting)", s)
	}
}

// Regions is the part of the lifetime inferencer the walk consults for
// reference-typed declarations. *lifetime.Inferencer implements it.
type Regions interface {
	PushScope(kind scope.Kind) scope.ID
	PopScope()
	FreshRegion() lifetime.Region
	RegisterVarRegion(name string, r lifetime.Region)
	VarRegion(name string) (lifetime.Region, bool)
	ResolveRegionName(name string) lifetime.Region
	CheckReferenceValidity(ref, referent lifetime.Region) error
}

type frame struct {
	id    scope.ID
	vars  map[string]*Info
	order []*Info
}

type refInfo struct {
	source *Info
	at     source.Span
	mut    bool
}

// Checker is one ownership session. It is not safe for concurrent use.
type Checker struct {
	mode       Mode
	tree       *scope.Tree
	frames     []*frame
	borrows    map[BorrowID]*BorrowInfo
	held       map[holder]BorrowID
	borrowSeq  int
	refs       map[*Info]refInfo
	temps      []holder
	violations []*Violation

	returnsRef bool
	regions    Regions
	tracer     trace.Tracer
	span       uint64
}

type Option func(*Checker)

// WithRegions lets the walk check reference declarations against regions.
func WithRegions(r Regions) Option {
	return func(c *Checker) { c.regions = r }
}

// WithTracer emits node-level events under parent.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(c *Checker) { c.tracer, c.span = t, parent }
}

func NewChecker(mode Mode, opts ...Option) *Checker {
	c := &Checker{
		mode:    mode,
		tree:    scope.NewTree(),
		borrows: make(map[BorrowID]*BorrowInfo),
		held:    make(map[holder]BorrowID),
		refs:    make(map[*Info]refInfo),
		tracer:  trace.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Mode() Mode { return c.mode }

// Violations returns what was collected so far.
func (c *Checker) Violations() []*Violation {
	return append([]*Violation(nil), c.violations...)
}

func (c *Checker) report(v *Violation) error {
	trace.Point(c.tracer, trace.ScopeNode, "violation", v.Code.ID()+" "+v.Var, c.span)
	if c.mode == ModeCollecting {
		c.violations = append(c.violations, v)
		return nil
	}
	return v
}

// PushScope opens a lexical scope.
func (c *Checker) PushScope(kind scope.Kind) scope.ID {
	id := c.tree.Push(kind)
	c.frames = append(c.frames, &frame{id: id, vars: make(map[string]*Info)})
	if c.regions != nil {
		c.regions.PushScope(kind)
	}
	return id
}

// PopScope closes the innermost scope. References held by outer variables to
// data declared in the closing scope are reported as dangling, and every
// borrow created in the scope is released.
func (c *Checker) PopScope() error {
	if len(c.frames) == 0 {
		return nil
	}
	dying := c.frames[len(c.frames)-1]
	var firstErr error
	for _, ref := range orderedRefs(c.refs) {
		info := c.refs[ref]
		if dying.vars[info.source.Name] != info.source {
			continue
		}
		if dying.vars[ref.Name] != ref {
			err := c.report(&Violation{
				Code:       diag.SemaDanglingReference,
				Var:        info.source.Name,
				Msg:        fmt.Sprintf("'%s' does not live long enough: '%s' still refers to it after its scope ends", info.source.Name, ref.Name),
				At:         info.at,
				Related:    info.source.Defined,
				RelatedMsg: "source variable defined here",
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(c.refs, ref)
	}
	for ref := range c.refs {
		if dying.vars[ref.Name] == ref {
			delete(c.refs, ref)
		}
	}

	for id, b := range c.borrows {
		if b.Scope == dying.id {
			c.drop(id)
		}
	}
	c.frames = c.frames[:len(c.frames)-1]
	c.tree.Pop()
	if c.regions != nil {
		c.regions.PopScope()
	}
	return firstErr
}

// orderedRefs sorts reference holders by declaration so reports are stable.
func orderedRefs(refs map[*Info]refInfo) []*Info {
	out := make([]*Info, 0, len(refs))
	for r := range refs {
		out = append(out, r)
	}
	sortInfos(out)
	return out
}

// DefineVar declares name in the innermost scope as Owned.
func (c *Checker) DefineVar(name string, ty *types.Type, mut bool, at source.Span) *Info {
	if ty == nil {
		ty = types.Unknown
	}
	if len(c.frames) == 0 {
		c.PushScope(scope.KindFunction)
	}
	top := c.frames[len(c.frames)-1]
	info := &Info{
		Name:    name,
		State:   State{Kind: Owned},
		Type:    ty,
		Mut:     mut,
		Copy:    types.IsCopy(ty),
		Scope:   top.id,
		Defined: at,
	}
	top.vars[name] = info
	top.order = append(top.order, info)
	return info
}

// Lookup finds the visible binding of name, innermost scope first.
func (c *Checker) Lookup(name string) (*Info, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if info, ok := c.frames[i].vars[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// UseVar reads name by value. Reading a moved or partially moved variable is
// an error; reading a non-Copy variable moves it. Unknown names are ignored.
func (c *Checker) UseVar(name string, at source.Span) error {
	return c.useVar(name, "<used>", at)
}

func (c *Checker) useVar(name, to string, at source.Span) error {
	info, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	if err := c.checkReadable(info, at); err != nil {
		return err
	}
	if !info.Copy {
		info.State = State{Kind: Moved, MovedTo: to, MovedAt: at}
		trace.Point(c.tracer, trace.ScopeNode, "move", name+" -> "+to, c.span)
	}
	return nil
}

// checkReadable rejects reads of moved and partially moved variables without
// changing their state.
func (c *Checker) checkReadable(info *Info, at source.Span) error {
	switch info.State.Kind {
	case Moved:
		return c.report(&Violation{
			Code:       diag.SemaUseAfterMove,
			Var:        info.Name,
			Msg:        fmt.Sprintf("use of moved value '%s'", info.Name),
			At:         at,
			Related:    info.State.MovedAt,
			RelatedMsg: "value moved here",
		})
	case PartiallyMoved:
		fields := info.State.Fields()
		return c.report(&Violation{
			Code:       diag.SemaUseAfterPartialMove,
			Var:        info.Name,
			Msg:        fmt.Sprintf("use of partially moved value '%s': field(s) %s moved", info.Name, quoteList(fields)),
			At:         at,
			Related:    info.State.firstMove(),
			RelatedMsg: "value partially moved here",
			Fields:     fields,
		})
	}
	return nil
}

// moveField moves field out of name. Moving the same field twice is a use
// after move of that field.
func (c *Checker) moveField(name, field string, at source.Span) error {
	info, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	if info.State.Kind == Moved {
		return c.checkReadable(info, at)
	}
	if prev, moved := info.State.MovedFields[field]; moved {
		return c.report(&Violation{
			Code:       diag.SemaUseAfterMove,
			Var:        name + "." + field,
			Msg:        fmt.Sprintf("use of moved value '%s.%s'", name, field),
			At:         at,
			Related:    prev,
			RelatedMsg: "value moved here",
		})
	}
	if info.State.Kind != PartiallyMoved {
		info.State = State{Kind: PartiallyMoved, MovedFields: make(map[string]source.Span)}
	}
	info.State.MovedFields[field] = at
	return nil
}

// checkField rejects reading a field that was moved out, or any field of a
// moved variable.
func (c *Checker) checkField(name, field string, at source.Span) error {
	info, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	if info.State.Kind == Moved {
		return c.checkReadable(info, at)
	}
	if prev, moved := info.State.MovedFields[field]; moved {
		return c.report(&Violation{
			Code:       diag.SemaUseAfterMove,
			Var:        name + "." + field,
			Msg:        fmt.Sprintf("use of moved value '%s.%s'", name, field),
			At:         at,
			Related:    prev,
			RelatedMsg: "value moved here",
		})
	}
	return nil
}

// AssignVar stores a new value of type ty into name. Assigning over a
// borrowed variable is an error; otherwise the variable is Owned again.
func (c *Checker) AssignVar(name string, ty *types.Type, at source.Span) error {
	info, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	if err := c.checkNotBorrowed(info, at, "assign to"); err != nil {
		return err
	}
	if ty != nil && ty.Kind != types.KindUnknown {
		info.Type = ty
		info.Copy = types.IsCopy(ty)
	}
	info.State = State{Kind: Owned}
	// Only reached with borrows still active in collecting mode.
	c.syncBorrowState(info)
	return nil
}

func (c *Checker) checkNotBorrowed(info *Info, at source.Span, verb string) error {
	b := c.firstBorrowOf(info, false)
	if b == nil {
		return nil
	}
	msg := fmt.Sprintf("cannot %s '%s' while it is shared-borrowed", verb, info.Name)
	if b.Mut {
		msg = fmt.Sprintf("cannot %s '%s' while an exclusive borrow is active", verb, info.Name)
	}
	return c.report(&Violation{
		Code:        diag.SemaAssignWhileBorrowed,
		Var:         info.Name,
		Msg:         msg,
		At:          at,
		Related:     b.At,
		RelatedMsg:  borrowLabel(b),
		ExistingMut: b.Mut,
	})
}

// BorrowVar records a shared borrow of target held by borrower. The holder is
// the visible variable named borrower, or the bare name when none is declared.
func (c *Checker) BorrowVar(borrower, target string, at source.Span) error {
	return c.borrow(c.holderOf(borrower), borrower, target, false, false, at)
}

// BorrowVarMut records an exclusive borrow of target held by borrower.
func (c *Checker) BorrowVarMut(borrower, target string, at source.Span) error {
	return c.borrow(c.holderOf(borrower), borrower, target, true, false, at)
}

// holderOf resolves a borrower name to the binding currently visible under it.
func (c *Checker) holderOf(name string) holder {
	if info, ok := c.Lookup(name); ok {
		return holder{info: info}
	}
	return holder{name: name}
}

func (c *Checker) borrow(h holder, borrower, name string, mut, temporary bool, at source.Span) error {
	info, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	switch info.State.Kind {
	case Moved:
		return c.report(&Violation{
			Code:       diag.SemaBorrowAfterMove,
			Var:        name,
			Msg:        fmt.Sprintf("cannot borrow '%s' after it was moved", name),
			At:         at,
			Related:    info.State.MovedAt,
			RelatedMsg: "value moved here",
		})
	case PartiallyMoved:
		return c.checkReadable(info, at)
	}
	if mut && !info.Mut {
		return c.report(&Violation{
			Code:       diag.SemaBorrowImmutable,
			Var:        name,
			Msg:        fmt.Sprintf("cannot take mutable borrow of '%s': it is not declared mutable", name),
			At:         at,
			Related:    info.Defined,
			RelatedMsg: "variable defined here",
			NewMut:     true,
		})
	}
	// A re-borrow by the same holder replaces the old borrow.
	if id, ok := c.held[h]; ok && c.borrows[id].Target.info == info {
		c.release(h)
	}
	if existing := c.firstBorrowOf(info, !mut); existing != nil {
		var msg string
		switch {
		case !mut:
			msg = fmt.Sprintf("cannot take shared borrow of '%s' while an exclusive borrow is active", name)
		case existing.Mut:
			msg = fmt.Sprintf("cannot take mutable borrow of '%s' while another mutable borrow is active", name)
		default:
			msg = fmt.Sprintf("cannot take mutable borrow of '%s' while a shared borrow is active", name)
		}
		return c.report(&Violation{
			Code:        diag.SemaBorrowConflict,
			Var:         name,
			Msg:         msg,
			At:          at,
			Related:     existing.At,
			RelatedMsg:  borrowLabel(existing),
			ExistingMut: existing.Mut,
			NewMut:      mut,
		})
	}
	c.addBorrow(h, borrower, BorrowTarget{Kind: TargetTracked, Var: name, info: info}, mut, temporary, at)
	return nil
}

func (c *Checker) addBorrow(h holder, borrower string, target BorrowTarget, mut, temporary bool, at source.Span) {
	c.release(h)
	c.borrowSeq++
	value, err := safecast.Conv[uint32](c.borrowSeq)
	if err != nil {
		panic(fmt.Errorf("borrow table overflow: %w", err))
	}
	b := &BorrowInfo{
		ID:        BorrowID(value),
		Borrower:  borrower,
		Target:    target,
		Mut:       mut,
		Scope:     c.tree.Current(),
		At:        at,
		Temporary: temporary,
		holder:    h,
	}
	c.borrows[b.ID] = b
	c.held[h] = b.ID
	if temporary {
		c.temps = append(c.temps, h)
	}
	c.syncBorrowState(target.info)
	trace.Point(c.tracer, trace.ScopeNode, "borrow", target.String()+" by "+borrower, c.span)
}

// ReleaseBorrow ends the borrow held by the visible variable named borrower,
// if any.
func (c *Checker) ReleaseBorrow(borrower string) {
	c.release(c.holderOf(borrower))
}

func (c *Checker) release(h holder) {
	if id, ok := c.held[h]; ok {
		c.drop(id)
	}
}

// drop removes one borrow from the table and its holder index.
func (c *Checker) drop(id BorrowID) {
	b, ok := c.borrows[id]
	if !ok {
		return
	}
	delete(c.borrows, id)
	if c.held[b.holder] == id {
		delete(c.held, b.holder)
	}
	c.syncBorrowState(b.Target.info)
}

// rehold moves the borrow kept by from over to to. A let binding borrows
// before its variable exists and takes the borrow over once declared.
func (c *Checker) rehold(from, to holder) {
	id, ok := c.held[from]
	if !ok {
		return
	}
	delete(c.held, from)
	c.held[to] = id
	c.borrows[id].holder = to
}

// Borrows returns the active borrows ordered by creation.
func (c *Checker) Borrows() []BorrowInfo {
	out := make([]BorrowInfo, 0, len(c.borrows))
	for _, b := range c.borrows {
		out = append(out, *b)
	}
	sortBorrows(out)
	return out
}

// firstBorrowOf returns the oldest tracked borrow of info; with mutOnly set
// only exclusive borrows count.
func (c *Checker) firstBorrowOf(info *Info, mutOnly bool) *BorrowInfo {
	var first *BorrowInfo
	for _, b := range c.borrows {
		if b.Target.Kind != TargetTracked || b.Target.info != info || (mutOnly && !b.Mut) {
			continue
		}
		if first == nil || b.ID < first.ID {
			first = b
		}
	}
	return first
}

// syncBorrowState mirrors the borrow table into the state of info while the
// variable is not moved.
func (c *Checker) syncBorrowState(info *Info) {
	if info == nil || info.State.Kind == Moved || info.State.Kind == PartiallyMoved {
		return
	}
	count := 0
	var exclusive *BorrowInfo
	for _, b := range c.borrows {
		if b.Target.info != info {
			continue
		}
		count++
		if b.Mut {
			exclusive = b
		}
	}
	switch {
	case exclusive != nil:
		info.State = State{Kind: MutBorrowed, Borrower: exclusive.Borrower}
	case count > 0:
		info.State = State{Kind: Borrowed, Count: count}
	default:
		info.State = State{Kind: Owned}
	}
}

// RegisterReference records that the reference variable ref points at src,
// for dangling and return checks.
func (c *Checker) RegisterReference(ref, src string, mut bool, at source.Span) {
	holder, ok := c.Lookup(ref)
	if !ok {
		return
	}
	target, ok := c.Lookup(src)
	if !ok {
		delete(c.refs, holder)
		return
	}
	c.refs[holder] = refInfo{source: target, at: at, mut: mut}
}

// endStatement releases temporary borrows created since mark.
func (c *Checker) endStatement(mark int) {
	for _, h := range c.temps[mark:] {
		c.release(h)
	}
	c.temps = c.temps[:mark]
}

func borrowLabel(b *BorrowInfo) string {
	kind := "borrow"
	if b.Mut {
		kind = "mutable borrow"
	}
	if b.Temporary {
		return "first " + kind + " occurs here"
	}
	return fmt.Sprintf("first %s occurs here (held by '%s')", kind, b.Borrower)
}
