package lifetime

import (
	"fmt"
	"maps"

	"fortio.org/safecast"

	"borrowck/internal/scope"
)

// defaultMaxIterations bounds the outlives closure. A finite graph closes
// long before this; hitting it means the graph is corrupt.
const defaultMaxIterations = 100

// Inferencer is one region inference session. It is not safe for concurrent
// use; each function gets its own.
type Inferencer struct {
	nextVar     uint32
	constraints []Constraint
	scopes      *scope.Tree
	named       map[string]struct{}
	varRegions  []map[string]Region // parallel to the open scopes
	graph       map[Region]map[Region]struct{}
	assignments map[Var]Region

	maxIterations int
}

func NewInferencer() *Inferencer {
	inf := &Inferencer{scopes: scope.NewTree()}
	inf.Reset()
	return inf
}

// Reset returns the inferencer to the state of a fresh session.
func (inf *Inferencer) Reset() {
	inf.nextVar = 0
	inf.constraints = nil
	inf.scopes.Reset()
	inf.named = make(map[string]struct{})
	inf.graph = make(map[Region]map[Region]struct{})
	inf.assignments = make(map[Var]Region)
	inf.varRegions = nil
	inf.maxIterations = defaultMaxIterations
	inf.PushScope(scope.KindFunction)
}

// FreshRegion allocates a new inferred region.
func (inf *Inferencer) FreshRegion() Region {
	v, err := safecast.Conv[uint32](int64(inf.nextVar) + 1)
	if err != nil {
		panic(fmt.Errorf("region variable overflow: %w", err))
	}
	region := Inferred(Var(inf.nextVar))
	inf.nextVar = v
	return region
}

// PushScope opens a scope for variable regions.
func (inf *Inferencer) PushScope(kind scope.Kind) scope.ID {
	inf.varRegions = append(inf.varRegions, nil)
	return inf.scopes.Push(kind)
}

// PopScope forgets the variable regions registered in the innermost scope.
// The outermost scope opened by Reset is never popped.
func (inf *Inferencer) PopScope() {
	if len(inf.varRegions) <= 1 {
		return
	}
	inf.varRegions = inf.varRegions[:len(inf.varRegions)-1]
	inf.scopes.Pop()
}

func (inf *Inferencer) ScopeDepth() int { return inf.scopes.Depth() }

func (inf *Inferencer) RegisterNamedRegion(name string) {
	if name == StaticName {
		return
	}
	inf.named[name] = struct{}{}
}

// IsDeclared reports whether a region name is 'static or has been registered.
func (inf *Inferencer) IsDeclared(name string) bool {
	if name == StaticName {
		return true
	}
	_, ok := inf.named[name]
	return ok
}

// ResolveRegionName maps a written region name onto a Region. Unregistered
// names still resolve to Named and are rejected by InferFunctionRegions if
// they are never bound.
func (inf *Inferencer) ResolveRegionName(name string) Region {
	return Named(name)
}

// RegisterVarRegion records the region of a variable in the innermost scope.
func (inf *Inferencer) RegisterVarRegion(name string, r Region) {
	top := len(inf.varRegions) - 1
	if inf.varRegions[top] == nil {
		inf.varRegions[top] = make(map[string]Region)
	}
	inf.varRegions[top][name] = r
}

// VarRegion looks a variable's region up, innermost scope first.
func (inf *Inferencer) VarRegion(name string) (Region, bool) {
	for i := len(inf.varRegions) - 1; i >= 0; i-- {
		if r, ok := inf.varRegions[i][name]; ok {
			return r, true
		}
	}
	return Region{}, false
}

func (inf *Inferencer) AddOutlives(longer, shorter Region, reason Reason) {
	inf.constraints = append(inf.constraints, Constraint{Kind: Outlives, Longer: longer, Shorter: shorter, Reason: reason})
	inf.addEdge(longer, shorter)
}

func (inf *Inferencer) AddEqual(a, b Region, reason Reason) {
	inf.constraints = append(inf.constraints, Constraint{Kind: Equal, Longer: a, Shorter: b, Reason: reason})
}

// Constraints returns the accepted constraints in insertion order.
func (inf *Inferencer) Constraints() []Constraint {
	return append([]Constraint(nil), inf.constraints...)
}

// Outlives reports whether longer: shorter is derivable from the graph.
// Meaningful after Solve.
func (inf *Inferencer) Outlives(longer, shorter Region) bool {
	if longer == shorter || longer.IsStatic() {
		return true
	}
	_, ok := inf.graph[longer][shorter]
	return ok
}

// Assignment returns what an inferred variable was unified with.
func (inf *Inferencer) Assignment(v Var) (Region, bool) {
	r, ok := inf.assignments[v]
	return r, ok
}

// Assignments returns a copy of the solved variable assignments.
func (inf *Inferencer) Assignments() map[Var]Region {
	return maps.Clone(inf.assignments)
}

func (inf *Inferencer) addEdge(longer, shorter Region) bool {
	set := inf.graph[longer]
	if set == nil {
		set = make(map[Region]struct{})
		inf.graph[longer] = set
	}
	if _, ok := set[shorter]; ok {
		return false
	}
	set[shorter] = struct{}{}
	return true
}
