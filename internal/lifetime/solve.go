package lifetime

import (
	"errors"
	"fmt"
	"slices"

	"borrowck/internal/ast"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Signature is the resolved signature handed to InferFunctionRegions.
type Signature struct {
	Name         string
	Params       []ast.Param
	Ret          *types.Type
	RegionParams []string
	RegionBounds []ast.RegionBound
	Span         source.Span
}

// SignatureOf extracts the signature of a function node.
func SignatureOf(fn *ast.Function) Signature {
	return Signature{
		Name:         fn.QualifiedName(),
		Params:       fn.Params,
		Ret:          fn.Ret,
		RegionParams: fn.RegionParams,
		RegionBounds: fn.RegionBounds,
		Span:         fn.Sp,
	}
}

// Resolution is the solved region picture of one signature.
type Resolution struct {
	Resolved     map[Var]Region
	RegionParams []string
	Constraints  []Constraint
	Inputs       []InputRegion
	Output       Region
	HasOutput    bool
	// Covered is set when a parameter region accounts for Output.
	Covered bool
}

// InferFunctionRegions registers the explicit regions and bounds of sig,
// generates structural constraints from its types, runs elision and solves.
// Region errors are returned as *Error; solver defects wrap ErrInternal.
func (inf *Inferencer) InferFunctionRegions(sig Signature) (*Resolution, error) {
	for _, name := range sig.RegionParams {
		inf.RegisterNamedRegion(name)
	}
	// Regions written on parameters bind implicitly.
	for _, p := range sig.Params {
		for _, name := range explicitRegions(p.Type, nil) {
			inf.RegisterNamedRegion(name)
		}
	}
	for _, b := range sig.RegionBounds {
		longer := inf.ResolveRegionName(b.Region)
		for _, name := range b.Outlives {
			inf.AddOutlives(longer, inf.ResolveRegionName(name), Reason{Kind: ReasonBound})
		}
	}
	if err := inf.checkDeclared(sig); err != nil {
		return nil, err
	}

	for _, p := range sig.Params {
		inf.structural(p.Type, Reason{Kind: ReasonParam, Name: p.Name})
	}
	inf.structural(sig.Ret, Reason{Kind: ReasonReturn})

	el := inf.ApplyElisionRules(sig.Params, sig.Ret)
	if !el.OK && hasElidedReference(sig.Ret) {
		return nil, &Error{Kind: ErrElisionAmbiguous, Function: sig.Name, InputCount: len(el.Inputs), Span: sig.Span}
	}
	if el.HasOutput {
		if written := explicitRegions(sig.Ret, nil); len(written) > 0 {
			inf.AddEqual(inf.ResolveRegionName(written[0]), el.Output, Reason{Kind: ReasonElision})
		}
	}
	if !el.HasOutput {
		if written := explicitRegions(sig.Ret, nil); len(written) > 0 {
			el.Output, el.HasOutput = inf.ResolveRegionName(written[0]), true
		}
	}

	if err := inf.Solve(); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Function = sig.Name
			e.Span = sig.Span
		}
		return nil, err
	}

	params := slices.Clone(sig.RegionParams)
	if len(params) == 0 {
		for _, in := range el.Inputs {
			if in.Region.Kind == RegionNamed && !slices.Contains(params, in.Region.Name) {
				params = append(params, in.Region.Name)
			}
		}
	}
	return &Resolution{
		Resolved:     inf.Assignments(),
		RegionParams: params,
		Constraints:  inf.Constraints(),
		Inputs:       el.Inputs,
		Output:       el.Output,
		HasOutput:    el.HasOutput,
		Covered:      el.HasOutput && inf.ReturnCovered(el.Output, el.Inputs),
	}, nil
}

// checkDeclared rejects region names in the return type or bounds that were
// neither declared nor bound by a parameter.
func (inf *Inferencer) checkDeclared(sig Signature) error {
	names := explicitRegions(sig.Ret, nil)
	for _, b := range sig.RegionBounds {
		names = append(names, b.Region)
		names = append(names, b.Outlives...)
	}
	for _, name := range names {
		if !inf.IsDeclared(name) {
			return &Error{Kind: ErrUndeclared, Function: sig.Name, Region: Named(name), Span: sig.Span}
		}
	}
	return nil
}

// structural walks t and records that each explicit reference region
// outlives the explicit regions of the references directly inside its
// referent: &'a Box<&'b T> yields 'a: 'b.
func (inf *Inferencer) structural(t *types.Type, reason Reason) {
	if t == nil {
		return
	}
	if t.Kind == types.KindReference && t.Region != "" {
		outer := inf.ResolveRegionName(t.Region)
		for _, inner := range innerReferenceRegions(t.Elem, nil) {
			inf.AddOutlives(outer, inf.ResolveRegionName(inner), reason)
		}
	}
	inf.structural(t.Elem, reason)
	for _, a := range t.Args {
		inf.structural(a, reason)
	}
}

// innerReferenceRegions collects explicit regions of the outermost references
// in t without descending below them.
func innerReferenceRegions(t *types.Type, out []string) []string {
	if t == nil {
		return out
	}
	if t.Kind == types.KindReference {
		if t.Region != "" {
			out = append(out, t.Region)
		}
		return out
	}
	out = innerReferenceRegions(t.Elem, out)
	for _, a := range t.Args {
		out = innerReferenceRegions(a, out)
	}
	return out
}

// Solve closes the outlives graph transitively, records Equal constraints as
// assignments of inferred variables and rejects a non-static named region
// that is required to outlive 'static.
func (inf *Inferencer) Solve() error {
	changed := true
	for iter := 0; changed; iter++ {
		if iter == inf.maxIterations {
			return fmt.Errorf("%w: outlives closure did not converge after %d iterations", ErrInternal, inf.maxIterations)
		}
		changed = false
		type edge struct{ longer, shorter Region }
		var added []edge
		for longer, shorters := range inf.graph {
			for mid := range shorters {
				for next := range inf.graph[mid] {
					if next == longer {
						continue
					}
					if _, ok := shorters[next]; !ok {
						added = append(added, edge{longer, next})
					}
				}
			}
		}
		for _, e := range added {
			if inf.addEdge(e.longer, e.shorter) {
				changed = true
			}
		}
	}

	for _, c := range inf.constraints {
		if c.Kind != Equal || c.Longer == c.Shorter {
			continue
		}
		a, b := c.Longer, c.Shorter
		// Alias the younger variable to the older one so chains stay acyclic.
		if a.Kind == RegionInferred && b.Kind == RegionInferred && a.Var < b.Var {
			a, b = b, a
		}
		switch {
		case a.Kind == RegionInferred:
			inf.assignments[a.Var] = b
		case b.Kind == RegionInferred:
			inf.assignments[b.Var] = a
		}
	}

	for _, c := range inf.constraints {
		if c.Kind == Outlives && c.Shorter.IsStatic() && c.Longer.Kind == RegionNamed {
			return &Error{Kind: ErrOutlivesStatic, Region: c.Longer}
		}
	}
	return nil
}
