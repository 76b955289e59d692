package lifetime

import (
	"borrowck/internal/ast"
	"borrowck/internal/types"
)

// InputRegion is the region elision assigned to one reference parameter.
type InputRegion struct {
	Param  string
	Region Region
}

// ElisionResult is the outcome of ApplyElisionRules.
type ElisionResult struct {
	Inputs []InputRegion
	// Output is meaningful only when HasOutput is set.
	Output    Region
	HasOutput bool
	// OK is false only when the return type needs a region and none could be chosen.
	OK bool
}

// ApplyElisionRules assigns regions to reference parameters and, when the
// return type contains a reference, chooses the output region:
//
//  1. every reference parameter gets its own region, explicit or fresh
//  2. exactly one input region becomes the output region
//  3. a reference self parameter overrides rule 2
//
// With no input regions the output is 'static; with several and no self
// reference elision fails.
func (inf *Inferencer) ApplyElisionRules(params []ast.Param, ret *types.Type) ElisionResult {
	var res ElisionResult
	var self *Region
	for _, p := range params {
		if !p.Type.IsReference() {
			continue
		}
		r := inf.regionOf(p.Type)
		res.Inputs = append(res.Inputs, InputRegion{Param: p.Name, Region: r})
		if p.Name == ast.SelfParam {
			self = &r
		}
	}

	res.OK = true
	if !ret.HasReference() {
		return res
	}
	switch {
	case self != nil:
		res.Output, res.HasOutput = *self, true
	case len(res.Inputs) == 1:
		res.Output, res.HasOutput = res.Inputs[0].Region, true
	case len(res.Inputs) == 0:
		res.Output, res.HasOutput = Static, true
	default:
		res.OK = false
	}
	return res
}

// regionOf returns the explicit region of a reference type or a fresh one.
func (inf *Inferencer) regionOf(t *types.Type) Region {
	if t.Region != "" {
		return inf.ResolveRegionName(t.Region)
	}
	return inf.FreshRegion()
}

// hasElidedReference reports whether any reference inside t omits its region.
// Like HasReference it does not look inside function types.
func hasElidedReference(t *types.Type) bool {
	if t == nil || t.Kind == types.KindFn {
		return false
	}
	if t.Kind == types.KindReference && t.Region == "" {
		return true
	}
	if hasElidedReference(t.Elem) {
		return true
	}
	for _, a := range t.Args {
		if hasElidedReference(a) {
			return true
		}
	}
	return false
}

// explicitRegions lists the region names written in t, outermost first,
// skipping function types.
func explicitRegions(t *types.Type, out []string) []string {
	if t == nil || t.Kind == types.KindFn {
		return out
	}
	if t.Kind == types.KindReference && t.Region != "" {
		out = append(out, t.Region)
	}
	out = explicitRegions(t.Elem, out)
	for _, a := range t.Args {
		out = explicitRegions(a, out)
	}
	return out
}
