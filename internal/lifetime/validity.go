package lifetime

// resolve follows inferred-variable assignments to a representative region.
func (inf *Inferencer) resolve(r Region) Region {
	for range len(inf.assignments) + 1 {
		if r.Kind != RegionInferred {
			return r
		}
		next, ok := inf.assignments[r.Var]
		if !ok {
			return r
		}
		r = next
	}
	return r
}

// CheckReferenceValidity reports whether a reference with region ref may point
// at data with region referent.
//
// 'static data is always valid to reference, and a 'static reference to
// anything shorter is rejected. Two regions with no recorded relation in
// either direction are accepted: the point of use decides.
func (inf *Inferencer) CheckReferenceValidity(ref, referent Region) error {
	ref, referent = inf.resolve(ref), inf.resolve(referent)
	if referent.IsStatic() || ref == referent {
		return nil
	}
	if ref.IsStatic() {
		return &Error{Kind: ErrTooShort, Region: ref, Referent: referent}
	}
	return nil
}

// ReturnCovered reports whether a return region is 'static, equal to a
// parameter region or outlived by one. An uncovered region is not an error by
// itself; returns of local references are rejected by the ownership walk.
func (inf *Inferencer) ReturnCovered(ret Region, params []InputRegion) bool {
	ret = inf.resolve(ret)
	if ret.IsStatic() {
		return true
	}
	for _, p := range params {
		if in := inf.resolve(p.Region); in == ret || inf.Outlives(in, ret) {
			return true
		}
	}
	return false
}
