// Package lifetime assigns and solves region constraints for the references
// in one function signature.
package lifetime

import (
	"fmt"
	"strconv"
)

// Var is a solver-assigned region placeholder, unique within one Inferencer
// session and never reused.
type Var uint32

func (v Var) String() string { return "'_" + strconv.FormatUint(uint64(v), 10) }

type RegionKind uint8

const (
	RegionNamed RegionKind = iota
	RegionInferred
	RegionStatic
)

// Region is a lifetime. Regions are comparable and usable as map keys.
type Region struct {
	Kind RegionKind
	Name string // RegionNamed
	Var  Var    // RegionInferred
}

// StaticName is the reserved name of the static region.
const StaticName = "static"

var Static = Region{Kind: RegionStatic}

func Named(name string) Region {
	if name == StaticName {
		return Static
	}
	return Region{Kind: RegionNamed, Name: name}
}

func Inferred(v Var) Region { return Region{Kind: RegionInferred, Var: v} }

func (r Region) IsStatic() bool { return r.Kind == RegionStatic }

func (r Region) String() string {
	switch r.Kind {
	case RegionStatic:
		return "'static"
	case RegionNamed:
		return "'" + r.Name
	case RegionInferred:
		return r.Var.String()
	default:
		return fmt.Sprintf("Region(%d)", r.Kind)
	}
}

// ReasonKind tags why a constraint was recorded. It never affects solving.
type ReasonKind uint8

const (
	ReasonParam ReasonKind = iota
	ReasonReturn
	ReasonField
	ReasonBound
	ReasonAssignment
	ReasonElision
)

type Reason struct {
	Kind ReasonKind
	Name string // parameter, field or variable name where relevant
}

func (r Reason) String() string {
	switch r.Kind {
	case ReasonParam:
		return "parameter '" + r.Name + "'"
	case ReasonReturn:
		return "return type"
	case ReasonField:
		return "field '" + r.Name + "'"
	case ReasonBound:
		return "explicit bound"
	case ReasonAssignment:
		return "assignment to '" + r.Name + "'"
	case ReasonElision:
		return "elision"
	default:
		return "unknown"
	}
}

type ConstraintKind uint8

const (
	Outlives ConstraintKind = iota
	Equal
)

// Constraint is Longer: Shorter for Outlives. For Equal the two fields are
// simply the unified sides.
type Constraint struct {
	Kind    ConstraintKind
	Longer  Region
	Shorter Region
	Reason  Reason
}

func (c Constraint) String() string {
	if c.Kind == Equal {
		return fmt.Sprintf("%s == %s (%s)", c.Longer, c.Shorter, c.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", c.Longer, c.Shorter, c.Reason)
}
