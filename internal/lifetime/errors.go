package lifetime

import (
	"errors"
	"fmt"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

// ErrInternal marks defects in the solver itself, such as the closure not
// converging. It is never reported as a source diagnostic.
var ErrInternal = errors.New("lifetime: internal error")

type ErrorKind uint8

const (
	ErrElisionAmbiguous ErrorKind = iota
	ErrOutlivesStatic
	ErrTooShort
	ErrUndeclared
)

// Error is a user-facing region violation.
type Error struct {
	Kind       ErrorKind
	Function   string
	Region     Region // offending region; the reference side for ErrTooShort
	Referent   Region // ErrTooShort only
	InputCount int    // ErrElisionAmbiguous only
	Span       source.Span
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrElisionAmbiguous:
		return fmt.Sprintf("cannot infer the region of the return type of '%s': %d input regions and no self reference", e.Function, e.InputCount)
	case ErrOutlivesStatic:
		return fmt.Sprintf("region %s is required to outlive 'static", e.Region)
	case ErrTooShort:
		return fmt.Sprintf("reference with region %s outlives the data it points to (%s)", e.Region, e.Referent)
	case ErrUndeclared:
		return fmt.Sprintf("use of undeclared region %s", e.Region)
	default:
		return "region error"
	}
}

// Code maps the error onto its diagnostic code.
func (e *Error) Code() diag.Code {
	switch e.Kind {
	case ErrElisionAmbiguous:
		return diag.SemaRegionElisionAmbiguous
	case ErrOutlivesStatic:
		return diag.SemaRegionOutlivesStatic
	case ErrTooShort:
		return diag.SemaRegionTooShort
	case ErrUndeclared:
		return diag.SemaRegionUndeclared
	default:
		return diag.UnknownCode
	}
}
