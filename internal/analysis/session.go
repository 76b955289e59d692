package analysis

import (
	"context"
	"errors"
	"fmt"

	"borrowck/internal/ast"
	"borrowck/internal/diag"
	"borrowck/internal/lifetime"
	"borrowck/internal/ownership"
	"borrowck/internal/trace"
)

type Options struct {
	Mode           ownership.Mode
	MaxDiagnostics int
	Jobs           int // 0 means GOMAXPROCS
}

// FunctionResult is what one session learned about one function.
type FunctionResult struct {
	Name       string
	Resolution *lifetime.Resolution // nil when region inference failed
	Diags      []diag.Diagnostic
}

// Failed reports whether the function produced any diagnostic.
func (r *FunctionResult) Failed() bool { return len(r.Diags) > 0 }

// Session holds the engines for a single function check and is discarded
// afterwards.
type Session struct {
	opts    Options
	inf     *lifetime.Inferencer
	checker *ownership.Checker
}

func NewSession(opts Options) *Session {
	return &Session{opts: opts, inf: lifetime.NewInferencer()}
}

// CheckFunction checks fn in a fresh session.
func CheckFunction(ctx context.Context, fn *ast.Function, opts Options) (*FunctionResult, error) {
	return NewSession(opts).Check(ctx, fn)
}

// Check infers the regions of fn's signature and then walks its body.
//
// Region and ownership violations end up in the result's diagnostics. The
// returned error is reserved for defects of the analysis itself and wraps
// lifetime.ErrInternal.
func (s *Session) Check(ctx context.Context, fn *ast.Function) (*FunctionResult, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "check_function", trace.SpanFromContext(ctx))
	span.WithExtra("fn", fn.QualifiedName())
	res := &FunctionResult{Name: fn.QualifiedName()}
	defer func() { span.End(fmt.Sprintf("%d diagnostics", len(res.Diags))) }()

	lspan := trace.Begin(tracer, trace.ScopeNode, "lifetime", span.ID())
	resolution, err := s.inf.InferFunctionRegions(lifetime.SignatureOf(fn))
	lspan.End("")
	var regionErr *lifetime.Error
	switch {
	case err == nil:
		res.Resolution = resolution
	case errors.As(err, &regionErr):
		res.Diags = append(res.Diags, regionDiagnostic(regionErr, fn))
		if s.opts.Mode == ownership.ModeStrict {
			return res, nil
		}
	default:
		return res, fmt.Errorf("%s: %w", fn.QualifiedName(), err)
	}

	opts := []ownership.Option{ownership.WithTracer(tracer, span.ID())}
	if resolution != nil {
		s.bindParams(fn, resolution)
		opts = append(opts, ownership.WithRegions(s.inf))
	}
	s.checker = ownership.NewChecker(s.opts.Mode, opts...)

	ospan := trace.Begin(tracer, trace.ScopeNode, "ownership", span.ID())
	err = s.checker.CheckFunction(fn)
	ospan.End("")
	var v *ownership.Violation
	switch {
	case err == nil:
		for _, v := range s.checker.Violations() {
			res.Diags = append(res.Diags, v.Diagnostic())
		}
	case errors.As(err, &v):
		res.Diags = append(res.Diags, v.Diagnostic())
	case errors.As(err, &regionErr):
		res.Diags = append(res.Diags, regionDiagnostic(regionErr, fn))
	default:
		return res, fmt.Errorf("%s: %w", fn.QualifiedName(), err)
	}
	return res, nil
}

// bindParams gives every parameter a variable region: the elided or written
// region for references and a fresh one for values.
func (s *Session) bindParams(fn *ast.Function, r *lifetime.Resolution) {
	byName := make(map[string]lifetime.Region, len(r.Inputs))
	for _, in := range r.Inputs {
		byName[in.Param] = in.Region
	}
	for _, p := range fn.Params {
		region, ok := byName[p.Name]
		if !ok {
			region = s.inf.FreshRegion()
		}
		s.inf.RegisterVarRegion(p.Name, region)
	}
}

func regionDiagnostic(e *lifetime.Error, fn *ast.Function) diag.Diagnostic {
	at := e.Span
	if at.Empty() {
		at = fn.Sp
	}
	d := diag.NewError(e.Code(), at, e.Error())
	if e.Kind == lifetime.ErrElisionAmbiguous {
		for _, p := range fn.Params {
			if p.Type.IsReference() {
				d = d.WithNote(p.Sp, fmt.Sprintf("'%s' is one of the candidate input regions", p.Name))
			}
		}
	}
	return d
}
