package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"borrowck/internal/ast"
	"borrowck/internal/diag"
	"borrowck/internal/trace"
)

type UnitResult struct {
	Path      string
	Functions []*FunctionResult
	Bag       *diag.Bag
}

// CheckUnit checks every function and method of u with independent sessions.
// Diagnostics are merged in declaration order, duplicates dropped.
func CheckUnit(ctx context.Context, u *ast.Unit, opts Options) (*UnitResult, error) {
	fns := u.AllFunctions()
	out := &UnitResult{
		Path:      u.Path,
		Functions: make([]*FunctionResult, len(fns)),
		Bag:       diag.NewBag(opts.MaxDiagnostics),
	}
	if len(fns) == 0 {
		return out, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(fns)))
	for i, fn := range fns {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := CheckFunction(gctx, fn, opts)
			// Each goroutine owns its index.
			out.Functions[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: out.Bag})
	for _, res := range out.Functions {
		for _, d := range res.Diags {
			reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	trace.Point(trace.FromContext(ctx), trace.ScopeModule, "unit_checked", u.Path, trace.SpanFromContext(ctx))
	return out, nil
}
