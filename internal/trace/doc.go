// Package trace records what the checker is doing while it runs.
//
// Tracing stands in for a logging layer: the driver opens a span per run,
// a span per input unit, and the analysis opens a span per function with
// region and ownership sub-spans at debug level.
//
//	borrowck check --trace=- --trace-level=detail ./testdata
//
// # Tracers
//
//   - Nop: disabled tracing, no allocation on the hot path
//   - StreamTracer: writes each event as it arrives (text or NDJSON)
//   - RingTracer: keeps the most recent events for a dump on failure
//   - MultiTracer: fans one event out to several tracers
//
// # Levels and scopes
//
// A level admits every scope at or above its granularity:
//
//	phase  -> driver, pass
//	detail -> driver, pass, module
//	debug  -> everything, including per-node events
//
// The tracer travels in a context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check:"+fn, parent)
//	defer sp.End("")
package trace
