// Package diag defines the diagnostic model shared by every analysis phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     lifetime inferencer, the ownership checker, and the input loader.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// Package diag does not perform rendering or IO. Rendering lives in
// internal/diagfmt; orchestration lives in internal/driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning, Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Message: short, actionable text naming the affected variable or region.
//   - Primary: the span of the conflicting event.
//   - Notes: secondary spans, e.g. "value moved here" or "first borrow occurs here".
//
// Every note must add new context rather than repeat the message.
//
// # Emitting diagnostics
//
// Producers hold a Reporter. ReportError/ReportWarning build a ReportBuilder that
// accepts notes before Emit. BagReporter collects into a Bag, DedupReporter drops
// repeated findings with identical code, span and message.
package diag
