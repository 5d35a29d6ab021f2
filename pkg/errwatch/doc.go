// Package errwatch normalizes stack traces raised in heterogeneous
// JavaScript environments into a single canonical representation.
//
// Browsers disagree about how, and whether, a raised error describes the
// call stack that produced it. errwatch recovers an ordered list of call
// frames (url, function name, line, column, source context) from whatever
// signal is available, trying a fixed chain of increasingly unreliable
// heuristics and degrading gracefully when all of them fail.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - StackTrace / StackFrame: the canonical trace representation, innermost frame first
//   - RawError: the raised value as delivered by an environment or ingest payload
//   - Reporter: the session object running the report/dedup protocol and handler fan-out
//   - SourceCache: memoized same-origin source text, used for context and name recovery
//   - Handler: destination for delivered traces (implement it, or use handlers/stderr)
//
// # Quick Start
//
//	reporter := errwatch.NewReporter(
//	    errwatch.WithHandler(stderr.NewHandler()),
//	)
//	raw := errwatch.ParseRawError(payload)
//	if err := reporter.Report(raw); err != nil {
//	    // the original error, re-raised by contract
//	}
//
// For capturing Go-side panics through the same pipeline:
//
//	defer errwatch.Recover(reporter)
//
// # Design Principles
//
//   - Recovery never aborts reporting: strategy failures are swallowed and the next heuristic runs
//   - Every trace is delivered, even the degraded "unrecoverable" one; nothing is silently dropped
//   - Function names and columns are best-effort; caller-walk frames in particular are unverified
package errwatch
