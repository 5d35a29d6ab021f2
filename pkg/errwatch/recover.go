// recover.go routes Go-side panics through the report protocol, so
// server code embedding the normalizer shares one delivery pipeline
// with ingested browser errors.

package errwatch

import "fmt"

// Recover captures a panic, reports it through the reporter, and
// returns the recovered value. It does NOT re-panic.
//
// It must be the deferred function itself; wrapping it in another
// closure moves it out of recover's reach:
//
//	func handler() {
//	    defer errwatch.Recover(reporter)
//	    // code that might panic
//	}
func Recover(reporter *Reporter) any {
	r := recover()
	if r == nil {
		return nil
	}

	raw := &RawError{
		Name:    "panic",
		Message: formatRecovered(r),
		Callers: CaptureCallers(1),
	}

	// Report returns the raw error for rethrow; Recover deliberately
	// swallows it instead.
	_ = reporter.Report(raw)

	return r
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
