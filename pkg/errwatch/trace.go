// trace.go defines the canonical trace representation shared by the
// recovery strategies and the report protocol.

package errwatch

import (
	"encoding/json"
	"fmt"
)

// Mode identifies which recovery strategy produced a StackTrace.
type Mode string

const (
	// ModeNativeTrace means the trace was parsed from a browser-native
	// newline-delimited trace string.
	ModeNativeTrace Mode = "native-trace"

	// ModeAltTrace means the trace was parsed from the alternate
	// trace-string dialect some environments expose instead.
	ModeAltTrace Mode = "alt-trace"

	// ModeMultiline means the trace was embedded in a multi-line error
	// message rather than a dedicated trace field.
	ModeMultiline Mode = "embedded-multiline"

	// ModeCallerWalk means the trace was reconstructed by walking the
	// live call chain at report time. Frames are approximate.
	ModeCallerWalk Mode = "caller-walk"

	// ModeHandlerOnly means the only signal was a global handler
	// callback carrying url/line but no trace field.
	ModeHandlerOnly Mode = "handler-only"

	// ModeUnrecoverable means every strategy failed; the trace carries
	// name and message but no frames.
	ModeUnrecoverable Mode = "unrecoverable"

	// ModeResource marks a resource-load failure produced by the
	// transport layer. It is passed through unchanged: Frames is nil and
	// Name holds the failed resource URL.
	ModeResource Mode = "resource"
)

// UnknownFunction is the sentinel used when no function name could be
// recovered for a frame.
const UnknownFunction = "?"

// StackFrame is one call site. Line 0 means the line is unknown; Column
// is nil when unknown (0 is a valid column). Context, when present,
// always contains the offending line, though it may be off-center when
// clipped at a file boundary.
type StackFrame struct {
	// URL is the source location of the frame, empty if unknown.
	URL string `json:"url,omitempty"`

	// Func is the best-effort function name, UnknownFunction if unknown.
	// On caller-walk frames it is unverified.
	Func string `json:"func"`

	// Args holds recovered argument names, usually empty.
	Args []string `json:"args,omitempty"`

	// Line is the 1-based source line, 0 if unknown.
	Line int `json:"line,omitempty"`

	// Column is the 0-based source column, nil if unknown.
	Column *int `json:"column,omitempty"`

	// Context holds source lines around Line, nil if unavailable.
	Context []string `json:"context,omitempty"`
}

// StackTrace is the canonical result of trace recovery. Frames are
// ordered innermost first: Frames[0] is where the error occurred.
type StackTrace struct {
	// Mode tags the strategy that produced this trace.
	Mode Mode `json:"mode"`

	// Name is the error kind (e.g. "ReferenceError"), empty if unknown.
	Name string `json:"name,omitempty"`

	// Message is the error message, empty if unknown.
	Message string `json:"message,omitempty"`

	// Frames is the recovered call stack. Marshals as "stack"; nil for
	// the resource variant and for unrecoverable traces.
	Frames []StackFrame `json:"stack"`

	// ReportID is a unique identifier stamped at delivery (UUID).
	ReportID string `json:"reportId,omitempty"`

	// Fingerprint is a hash for grouping similar traces, stamped at
	// delivery.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Incomplete is set when the top frame still lacks url+line and
	// cannot be trusted. Transient; not serialized.
	Incomplete bool `json:"-"`

	// Partial is set when a synthetic top frame was inserted by
	// augmentation rather than recovered from the original signal.
	// Transient; not serialized.
	Partial bool `json:"-"`
}

// JSON renders the canonical output shape consumed by downstream
// telemetry: {mode, name, message, stack: [{url, func, args, line, column, context}...]}.
func (t *StackTrace) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// RawError is a raised error value as delivered by an execution
// environment or an ingest payload. Which fields are populated depends
// entirely on the environment; every field except Name and Message may
// be empty. The report protocol compares RawError values by pointer
// identity, never by content.
type RawError struct {
	// Name is the error kind (e.g. "TypeError").
	Name string

	// Message is the error message.
	Message string

	// Stack is the browser-native newline-delimited trace field.
	Stack string

	// AltStack is the alternate trace-string dialect some environments
	// carry. Reading Stack destroys this field in at least one of them,
	// so callers populating both must do so before any access.
	AltStack string

	// URL, Line and Column are out-of-band location hints (e.g. from a
	// global handler) describing where the error was raised.
	URL    string
	Line   int
	Column *int

	// Callers is a live call-chain capture taken at the failure point.
	// Report fills it in when empty; the caller-walk strategy consumes it.
	Callers []uintptr
}

// Error implements the error interface.
func (e *RawError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// NewRawError builds a RawError from a Go error. If err is already a
// *RawError it is returned unchanged, preserving identity.
func NewRawError(err error) *RawError {
	if raw, ok := err.(*RawError); ok {
		return raw
	}
	return &RawError{Message: err.Error()}
}

// Int returns a pointer to v, for optional column fields.
func Int(v int) *int {
	return &v
}
