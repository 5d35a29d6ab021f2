// augment.go patches an already-computed trace with location information
// delivered out of band, typically by a global-handler callback that
// knows url and line but not the full trace.

package errwatch

import "regexp"

// reQuotedRef matches a single-quoted identifier inside a message, e.g.
// "Cannot read property 'length' of undefined". Locating it on the
// source line recovers a column.
var reQuotedRef = regexp.MustCompile(` '([^']+)' `)

// augmentWithInitialFrame builds a candidate top frame from url/line and
// merges it into trace. It reports whether a frame was inserted.
//
// Merge policy against the existing top frame: matching url and line is
// a no-op (the frame is already there); matching url with a missing line
// and a matching function name backfills the existing frame in place;
// anything else inserts the candidate as the new top frame and marks the
// trace partial. A missing url or line only marks the trace incomplete.
func augmentWithInitialFrame(cache *SourceCache, trace *StackTrace, url string, line int, message string) bool {
	if url == "" || line <= 0 {
		trace.Incomplete = true
		return false
	}
	trace.Incomplete = false

	initial := StackFrame{
		URL:     url,
		Func:    cache.guessFunctionName(url, line),
		Line:    line,
		Context: cache.gatherContext(url, line),
	}
	if m := reQuotedRef.FindStringSubmatch(message); m != nil {
		initial.Column = cache.findSourceInLine(m[1], url, line)
	}

	if len(trace.Frames) > 0 {
		top := &trace.Frames[0]
		if top.URL == url {
			if top.Line == line {
				return false
			}
			if top.Line == 0 && top.Func == initial.Func {
				// Repair, not insert: the recovered frame is this one.
				top.Line = line
				top.Context = initial.Context
				return false
			}
		}
	}

	trace.Frames = append([]StackFrame{initial}, trace.Frames...)
	trace.Partial = true
	return true
}
