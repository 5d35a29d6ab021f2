// compute.go runs the ordered strategy chain that turns a RawError into
// a canonical StackTrace.

package errwatch

// strategy is one heuristic for recovering a trace from a raised value.
// An implementation returns nil when its signal is absent or useless; it
// never reports an error. The depth argument trims that many frames from
// the head of a caller-walk result and is ignored by the parsing
// strategies.
type strategy interface {
	recoverTrace(raw *RawError, depth int) *StackTrace
}

// tracer owns the strategy chain and the shared source cache. Reporter
// embeds one; tests may construct their own for isolated computation.
type tracer struct {
	cache      *SourceCache
	strategies []strategy
}

func newTracer(cache *SourceCache) *tracer {
	return &tracer{
		cache: cache,
		strategies: []strategy{
			&nativeTraceStrategy{cache: cache},
			&altTraceStrategy{cache: cache},
			&multilineStrategy{cache: cache},
			&callerWalkStrategy{cache: cache},
		},
	}
}

// computeStackTrace tries each strategy in order and returns the first
// result. A strategy that panics internally counts as no-result. When
// every strategy fails the returned trace is tagged unrecoverable and
// carries no frames; the caller always gets a trace, never an error.
func (t *tracer) computeStackTrace(raw *RawError, depth int) *StackTrace {
	if raw == nil {
		return &StackTrace{Mode: ModeUnrecoverable}
	}

	// The alternate dialect field is destroyed as a side effect of
	// reading the native field in at least one environment. Snapshot the
	// whole value before any strategy touches it, so the alt-trace
	// strategy sees the field regardless of what ran before it.
	captured := *raw

	for _, s := range t.strategies {
		trace := tryStrategy(s, &captured, depth)
		if trace == nil {
			continue
		}
		if _, walked := s.(*callerWalkStrategy); walked {
			// Caller-walk cannot see the frame where the error was
			// actually raised; repair the top frame from the error's
			// own location fields.
			augmentWithInitialFrame(t.cache, trace, captured.URL, captured.Line, captured.Message)
		}
		return trace
	}

	return &StackTrace{
		Mode:    ModeUnrecoverable,
		Name:    captured.Name,
		Message: captured.Message,
	}
}

// tryStrategy isolates a strategy's internal failures: a panic while
// recovering is treated as no-result so the next heuristic gets a try.
func tryStrategy(s strategy, raw *RawError, depth int) (trace *StackTrace) {
	defer func() {
		if r := recover(); r != nil {
			trace = nil
		}
	}()
	return s.recoverTrace(raw, depth)
}
