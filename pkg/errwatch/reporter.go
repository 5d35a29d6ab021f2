// reporter.go implements the report/dedup protocol: a single-slot
// pending buffer that coalesces a manually reported error with the same
// error surfacing later through a global handler, with a timeout-based
// flush for environments that never confirm.

package errwatch

import (
	"fmt"
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultGracePeriod is how long an incomplete pending report waits for
// a global-handler augmentation before flushing anyway.
const defaultGracePeriod = 2000 * time.Millisecond

// Handler receives every delivered trace. windowError is true when the
// trace came straight from a global handler with no prior Report call.
// Implementations must be comparable so Unsubscribe can match them.
type Handler interface {
	HandleTrace(trace *StackTrace, windowError bool, raw *RawError) error
}

// Installer wires an environment's global error hooks to a Reporter.
// Install runs when the first handler subscribes, Uninstall when the
// last one leaves; Uninstall must restore whatever hook was installed
// before.
type Installer interface {
	Install(r *Reporter)
	Uninstall()
}

type noopInstaller struct{}

func (noopInstaller) Install(*Reporter) {}
func (noopInstaller) Uninstall()        {}

// ReporterOption configures a Reporter.
type ReporterOption func(*reporterConfig)

type reporterConfig struct {
	cache       *SourceCache
	installer   Installer
	logger      *log.Logger
	gracePeriod time.Duration
	scrubber    *Scrubber
	remapper    *Remapper
	handlers    []Handler
}

// WithSourceCache sets the source cache used for context and name
// recovery. A fresh cache with defaults is used otherwise.
func WithSourceCache(cache *SourceCache) ReporterOption {
	return func(c *reporterConfig) {
		c.cache = cache
	}
}

// WithInstaller sets the global-hook installer run on first subscribe.
func WithInstaller(installer Installer) ReporterOption {
	return func(c *reporterConfig) {
		if installer != nil {
			c.installer = installer
		}
	}
}

// WithLogger sets the logger for swallowed internal failures.
// The default is no logging.
func WithLogger(logger *log.Logger) ReporterOption {
	return func(c *reporterConfig) {
		c.logger = logger
	}
}

// WithGracePeriod sets how long an incomplete report waits for
// augmentation before flushing (default 2s).
func WithGracePeriod(d time.Duration) ReporterOption {
	return func(c *reporterConfig) {
		if d >= 0 {
			c.gracePeriod = d
		}
	}
}

// WithScrubber enables redaction of delivered traces.
func WithScrubber(cfg ScrubberConfig) ReporterOption {
	return func(c *reporterConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithRemapper applies source-map remapping to traces before delivery.
func WithRemapper(remapper *Remapper) ReporterOption {
	return func(c *reporterConfig) {
		c.remapper = remapper
	}
}

// WithHandler subscribes a handler at construction time.
func WithHandler(h Handler) ReporterOption {
	return func(c *reporterConfig) {
		c.handlers = append(c.handlers, h)
	}
}

// pendingReport is the single-slot buffer entry: the value most
// recently reported (identity-compared), its normalized form and its
// computed trace.
type pendingReport struct {
	err   error
	raw   *RawError
	trace *StackTrace
	timer *time.Timer
}

// Reporter is the process-wide session object: it owns the source
// cache, the strategy chain, the subscriber list and the single pending
// slot. Construct one per test for isolation; all methods are safe for
// concurrent use.
type Reporter struct {
	tracer    *tracer
	installer Installer
	logger    *log.Logger
	grace     time.Duration
	scrubber  *Scrubber
	remapper  *Remapper

	mu       sync.Mutex
	handlers []Handler
	pending  *pendingReport
}

// NewReporter creates a Reporter with the given options.
func NewReporter(opts ...ReporterOption) *Reporter {
	cfg := reporterConfig{
		installer:   noopInstaller{},
		gracePeriod: defaultGracePeriod,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cache == nil {
		cfg.cache = NewSourceCache()
	}

	r := &Reporter{
		tracer:    newTracer(cfg.cache),
		installer: cfg.installer,
		logger:    cfg.logger,
		grace:     cfg.gracePeriod,
		scrubber:  cfg.scrubber,
		remapper:  cfg.remapper,
	}
	for _, h := range cfg.handlers {
		r.Subscribe(h)
	}
	return r
}

// Subscribe registers a handler. The first subscription installs the
// configured global hooks.
func (r *Reporter) Subscribe(h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	first := len(r.handlers) == 1
	r.mu.Unlock()

	if first {
		r.installer.Install(r)
	}
}

// Unsubscribe removes a previously subscribed handler. Removing the
// last one uninstalls the global hooks, restoring any prior handler.
func (r *Reporter) Unsubscribe(h Handler) {
	r.mu.Lock()
	removed := false
	for i := range r.handlers {
		if r.handlers[i] == h {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			removed = true
			break
		}
	}
	last := removed && len(r.handlers) == 0
	r.mu.Unlock()

	if last {
		r.installer.Uninstall()
	}
}

// Report accepts a raised error, computes its trace and buffers it in
// the pending slot awaiting confirmation by a global handler or timeout
// expiry. It always returns the original error so the caller can
// propagate it: environments that only populate full stack information
// on an unhandled error need the rethrow.
//
// Reporting the same error value again while it is pending is a no-op
// (an inner capture point already saw it). Reporting a different error
// flushes the pending one first.
func (r *Reporter) Report(err error) error {
	if err == nil {
		return nil
	}
	raw := NewRawError(err)
	if len(raw.Callers) == 0 {
		raw.Callers = CaptureCallers(1)
	}

	r.mu.Lock()
	if r.pending != nil && (r.pending.raw == raw || sameReportedValue(r.pending.err, err)) {
		r.mu.Unlock()
		return err
	}
	prev := r.takePendingLocked()
	r.mu.Unlock()

	if prev != nil {
		r.deliverLogged(prev.trace, false, prev.raw)
	}

	trace := r.tracer.computeStackTrace(raw, 0)

	delay := time.Duration(0)
	if trace.Incomplete {
		delay = r.grace
	}

	r.mu.Lock()
	// A competing report may have raced into the slot; it loses.
	stale := r.takePendingLocked()
	p := &pendingReport{err: err, raw: raw, trace: trace}
	r.pending = p
	p.timer = time.AfterFunc(delay, func() {
		r.flushPending(p)
	})
	r.mu.Unlock()

	if stale != nil {
		r.deliverLogged(stale.trace, false, stale.raw)
	}
	return err
}

// Compute runs the recovery chain without entering the report protocol.
func (r *Reporter) Compute(raw *RawError) *StackTrace {
	return r.tracer.computeStackTrace(raw, 0)
}

// HandleGlobal is the entry point for the global-handler collaborator.
// While a report is pending, the supplied url/line augment its trace and
// it flushes immediately, beating the scheduled timeout. With nothing
// pending, a handler-only trace is built from the available fragments
// and delivered directly with windowError set.
//
// The returned error is the last subscriber failure, if any.
func (r *Reporter) HandleGlobal(message, url string, line int, raw *RawError) error {
	r.mu.Lock()
	p := r.takePendingLocked()
	r.mu.Unlock()

	if p != nil {
		augmentWithInitialFrame(r.tracer.cache, p.trace, url, line, message)
		return r.deliver(p.trace, false, p.raw)
	}

	frame := StackFrame{URL: url, Func: UnknownFunction, Line: line}
	if url != "" && line > 0 {
		frame.Func = r.tracer.cache.guessFunctionName(url, line)
		frame.Context = r.tracer.cache.gatherContext(url, line)
	}
	trace := &StackTrace{
		Mode:    ModeHandlerOnly,
		Message: message,
		Frames:  []StackFrame{frame},
	}
	if raw != nil {
		trace.Name = raw.Name
	}
	return r.deliver(trace, true, raw)
}

// ReportResource delivers the resource-load-failure variant produced by
// the transport layer, passing it through unchanged: no frames, name set
// to the failed resource URL.
func (r *Reporter) ReportResource(resourceURL, tagName string) error {
	trace := &StackTrace{
		Mode:    ModeResource,
		Name:    resourceURL,
		Message: tagName + " is load error",
	}
	return r.deliver(trace, true, nil)
}

// sameReportedValue reports whether two raised values are the same
// value. Identity only, never content equality, and no unwrapping. A
// non-comparable dynamic type never matches; comparing it would panic.
func sameReportedValue(a, b error) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// takePendingLocked empties the slot and stops its timer. Stopping is an
// optimization; a timer that fires anyway finds the slot changed and
// does nothing.
func (r *Reporter) takePendingLocked() *pendingReport {
	p := r.pending
	if p == nil {
		return nil
	}
	r.pending = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	return p
}

// flushPending is the timer path. The identity check makes stale timers
// harmless: a slot that was re-occupied or already flushed is left alone.
func (r *Reporter) flushPending(p *pendingReport) {
	r.mu.Lock()
	if r.pending != p {
		r.mu.Unlock()
		return
	}
	r.pending = nil
	r.mu.Unlock()

	r.deliverLogged(p.trace, false, p.raw)
}

func (r *Reporter) deliverLogged(trace *StackTrace, windowError bool, raw *RawError) {
	if err := r.deliver(trace, windowError, raw); err != nil {
		r.logf("errwatch: handler failed during flush: %v", err)
	}
}

// deliver finalizes a trace (remap, scrub, identity stamps) and fans it
// out to every subscriber. A failing handler does not stop delivery to
// the rest, but only the last failure observed is returned; earlier ones
// are discarded. Downstream consumers depend on that exact policy.
func (r *Reporter) deliver(trace *StackTrace, windowError bool, raw *RawError) error {
	if r.remapper != nil {
		r.remapper.ApplyToTrace(trace)
	}
	if r.scrubber != nil {
		r.scrubber.ScrubTrace(trace)
	}
	if trace.ReportID == "" {
		trace.ReportID = uuid.NewString()
	}
	if trace.Fingerprint == "" {
		trace.Fingerprint = Fingerprint(trace)
	}

	r.mu.Lock()
	handlers := make([]Handler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.Unlock()

	var last error
	for _, h := range handlers {
		if err := safeHandle(h, trace, windowError, raw); err != nil {
			if last != nil {
				r.logf("errwatch: handler failure discarded: %v", last)
			}
			last = err
		}
	}
	return last
}

// safeHandle isolates a panicking handler from the others.
func safeHandle(h Handler, trace *StackTrace, windowError bool, raw *RawError) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h.HandleTrace(trace, windowError, raw)
}

func (r *Reporter) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
