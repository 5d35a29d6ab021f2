// remap.go rewrites recovered frames to their original source positions
// using registered source maps. Minified production bundles make raw
// frame coordinates useless; remapping restores the authored ones.

package errwatch

import (
	"sync"

	"github.com/go-sourcemap/sourcemap"
)

// Remapper holds parsed source maps keyed by the generated file URL and
// applies them to traces before delivery. Safe for concurrent use.
type Remapper struct {
	mu        sync.Mutex
	consumers map[string]*sourcemap.Consumer
}

// NewRemapper creates an empty Remapper.
func NewRemapper() *Remapper {
	return &Remapper{
		consumers: make(map[string]*sourcemap.Consumer),
	}
}

// AddSourceMap registers the source map for the given generated URL.
func (r *Remapper) AddSourceMap(url string, data []byte) error {
	consumer, err := sourcemap.Parse(url, data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.consumers[url] = consumer
	r.mu.Unlock()
	return nil
}

// ApplyToTrace rewrites every frame that has a registered map and full
// coordinates. Best-effort: frames without a map, without coordinates,
// or without a mapping at their position are left untouched.
func (r *Remapper) ApplyToTrace(trace *StackTrace) {
	for i := range trace.Frames {
		r.applyFrame(&trace.Frames[i])
	}
}

func (r *Remapper) applyFrame(frame *StackFrame) {
	if frame.Line <= 0 || frame.Column == nil {
		return
	}

	r.mu.Lock()
	consumer := r.consumers[frame.URL]
	r.mu.Unlock()
	if consumer == nil {
		return
	}

	// Consumer.Source expects a 1-indexed line and 0-indexed column,
	// matching the frame convention.
	file, fn, line, col, ok := consumer.Source(frame.Line, *frame.Column)
	if !ok || file == "" || line <= 0 {
		return
	}

	frame.URL = file
	frame.Line = line
	frame.Column = Int(col)
	if fn != "" {
		frame.Func = fn
	}
	// The gathered context described the generated file; it no longer
	// matches the remapped position.
	frame.Context = nil
}
