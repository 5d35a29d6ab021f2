// Package stderr provides a handler that logs delivered traces to
// stderr in human-readable format. Useful for development and debugging.
package stderr

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Godiswill/errwatch/pkg/errwatch"
)

// HandlerOption configures the stderr handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	out     io.Writer
	verbose bool
}

// WithVerbose enables per-frame output.
func WithVerbose() HandlerOption {
	return func(c *handlerConfig) {
		c.verbose = true
	}
}

// WithWriter redirects output away from stderr, primarily for tests.
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		if w != nil {
			c.out = w
		}
	}
}

// stderrHandler writes traces to stderr in human-readable format.
type stderrHandler struct {
	out     io.Writer
	verbose bool
}

// NewHandler creates a handler that writes to stderr.
func NewHandler(opts ...HandlerOption) errwatch.Handler {
	cfg := &handlerConfig{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrHandler{
		out:     cfg.out,
		verbose: cfg.verbose,
	}
}

// HandleTrace formats and outputs the trace.
func (h *stderrHandler) HandleTrace(trace *errwatch.StackTrace, windowError bool, raw *errwatch.RawError) error {
	// Format: [ERRWATCH] <mode> <name> (window)
	var parts []string
	parts = append(parts, fmt.Sprintf("[ERRWATCH] %s", trace.Mode))
	if trace.Name != "" {
		parts = append(parts, trace.Name)
	}
	if windowError {
		parts = append(parts, "(window)")
	}
	fmt.Fprintln(h.out, strings.Join(parts, " "))

	if trace.Message != "" {
		fmt.Fprintf(h.out, "        Message: %s\n", trace.Message)
	}
	if trace.Fingerprint != "" {
		fmt.Fprintf(h.out, "        Fingerprint: %s\n", trace.Fingerprint)
	}

	// Frames (only in verbose mode)
	if h.verbose {
		for _, frame := range trace.Frames {
			col := "-"
			if frame.Column != nil {
				col = strconv.Itoa(*frame.Column)
			}
			fmt.Fprintf(h.out, "          at %s (%s:%d:%s)\n", frame.Func, frame.URL, frame.Line, col)
		}
	}

	return nil
}
