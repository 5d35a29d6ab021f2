// scrub.go implements fail-closed redaction of delivered traces.
// Browser error messages and source excerpts routinely leak tokens,
// credentials and addresses; frame URLs leak session parameters.

package errwatch

import (
	"regexp"
	"strings"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitivePatterns contains additional regex patterns to redact
	// from messages and context lines. Invalid patterns are ignored.
	SensitivePatterns []string

	// MaxMessageSize is the maximum length for messages (default: 4096).
	MaxMessageSize int

	// StripQueryStrings removes query strings and fragments from frame
	// URLs (default: true).
	StripQueryStrings bool

	// FailClosed fully redacts a message when scrubbing it fails for
	// any reason (default: true). Never persist raw data on error.
	FailClosed bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize:    4096,
		StripQueryStrings: true,
		FailClosed:        true,
	}
}

// Compiled patterns for message scrubbing (compiled once at package init)
var traceScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-.]+['"]?`),
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), // JWT

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
}

// Scrubber redacts sensitive data from traces before delivery.
type Scrubber struct {
	cfg   ScrubberConfig
	extra []*regexp.Regexp
}

// NewScrubber creates a new scrubber with the given configuration.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	var extra []*regexp.Regexp
	for _, p := range cfg.SensitivePatterns {
		if re, err := regexp.Compile(p); err == nil {
			extra = append(extra, re)
		}
	}
	return &Scrubber{cfg: cfg, extra: extra}
}

// ScrubTrace redacts the trace in place: the message, every frame URL
// and every context line.
func (s *Scrubber) ScrubTrace(trace *StackTrace) {
	trace.Message = s.ScrubMessage(trace.Message)
	for i := range trace.Frames {
		frame := &trace.Frames[i]
		frame.URL = s.scrubURL(frame.URL)
		for j := range frame.Context {
			frame.Context[j] = s.ScrubMessage(frame.Context[j])
		}
	}
}

// ScrubMessage redacts sensitive substrings from a message. On any
// internal failure the whole message is redacted when FailClosed is set.
func (s *Scrubber) ScrubMessage(msg string) (out string) {
	if msg == "" {
		return msg
	}
	defer func() {
		if recover() != nil {
			if s.cfg.FailClosed {
				out = "[REDACTED]"
			} else {
				out = msg
			}
		}
	}()

	if len(msg) > s.cfg.MaxMessageSize {
		msg = msg[:s.cfg.MaxMessageSize] + "...[TRUNCATED]"
	}
	for _, re := range traceScrubPatterns {
		msg = re.ReplaceAllString(msg, "[REDACTED]")
	}
	for _, re := range s.extra {
		msg = re.ReplaceAllString(msg, "[REDACTED]")
	}
	return msg
}

// scrubURL strips the query string and fragment from a frame URL.
func (s *Scrubber) scrubURL(url string) string {
	if !s.cfg.StripQueryStrings {
		return url
	}
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
