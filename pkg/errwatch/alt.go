// alt.go implements the alt-trace strategy for environments that expose
// an alternate trace-string dialect: two lines per frame, a location
// line followed by a source excerpt.

package errwatch

import (
	"regexp"
	"strings"
)

var (
	// Location line without a column: " line N ... script [in] url[: in function f]".
	reAltPlain = regexp.MustCompile(`(?i) line (\d+).*script (?:in )?(\S+)(?:: in function (\S+))?$`)

	// Location line with column and call expression:
	// " line N, column C in f(args) in url:".
	reAltColumn = regexp.MustCompile(`(?i) line (\d+), column (\d+)\s*(?:in (?:<anonymous function: ([^>]+)>|([^)]+))\((.*)\))? in (.*):\s*$`)
)

type altTraceStrategy struct {
	cache *SourceCache
}

func (s *altTraceStrategy) recoverTrace(raw *RawError, _ int) *StackTrace {
	if raw.AltStack == "" {
		return nil
	}

	lines := strings.Split(raw.AltStack, "\n")
	var frames []StackFrame
	for i := 0; i < len(lines); i += 2 {
		var frame *StackFrame
		if m := reAltPlain.FindStringSubmatch(lines[i]); m != nil {
			frame = &StackFrame{
				URL:  m[2],
				Func: m[3],
				Line: atoiOrZero(m[1]),
			}
		} else if m := reAltColumn.FindStringSubmatch(lines[i]); m != nil {
			fn := m[3]
			if fn == "" {
				fn = m[4]
			}
			var args []string
			if m[5] != "" {
				args = strings.Split(m[5], ",")
			}
			frame = &StackFrame{
				URL:    m[6],
				Func:   fn,
				Args:   args,
				Line:   atoiOrZero(m[1]),
				Column: parseColumn(m[2]),
			}
		}
		if frame == nil {
			continue
		}

		if frame.Func == "" && frame.Line > 0 {
			frame.Func = s.cache.guessFunctionName(frame.URL, frame.Line)
		}
		if frame.Func == "" {
			frame.Func = UnknownFunction
		}
		if frame.Line > 0 {
			frame.Context = s.cache.gatherContext(frame.URL, frame.Line)
		}
		if frame.Context == nil && i+1 < len(lines) {
			// Degraded: the raw excerpt line is better than nothing.
			frame.Context = []string{lines[i+1]}
		}
		frames = append(frames, *frame)
	}

	if len(frames) == 0 {
		return nil
	}

	return &StackTrace{
		Mode:    ModeAltTrace,
		Name:    raw.Name,
		Message: raw.Message,
		Frames:  frames,
	}
}
