// native.go implements the native-trace strategy: parsing the
// newline-delimited trace string most environments attach to a raised
// error. Lines come in several dialects; each line is tried against
// every dialect in a fixed order and non-matching lines are skipped.

package errwatch

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Dialect A: "at func (url:line:column)". The column may be a
	// literal NaN in some environments, which parses as absent.
	reAtParen = regexp.MustCompile(`(?i)^\s*at (.*?) ?\(((?:file|https?|blob|chrome-extension|native|eval|webpack|<anonymous>|/|[\w.$-]+\.\w+).*?)(?::(\d+))?(?::(\d+|NaN))?\)?\s*$`)

	// Dialect A': "at url:line:column" without parentheses, as emitted
	// by app-container environments.
	reAtBare = regexp.MustCompile(`(?i)^\s*at (?:((?:\[object object\])?.+) )?\(?((?:file|ms-appx|https?|webpack|blob):.*?):(\d+)(?::(\d+))?\)?\s*$`)

	// Dialect B: "func@url:line:column", optionally with an argument
	// list and without a leading token. The line is mandatory; prose
	// that merely starts with a URL token must not parse as a frame.
	reAtSign = regexp.MustCompile(`(?i)^\s*(.*?)(?:\((.*?)\))?(?:^|@)((?:file|https?|blob|chrome|webpack|resource|\[native).*?|[^@\s]*bundle|[\w.$-]+\.\w+):(\d+)(?::(\d+))?\s*$`)

	// Locations wrapped by eval carry the original coordinates inside;
	// the wrapper's own coordinates are thrown away.
	reEvalParen = regexp.MustCompile(`\((\S*)(?::(\d+))(?::(\d+))\)`)
	reEvalChain = regexp.MustCompile(`(?i)(\S+) line (\d+)(?: > eval line \d+)* > eval`)

	// "X is undefined" messages let the top frame's column be recovered
	// by locating X on the offending source line.
	reUndefinedRef = regexp.MustCompile(`^(.*) is undefined$`)
)

type nativeTraceStrategy struct {
	cache *SourceCache
}

func (s *nativeTraceStrategy) recoverTrace(raw *RawError, _ int) *StackTrace {
	if raw.Stack == "" {
		return nil
	}

	var frames []StackFrame
	for i, line := range strings.Split(raw.Stack, "\n") {
		var frame *StackFrame
		if m := reAtParen.FindStringSubmatch(line); m != nil {
			frame = frameFromAtParen(m)
		} else if m := reAtBare.FindStringSubmatch(line); m != nil {
			frame = frameFromAtBare(m)
		} else if m := reAtSign.FindStringSubmatch(line); m != nil {
			frame = frameFromAtSign(m, i == 0, raw)
		} else {
			continue
		}

		if frame.Func == "" {
			if frame.Line > 0 {
				frame.Func = s.cache.guessFunctionName(frame.URL, frame.Line)
			} else {
				frame.Func = UnknownFunction
			}
		}
		if frame.Line > 0 {
			frame.Context = s.cache.gatherContext(frame.URL, frame.Line)
		}
		frames = append(frames, *frame)
	}

	if len(frames) == 0 {
		return nil
	}

	if m := reUndefinedRef.FindStringSubmatch(raw.Message); m != nil {
		if frames[0].Line > 0 && frames[0].Column == nil {
			frames[0].Column = s.cache.findSourceInLine(m[1], frames[0].URL, frames[0].Line)
		}
	}

	return &StackTrace{
		Mode:    ModeNativeTrace,
		Name:    raw.Name,
		Message: raw.Message,
		Frames:  frames,
	}
}

// frameFromAtParen builds a frame from a dialect-A match: m[1] func,
// m[2] location, m[3] line, m[4] column.
func frameFromAtParen(m []string) *StackFrame {
	loc, line, col := m[2], m[3], m[4]

	isNative := strings.HasPrefix(loc, "native")
	if strings.HasPrefix(loc, "eval") {
		if sub := reEvalParen.FindStringSubmatch(loc); sub != nil {
			loc, line, col = sub[1], sub[2], sub[3]
		}
	}

	frame := &StackFrame{
		Func:   m[1],
		Line:   atoiOrZero(line),
		Column: parseColumn(col),
	}
	if isNative {
		// Native frames have no location; keep the token as the only
		// argument for display parity with the source dialect.
		frame.Args = []string{loc}
	} else {
		frame.URL = loc
	}
	return frame
}

// frameFromAtBare builds a frame from a dialect-A' match: m[1] func,
// m[2] url, m[3] line, m[4] column.
func frameFromAtBare(m []string) *StackFrame {
	return &StackFrame{
		URL:    m[2],
		Func:   m[1],
		Line:   atoiOrZero(m[3]),
		Column: parseColumn(m[4]),
	}
}

// frameFromAtSign builds a frame from a dialect-B match: m[1] func,
// m[2] args, m[3] url, m[4] line, m[5] column. This dialect structurally
// omits the column on the first line, so it is back-filled there from
// the error's own column field when present.
func frameFromAtSign(m []string, first bool, raw *RawError) *StackFrame {
	url, line := m[3], m[4]
	col := parseColumn(m[5])

	if strings.Contains(url, " > eval") {
		if sub := reEvalChain.FindStringSubmatch(url); sub != nil {
			// The eval chain keeps the original url and line but the
			// column belongs to the wrapper; drop it.
			url, line = sub[1], sub[2]
			col = nil
		}
	}

	if first && col == nil && raw.Column != nil {
		// The out-of-band column field is zero-based.
		col = Int(*raw.Column + 1)
	}

	var args []string
	if m[2] != "" {
		args = strings.Split(m[2], ",")
	}

	return &StackFrame{
		URL:    url,
		Func:   m[1],
		Args:   args,
		Line:   atoiOrZero(line),
		Column: col,
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseColumn returns nil for an empty or non-numeric column (e.g. the
// literal NaN some environments emit).
func parseColumn(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return Int(n)
}
