// multiline.go implements the embedded-multiline strategy for
// environments that fold a trace into the error message itself: pairs
// of lines where the even line is a location phrase and the odd line is
// the source excerpt it refers to.

package errwatch

import (
	"regexp"
	"strings"
)

var (
	reLinkedScript = regexp.MustCompile(`(?i)^\s*Line (\d+) of linked script ((?:file|https?|blob)\S+)(?:: in function (\S+))?\s*$`)
	reInlineScript = regexp.MustCompile(`(?i)^\s*Line (\d+) of inline#(\d+) script in ((?:file|https?|blob)\S+)(?:: in function (\S+))?\s*$`)
	reFuncScript   = regexp.MustCompile(`(?i)^\s*Line (\d+) of function script\s*$`)

	reFragment = regexp.MustCompile(`#.*$`)
)

type multilineStrategy struct {
	cache *SourceCache
}

func (s *multilineStrategy) recoverTrace(raw *RawError, _ int) *StackTrace {
	lines := strings.Split(raw.Message, "\n")
	if len(lines) < 4 {
		return nil
	}

	// The first two lines restate the message; frames start at index 2.
	var frames []StackFrame
	for i := 2; i < len(lines); i += 2 {
		var frame *StackFrame
		if m := reLinkedScript.FindStringSubmatch(lines[i]); m != nil {
			frame = &StackFrame{
				URL:  m[2],
				Func: m[3],
				Line: atoiOrZero(m[1]),
			}
		} else if m := reInlineScript.FindStringSubmatch(lines[i]); m != nil {
			frame = &StackFrame{
				URL:  m[3],
				Func: m[4],
				Line: atoiOrZero(m[1]),
			}
		} else if m := reFuncScript.FindStringSubmatch(lines[i]); m != nil {
			frame = &StackFrame{
				URL:  reFragment.ReplaceAllString(s.cache.cfg.documentURL, ""),
				Line: atoiOrZero(m[1]),
			}
		}
		if frame == nil {
			continue
		}

		if frame.Func == "" {
			frame.Func = s.cache.guessFunctionName(frame.URL, frame.Line)
		}

		excerpt := ""
		if i+1 < len(lines) {
			excerpt = lines[i+1]
		}
		context := s.cache.gatherContext(frame.URL, frame.Line)
		// Cross-check the computed context against the adjacent excerpt;
		// on mismatch the excerpt itself is the more trustworthy context.
		mid := ""
		if len(context) > 0 {
			mid = context[len(context)/2]
		}
		if context != nil && strings.TrimSpace(mid) == strings.TrimSpace(excerpt) {
			frame.Context = context
		} else {
			frame.Context = []string{excerpt}
		}

		frames = append(frames, *frame)
	}

	if len(frames) == 0 {
		return nil
	}

	return &StackTrace{
		Mode:    ModeMultiline,
		Name:    raw.Name,
		Message: lines[0],
		Frames:  frames,
	}
}
