// callerwalk.go implements the last-resort strategy: reconstructing a
// trace from a live call-chain capture taken at the point of failure.
// It only works when the capture happened synchronously with the
// failure, which is why Report records the chain up front.

package errwatch

import (
	"runtime"
	"strings"
)

// maxWalkDepth bounds the live capture. Deep enough for meaningful
// context without excessive work on exceptional paths.
const maxWalkDepth = 64

// reportingMarkers identify this module's own entry points, which are
// excluded from walked traces to avoid self-reference.
var reportingMarkers = []string{
	"errwatch.(*Reporter).Report",
	"errwatch.(*Reporter).HandleGlobal",
	"errwatch.(*tracer).computeStackTrace",
	"errwatch.Recover",
	"errwatch.CaptureCallers",
}

// CaptureCallers records the live call chain of the caller, skipping
// skip additional frames. Report uses it internally; wrap helpers that
// add their own frames can capture earlier and set RawError.Callers
// themselves.
func CaptureCallers(skip int) []uintptr {
	pcs := make([]uintptr, maxWalkDepth)
	// +2 skips runtime.Callers and CaptureCallers itself.
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

type callerWalkStrategy struct {
	cache *SourceCache
}

// recoverTrace walks the captured chain outward. The walk halts when the
// same function entry is seen twice: a call-chain walk cannot tell
// bounded recursion from a cycle, so it refuses to loop. Frame identity
// on the result is approximate and documented as unverified. A positive
// depth trims that many frames from the head, dropping synthetic wrapper
// frames added by the reporting layer.
func (s *callerWalkStrategy) recoverTrace(raw *RawError, depth int) *StackTrace {
	if len(raw.Callers) == 0 {
		return nil
	}

	seen := make(map[uintptr]bool)
	it := runtime.CallersFrames(raw.Callers)

	var frames []StackFrame
	for {
		fr, more := it.Next()
		if fr.Entry != 0 && seen[fr.Entry] {
			break
		}
		seen[fr.Entry] = true

		if !isReportingFrame(fr.Function) && !strings.HasPrefix(fr.Function, "runtime.") {
			name := fr.Function
			if name == "" {
				name = UnknownFunction
			}
			frame := StackFrame{
				URL:  fr.File,
				Func: name,
				Line: fr.Line,
			}
			if fr.Line > 0 {
				frame.Context = s.cache.gatherContext(fr.File, fr.Line)
			}
			frames = append(frames, frame)
		}

		if !more {
			break
		}
	}

	if depth > 0 {
		if depth >= len(frames) {
			frames = nil
		} else {
			frames = frames[depth:]
		}
	}

	return &StackTrace{
		Mode:    ModeCallerWalk,
		Name:    raw.Name,
		Message: raw.Message,
		Frames:  frames,
	}
}

func isReportingFrame(function string) bool {
	for _, marker := range reportingMarkers {
		if strings.HasSuffix(function, marker) {
			return true
		}
	}
	return false
}
