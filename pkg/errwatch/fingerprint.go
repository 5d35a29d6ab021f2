// fingerprint.go generates stable hashes for grouping similar traces.

package errwatch

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint generates a hash for grouping similar traces. It is based
// on the mode, the error name and the top 3 frames (function names where
// recovered, bare URLs otherwise). It ignores variable data like
// messages, report IDs, line and column numbers, so repeated occurrences
// of the same failure hash identically.
func Fingerprint(trace *StackTrace) string {
	parts := []string{string(trace.Mode), trace.Name}

	for i, frame := range trace.Frames {
		if i >= 3 {
			break
		}
		if frame.Func != "" && frame.Func != UnknownFunction {
			parts = append(parts, frame.Func)
		} else {
			parts = append(parts, frame.URL)
		}
	}

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// Hex-encoded first 16 bytes (32 hex chars).
	return hex.EncodeToString(hash[:16])
}
