package errwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fingerprintTrace() *StackTrace {
	return &StackTrace{
		Mode:    ModeNativeTrace,
		Name:    "TypeError",
		Message: "Cannot read property 'length' of undefined",
		Frames: []StackFrame{
			{URL: "http://example.com/cart.js", Func: "totals", Line: 42, Column: Int(13)},
			{URL: "http://example.com/cart.js", Func: "checkout", Line: 91},
			{URL: "http://example.com/app.js", Func: "main", Line: 7},
		},
	}
}

func TestFingerprint_StableAcrossVariableData(t *testing.T) {
	a := fingerprintTrace()
	b := fingerprintTrace()
	b.Message = "Cannot read property 'length' of null"
	b.Frames[0].Line = 57
	b.Frames[0].Column = Int(2)
	b.ReportID = "abc"

	assert.Equal(t, Fingerprint(a), Fingerprint(b),
		"messages, positions and report IDs must not affect grouping")
}

func TestFingerprint_DistinguishesFailures(t *testing.T) {
	a := fingerprintTrace()

	differentFunc := fingerprintTrace()
	differentFunc.Frames[0].Func = "subtotals"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(differentFunc))

	differentName := fingerprintTrace()
	differentName.Name = "ReferenceError"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(differentName))

	differentMode := fingerprintTrace()
	differentMode.Mode = ModeCallerWalk
	assert.NotEqual(t, Fingerprint(a), Fingerprint(differentMode))
}

func TestFingerprint_UnknownFunctionFallsBackToURL(t *testing.T) {
	a := fingerprintTrace()
	a.Frames[0].Func = UnknownFunction

	b := fingerprintTrace()
	b.Frames[0].Func = UnknownFunction
	b.Frames[0].URL = "http://example.com/other.js"

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b),
		"unnamed frames group by URL")
}

func TestFingerprint_Shape(t *testing.T) {
	fp := Fingerprint(fingerprintTrace())
	assert.Len(t, fp, 32)
	assert.Regexp(t, "^[0-9a-f]+$", fp)

	assert.NotEmpty(t, Fingerprint(&StackTrace{Mode: ModeUnrecoverable}))
}

func TestFingerprint_OnlyTopFramesCount(t *testing.T) {
	a := fingerprintTrace()
	b := fingerprintTrace()
	b.Frames = append(b.Frames, StackFrame{URL: "http://example.com/deep.js", Func: "deep"})

	assert.Equal(t, Fingerprint(a), Fingerprint(b),
		"frames beyond the top 3 must not affect grouping")
}
