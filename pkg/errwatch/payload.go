// payload.go ingests browser error payloads. Environments disagree not
// only about trace fields but about field names and nesting, so the
// parse is deliberately tolerant: recognized fields are picked out of
// whatever shape arrives and everything else is ignored.

package errwatch

import "github.com/tidwall/gjson"

// ParseRawError extracts the recognized error fields from a JSON
// payload. Missing or malformed fields stay at their zero values; the
// result is never nil, so a garbage payload degrades to an empty
// RawError that the recovery chain reports as unrecoverable.
func ParseRawError(payload []byte) *RawError {
	doc := gjson.ParseBytes(payload)
	if e := doc.Get("error"); e.IsObject() {
		doc = e
	}

	raw := &RawError{
		Name:     doc.Get("name").String(),
		Message:  firstResult(doc, "message", "msg", "description").String(),
		Stack:    doc.Get("stack").String(),
		AltStack: doc.Get("stacktrace").String(),
		URL:      firstResult(doc, "url", "source", "filename").String(),
	}

	if v := firstResult(doc, "line", "lineno", "lineNumber"); v.Exists() {
		raw.Line = int(v.Int())
	}
	if v := firstResult(doc, "column", "colno", "columnNumber"); v.Exists() {
		raw.Column = Int(int(v.Int()))
	}

	return raw
}

// firstResult returns the first existing value among paths.
func firstResult(doc gjson.Result, paths ...string) gjson.Result {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
