package errwatch

import "testing"

func TestParseRawError_FlatPayload(t *testing.T) {
	raw := ParseRawError([]byte(`{
		"name": "TypeError",
		"message": "boom",
		"stack": "    at foo (http://example.com/a.js:1:2)",
		"url": "http://example.com/page",
		"line": 12,
		"column": 5
	}`))

	if raw.Name != "TypeError" || raw.Message != "boom" {
		t.Errorf("Identity = %q / %q", raw.Name, raw.Message)
	}
	if raw.Stack == "" {
		t.Error("Stack not extracted")
	}
	if raw.URL != "http://example.com/page" || raw.Line != 12 {
		t.Errorf("Location = %s:%d", raw.URL, raw.Line)
	}
	if raw.Column == nil || *raw.Column != 5 {
		t.Errorf("Column = %v, want 5", raw.Column)
	}
}

func TestParseRawError_NestedErrorObject(t *testing.T) {
	raw := ParseRawError([]byte(`{
		"error": {"name": "ReferenceError", "message": "x is not defined"},
		"extra": true
	}`))

	if raw.Name != "ReferenceError" || raw.Message != "x is not defined" {
		t.Errorf("Nested error not unwrapped: %q / %q", raw.Name, raw.Message)
	}
}

func TestParseRawError_FieldSynonyms(t *testing.T) {
	raw := ParseRawError([]byte(`{
		"msg": "boom",
		"filename": "http://example.com/a.js",
		"lineno": 42,
		"colno": 0,
		"stacktrace": "  Line 42 of linked script http://example.com/a.js"
	}`))

	if raw.Message != "boom" {
		t.Errorf("Message = %q, want the msg synonym", raw.Message)
	}
	if raw.URL != "http://example.com/a.js" {
		t.Errorf("URL = %q, want the filename synonym", raw.URL)
	}
	if raw.Line != 42 {
		t.Errorf("Line = %d, want the lineno synonym", raw.Line)
	}
	// Column zero is a real position, distinct from absent.
	if raw.Column == nil || *raw.Column != 0 {
		t.Errorf("Column = %v, want present 0", raw.Column)
	}
	if raw.AltStack == "" {
		t.Error("Alternate trace field not extracted")
	}
}

func TestParseRawError_SynonymPrecedence(t *testing.T) {
	raw := ParseRawError([]byte(`{"message": "primary", "msg": "secondary"}`))
	if raw.Message != "primary" {
		t.Errorf("Message = %q, canonical field must win", raw.Message)
	}
}

func TestParseRawError_GarbageDegrades(t *testing.T) {
	for _, payload := range []string{"", "not json", "[1,2,3]", "null"} {
		raw := ParseRawError([]byte(payload))
		if raw == nil {
			t.Fatalf("Expected a value for %q", payload)
		}
		if raw.Name != "" || raw.Message != "" || raw.Line != 0 || raw.Column != nil {
			t.Errorf("Expected zero values for %q, got %+v", payload, raw)
		}
	}
}
