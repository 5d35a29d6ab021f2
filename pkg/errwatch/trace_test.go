package errwatch

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStackTraceJSON(t *testing.T) {
	trace := &StackTrace{
		Mode:    ModeNativeTrace,
		Name:    "TypeError",
		Message: "boom",
		Frames: []StackFrame{
			{URL: "http://example.com/a.js", Func: "totals", Line: 42, Column: Int(0)},
			{Func: UnknownFunction},
		},
		Incomplete: true,
		Partial:    true,
	}

	out, err := trace.JSON()
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["mode"] != "native-trace" || decoded["name"] != "TypeError" {
		t.Errorf("Decoded identity = %v / %v", decoded["mode"], decoded["name"])
	}

	stack, ok := decoded["stack"].([]any)
	if !ok || len(stack) != 2 {
		t.Fatalf("stack = %v, want 2 frames", decoded["stack"])
	}
	first := stack[0].(map[string]any)
	// A zero column is a real position and must survive serialization.
	if first["column"] != float64(0) {
		t.Errorf("column = %v, want 0", first["column"])
	}
	second := stack[1].(map[string]any)
	if _, present := second["column"]; present {
		t.Error("Absent column must be omitted")
	}
	if _, present := second["line"]; present {
		t.Error("Zero line must be omitted")
	}

	// Transient protocol marks never serialize.
	for _, key := range []string{"Incomplete", "incomplete", "Partial", "partial"} {
		if _, present := decoded[key]; present {
			t.Errorf("Transient field %q serialized", key)
		}
	}
}

func TestRawErrorError(t *testing.T) {
	e := &RawError{Name: "TypeError", Message: "boom"}
	if e.Error() != "TypeError: boom" {
		t.Errorf("Error() = %q", e.Error())
	}
	if (&RawError{Message: "boom"}).Error() != "boom" {
		t.Error("Nameless error must be the bare message")
	}
}

func TestNewRawError(t *testing.T) {
	raw := &RawError{Name: "panic", Message: "boom"}
	if NewRawError(raw) != raw {
		t.Error("Identity not preserved for an already-raw error")
	}

	plain := errors.New("plain failure")
	wrapped := NewRawError(plain)
	if wrapped.Message != "plain failure" || wrapped.Name != "" {
		t.Errorf("Wrapped = %+v", wrapped)
	}
}
