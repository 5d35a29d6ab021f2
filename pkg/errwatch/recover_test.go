package errwatch

import (
	"errors"
	"testing"
	"time"
)

func TestRecover_CapturesPanic(t *testing.T) {
	h := &captureHandler{}
	r := NewReporter(WithHandler(h), WithGracePeriod(100*time.Millisecond))

	func() {
		defer Recover(r)
		panic("exploded")
	}()

	time.Sleep(300 * time.Millisecond)
	deliveries := h.get()
	if len(deliveries) != 1 {
		t.Fatalf("Expected 1 delivery, got %d", len(deliveries))
	}
	trace := deliveries[0].trace
	if trace.Name != "panic" || trace.Message != "exploded" {
		t.Errorf("Identity = %q / %q", trace.Name, trace.Message)
	}
	if trace.Mode != ModeCallerWalk {
		t.Errorf("Mode = %q, want %q", trace.Mode, ModeCallerWalk)
	}
	if len(trace.Frames) == 0 {
		t.Error("Expected frames from the panic site")
	}
}

func TestRecover_ErrorValue(t *testing.T) {
	h := &captureHandler{}
	r := NewReporter(WithHandler(h), WithGracePeriod(50*time.Millisecond))

	cause := errors.New("bad state")
	func() {
		defer Recover(r)
		panic(cause)
	}()

	time.Sleep(300 * time.Millisecond)
	deliveries := h.get()
	if len(deliveries) != 1 {
		t.Fatalf("Expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].trace.Message != "bad state" {
		t.Errorf("Message = %q, want the error text", deliveries[0].trace.Message)
	}
}

func TestRecover_NoPanic(t *testing.T) {
	h := &captureHandler{}
	r := NewReporter(WithHandler(h), WithGracePeriod(50*time.Millisecond))

	func() {
		defer Recover(r)
	}()

	time.Sleep(200 * time.Millisecond)
	if got := h.get(); len(got) != 0 {
		t.Errorf("Expected no delivery without a panic, got %d", len(got))
	}
}
