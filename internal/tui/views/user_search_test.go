package views

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerRunsLatestOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Value

	for _, q := range []string{"a", "an", "ana"} {
		d.Do(func() {
			calls.Add(1)
			last.Store(q)
		})
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
	if got := last.Load(); got != "ana" {
		t.Fatalf("expected the last query, got %v", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Cancel()
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no call after cancel, got %d", n)
	}
}
