package ui

import (
	"testing"
	"time"
)

func TestFlashExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("expected no notice initially")
	}
	f.Err("Failed to send message: offline")
	if m := f.Current(); m == nil || m.Level != FlashErr {
		t.Fatalf("expected error notice, got %+v", m)
	}

	now = now.Add(FlashDuration - time.Millisecond)
	if f.Current() == nil {
		t.Fatal("notice expired too early")
	}
	now = now.Add(time.Millisecond)
	if f.Current() != nil {
		t.Fatal("notice should be gone after 5s")
	}
}

func TestFlashNewerReplacesOlder(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	f.Info("first")
	now = now.Add(4 * time.Second)
	f.Info("second")
	now = now.Add(2 * time.Second)

	m := f.Current()
	if m == nil || m.Text != "second" {
		t.Fatalf("expected second notice to survive, got %+v", m)
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var seen [][]string
	p.SetOnChange(func(s []string) { seen = append(seen, s) })

	p.Reset("main")
	p.Push("help")
	p.Push("help")
	if got := p.Stack(); len(got) != 2 || got[1] != "help" {
		t.Fatalf("unexpected stack %v", got)
	}
	if popped := p.Pop(); popped != "help" {
		t.Fatalf("popped %q", popped)
	}
	if popped := p.Pop(); popped != "" {
		t.Fatalf("root page must not pop, got %q", popped)
	}
	if p.Current() != "main" {
		t.Fatalf("current = %q", p.Current())
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 change notifications, got %d", len(seen))
	}
}
