package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestScopeBindingWinsOverGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Handler: func() { got = "global" }})
	r.Add("thread", &Action{Key: tcell.KeyRune, Rune: 'q', Description: "Back", Handler: func() { got = "thread" }})

	if !r.HandleEvent("thread", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("expected a handler to run")
	}
	if got != "thread" {
		t.Fatalf("got %q, want thread", got)
	}

	r.HandleEvent("contacts", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	if got != "global" {
		t.Fatalf("got %q, want global", got)
	}
}

func TestUnmatchedEvent(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyCtrlR, Handler: func() { t.Fatal("must not run") }})
	if r.HandleEvent("any", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Fatal("unexpected match")
	}
}

func TestHintsKeepOrderAndSkipHidden(t *testing.T) {
	r := NewRegistry()
	r.Add("thread", &Action{Key: tcell.KeyRune, Rune: 'e', Description: "Edit", Handler: func() {}})
	r.Add("thread", &Action{Key: tcell.KeyRune, Rune: 'x', Description: "Delete", Handler: func() {}})
	r.Add("thread", &Action{Key: tcell.KeyRune, Rune: 'j', Description: "Down", Handler: func() {}, Hidden: true})
	r.AddGlobal(&Action{Key: tcell.KeyTab, Label: "Tab", Description: "Next pane", Handler: func() {}})

	hints := r.Hints("thread")
	want := []string{"e", "x", "Tab"}
	if len(hints) != len(want) {
		t.Fatalf("got %d hints, want %d", len(hints), len(want))
	}
	for i, k := range want {
		if hints[i].Key != k {
			t.Errorf("hint %d = %q, want %q", i, hints[i].Key, k)
		}
	}
}
