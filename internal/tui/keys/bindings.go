// Package keys maps key events to actions, per page and globally.
package keys

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// Action is one key binding.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	// Hidden keeps the binding out of the menu.
	Hidden bool
}

// Matches reports whether ev triggers the action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) label() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	return tcell.KeyNames[a.Key]
}

// Registry holds key bindings in registration order, global ones and per
// scope. Scope bindings win over global ones.
type Registry struct {
	global []*Action
	scopes map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[string][]*Action)}
}

// AddGlobal registers a binding active everywhere.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// Add registers a binding for one scope (a page or a focused pane).
func (r *Registry) Add(scope string, a *Action) {
	r.scopes[scope] = append(r.scopes[scope], a)
}

// Hints returns the menu entries for scope followed by the global ones.
func (r *Registry) Hints(scope string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, set := range [][]*Action{r.scopes[scope], r.global} {
		for _, a := range set {
			if !a.Hidden {
				hints = append(hints, ui.MenuHint{Key: a.label(), Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent runs the first binding of scope, then of the global set,
// matching ev. Returns true if one ran.
func (r *Registry) HandleEvent(scope string, ev *tcell.EventKey) bool {
	for _, set := range [][]*Action{r.scopes[scope], r.global} {
		for _, a := range set {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
