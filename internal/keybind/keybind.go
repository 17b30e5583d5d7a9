// Package keybind resolves key presses against the configured keybind and
// remap tables.
package keybind

import (
	"fmt"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
)

// Shortcut is a key plus the exact set of modifiers that must be held.
type Shortcut struct {
	Key       keysym.Keysym
	Modifiers Mask
}

func (s Shortcut) String() string {
	if s.Modifiers == 0 {
		return s.Key.String()
	}
	return s.Modifiers.String() + "+" + s.Key.String()
}

// Keybind binds a shortcut to an action.
type Keybind struct {
	Shortcut Shortcut
	Action   action.Action
}

// Remap substitutes one key for another before any keybind matching.
type Remap struct {
	From keysym.Keysym
	Into keysym.Keysym
}

// KeyState is the direction of a key transition.
type KeyState uint8

const (
	Released KeyState = iota
	Pressed
)

// KeyEvent is a single key transition with the modifier state at that time.
type KeyEvent struct {
	Key       keysym.Keysym
	State     KeyState
	Modifiers Modifiers
}

// FilterResult tells the engine whether the focused client sees the key.
type FilterResult uint8

const (
	Forward FilterResult = iota
	Intercept
)

func (r FilterResult) String() string {
	if r == Intercept {
		return "intercept"
	}
	return "forward"
}

// Resolver matches key events against an immutable keybind table.
type Resolver struct {
	keybinds []Keybind
	remaps   []Remap
}

// NewResolver copies the tables; later changes to the slices are not seen.
func NewResolver(keybinds []Keybind, remaps []Remap) *Resolver {
	r := &Resolver{
		keybinds: make([]Keybind, len(keybinds)),
		remaps:   make([]Remap, len(remaps)),
	}
	copy(r.keybinds, keybinds)
	copy(r.remaps, remaps)
	return r
}

// Remap applies at most one substitution, first matching rule wins.
func (r *Resolver) Remap(key keysym.Keysym) keysym.Keysym {
	for _, rm := range r.remaps {
		if rm.From == key {
			return rm.Into
		}
	}
	return key
}

// Resolve returns the action bound to key (after remapping) with exactly the
// given modifiers held. The first keybind in declaration order wins.
func (r *Resolver) Resolve(key keysym.Keysym, mods Modifiers) (action.Action, bool) {
	pressed := Shortcut{Key: r.Remap(key), Modifiers: mods.Mask()}
	for _, kb := range r.keybinds {
		if kb.Shortcut == pressed {
			return kb.Action, true
		}
	}
	return nil, false
}

// Filter resolves presses; a matched press is intercepted, everything else
// (releases, unbound presses) is forwarded to the focused client.
func (r *Resolver) Filter(ev KeyEvent) (action.Action, FilterResult) {
	if ev.State != Pressed {
		return nil, Forward
	}
	if a, ok := r.Resolve(ev.Key, ev.Modifiers); ok {
		return a, Intercept
	}
	return nil, Forward
}

// Keybinds returns a copy of the keybind table.
func (r *Resolver) Keybinds() []Keybind {
	out := make([]Keybind, len(r.keybinds))
	copy(out, r.keybinds)
	return out
}

// Remaps returns a copy of the remap table.
func (r *Resolver) Remaps() []Remap {
	out := make([]Remap, len(r.remaps))
	copy(out, r.remaps)
	return out
}

// Sources lists every physical key that resolves to key once remaps apply:
// the remap origins pointing at it, plus key itself unless it is remapped
// away. The X11 engine uses this to decide which keycodes to grab.
func (r *Resolver) Sources(key keysym.Keysym) []keysym.Keysym {
	var out []keysym.Keysym
	seen := make(map[keysym.Keysym]bool)
	for _, rm := range r.remaps {
		if seen[rm.From] {
			continue
		}
		seen[rm.From] = true
		if rm.Into == key {
			out = append(out, rm.From)
		}
	}
	if !seen[key] {
		out = append(out, key)
	}
	return out
}

// Validate reports keybinds that can never fire because an earlier entry has
// the same shortcut. Duplicates are legal; this is for `config check`.
func Validate(keybinds []Keybind) []string {
	var warnings []string
	first := make(map[Shortcut]int)
	for i, kb := range keybinds {
		if j, ok := first[kb.Shortcut]; ok {
			warnings = append(warnings, fmt.Sprintf(
				"keybind %d (%s -> %s) is shadowed by keybind %d", i, kb.Shortcut, kb.Action, j))
			continue
		}
		first[kb.Shortcut] = i
	}
	return warnings
}
