package keybind

import (
	"fmt"
	"strings"
)

// Mask is a set of modifiers held down for a key press.
type Mask uint8

// Modifier bits. The values are part of the configuration format.
const (
	Alt   Mask = 1 << 0
	Ctrl  Mask = 1 << 1
	Shift Mask = 1 << 2
	Logo  Mask = 1 << 3
)

var modifierNames = []struct {
	mask Mask
	name string
}{
	{Alt, "Alt"},
	{Ctrl, "Ctrl"},
	{Shift, "Shift"},
	{Logo, "Logo"},
}

// Modifiers is the live modifier state reported with a key event.
type Modifiers struct {
	Alt   bool
	Ctrl  bool
	Shift bool
	Logo  bool
}

// Mask folds the modifier state into a bitmask.
func (m Modifiers) Mask() Mask {
	var mask Mask
	if m.Alt {
		mask |= Alt
	}
	if m.Ctrl {
		mask |= Ctrl
	}
	if m.Shift {
		mask |= Shift
	}
	if m.Logo {
		mask |= Logo
	}
	return mask
}

// ParseModifier resolves a modifier name, ignoring case.
func ParseModifier(name string) (Mask, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alt", "mod1", "meta":
		return Alt, nil
	case "ctrl", "control":
		return Ctrl, nil
	case "shift":
		return Shift, nil
	case "logo", "super", "mod4", "win":
		return Logo, nil
	default:
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
}

// ParseMask ORs together a list of modifier names.
func ParseMask(names []string) (Mask, error) {
	var mask Mask
	for _, name := range names {
		m, err := ParseModifier(name)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

// Names lists the modifiers in the mask in bit order.
func (m Mask) Names() []string {
	names := make([]string, 0, 4)
	for _, mod := range modifierNames {
		if m&mod.mask != 0 {
			names = append(names, mod.name)
		}
	}
	return names
}

func (m Mask) String() string {
	return strings.Join(m.Names(), "+")
}

// MarshalText renders the mask as "Ctrl+Shift"; an empty mask is "".
func (m Mask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
