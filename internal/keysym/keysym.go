// Package keysym resolves X11 key symbol names to keysym values.
//
// Names follow keysymdef.h without the XK_ prefix ("Return", "Page_Up", "q").
// Lookup is case-sensitive first so that "q" and "Q" stay distinct, with a
// case-insensitive fallback for names like "return" or "PAGE_UP".
package keysym

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keysym is an X11 key symbol value.
type Keysym uint32

// NoSymbol is the zero keysym.
const NoSymbol Keysym = 0

// ErrInvalidKeyName is returned when a key name cannot be resolved.
var ErrInvalidKeyName = errors.New("invalid key name")

var (
	byName  map[string]Keysym
	byLower map[string]Keysym
	bySym   map[Keysym]string
)

func init() {
	byName = make(map[string]Keysym, len(table))
	byLower = make(map[string]Keysym, len(table))
	bySym = make(map[Keysym]string, len(table))

	for _, e := range table {
		if _, ok := byName[e.name]; !ok {
			byName[e.name] = e.sym
		}
		if _, ok := bySym[e.sym]; !ok {
			bySym[e.sym] = e.name
		}

		lower := strings.ToLower(e.name)
		if _, ok := byLower[lower]; !ok || e.name == lower {
			// lower-case spelling wins on collision ("A" and "a" -> a)
			byLower[lower] = e.sym
		}
	}
}

// Lookup resolves a key name exactly as written.
func Lookup(name string) (Keysym, bool) {
	sym, ok := byName[name]
	return sym, ok
}

// LookupFold resolves a key name ignoring case.
func LookupFold(name string) (Keysym, bool) {
	sym, ok := byLower[strings.ToLower(name)]
	return sym, ok
}

// Parse resolves a configured key. It accepts a keysym name (case-sensitive
// first, then case-insensitive), a single character, or a numeric keysym
// value ("0xff0d" or "65293").
func Parse(name string) (Keysym, error) {
	if name == "" {
		return NoSymbol, fmt.Errorf("%w: empty", ErrInvalidKeyName)
	}
	if sym, ok := Lookup(name); ok {
		return sym, nil
	}
	if sym, ok := LookupFold(name); ok {
		return sym, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if sym := FromRune(r); sym != NoSymbol {
			return sym, nil
		}
	}
	if len(name) > 1 && name[0] == 'U' {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10ffff {
			if sym := FromRune(rune(v)); sym != NoSymbol {
				return sym, nil
			}
		}
	}
	if v, err := strconv.ParseUint(name, 0, 32); err == nil && v != 0 {
		return Keysym(v), nil
	}
	return NoSymbol, fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
}

// FromRune maps a Unicode code point to its keysym: Latin-1 code points map
// directly, everything else uses the 0x01000000 Unicode keysym range.
func FromRune(r rune) Keysym {
	switch {
	case r < 0x20 || r == utf8.RuneError || r > 0x10ffff:
		return NoSymbol
	case r < 0x7f, r >= 0xa0 && r <= 0xff:
		return Keysym(r)
	case r >= 0x7f && r < 0xa0:
		return NoSymbol
	default:
		return Keysym(0x01000000 | uint32(r))
	}
}

// Name returns the canonical name for sym, or its hex value if unnamed.
func Name(sym Keysym) string {
	if name, ok := bySym[sym]; ok {
		return name
	}
	if sym&0xff000000 == 0x01000000 {
		return fmt.Sprintf("U%04X", uint32(sym&0x00ffffff))
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}

// String implements fmt.Stringer.
func (k Keysym) String() string {
	return Name(k)
}

// Names returns every known key name in table order.
func Names() []string {
	names := make([]string, 0, len(table))
	for _, e := range table {
		names = append(names, e.name)
	}
	return names
}

// ToLower returns the lower-case keysym for Latin letters, otherwise k.
func (k Keysym) ToLower() Keysym {
	switch {
	case k >= 'A' && k <= 'Z':
		return k + ('a' - 'A')
	case k >= 0xc0 && k <= 0xde && k != 0xd7:
		return k + 0x20
	}
	return k
}

// ToUpper returns the upper-case keysym for Latin letters, otherwise k.
func (k Keysym) ToUpper() Keysym {
	switch {
	case k >= 'a' && k <= 'z':
		return k - ('a' - 'A')
	case k >= 0xe0 && k <= 0xfe && k != 0xf7:
		return k - 0x20
	}
	return k
}

// MarshalText renders the keysym by name so config dumps round-trip.
func (k Keysym) MarshalText() ([]byte, error) {
	return []byte(Name(k)), nil
}
