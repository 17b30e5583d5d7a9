// Package wm holds the window-focus core: the toplevel registry and focus
// cycler, the action dispatcher and the event loop that drives them.
//
// Everything in this package except Hub is owned by the loop goroutine and
// must not be touched from anywhere else.
package wm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// ErrUnknownWindow is returned by Focus for a window that is not registered.
var ErrUnknownWindow = errors.New("window is not registered")

// State is the registry of toplevels plus the focus pointer.
//
// toplevels[0] is the front: the most recently raised window. focused is
// always None or an element of toplevels.
type State struct {
	engine    Engine
	toplevels []Window
	focused   Window
	size      Size
	flipped   bool
	serial    uint32
	log       *zerolog.Logger
}

// NewState creates an empty registry for an output of the given size.
func NewState(engine Engine, size Size) *State {
	return &State{
		engine: engine,
		size:   size,
		log:    logger.WithComponent("wm"),
	}
}

// Register puts w at the front and focuses it. A window that is already
// registered is moved to the front rather than duplicated.
func (s *State) Register(w Window) error {
	if w == None {
		return fmt.Errorf("cannot register window %s", w)
	}

	order := slices.DeleteFunc(slices.Clone(s.toplevels), func(t Window) bool { return t == w })
	order = slices.Insert(order, 0, w)

	s.log.Debug().
		Stringer("window", w).
		Int("count", len(order)).
		Msg("Registered toplevel")

	return s.reorder(order)
}

// Unregister removes w. Removing an unknown window is a no-op. If w held
// focus, focus moves to the new front window or to None.
func (s *State) Unregister(w Window) error {
	order := slices.DeleteFunc(slices.Clone(s.toplevels), func(t Window) bool { return t == w })
	if len(order) == len(s.toplevels) {
		return nil
	}

	s.log.Debug().
		Stringer("window", w).
		Int("count", len(order)).
		Msg("Unregistered toplevel")

	if s.focused != w {
		s.toplevels = order
		return nil
	}
	return s.reorder(order)
}

// reorder focuses the front of order and adopts order as the registry once
// the engine has taken the focus change. On error the registry is unchanged.
func (s *State) reorder(order []Window) error {
	prev := s.toplevels
	s.toplevels = order
	if err := s.Focus(s.front()); err != nil {
		s.toplevels = prev
		return err
	}
	return nil
}

// Focus is the single place focus changes. A window is configured
// fullscreen at the current size and then given keyboard focus; None clears
// keyboard focus.
func (s *State) Focus(w Window) error {
	if w != None && !slices.Contains(s.toplevels, w) {
		return fmt.Errorf("focus %s: %w", w, ErrUnknownWindow)
	}

	s.serial++
	if w != None {
		if err := s.engine.ConfigureFullscreen(w, s.size); err != nil {
			return fmt.Errorf("failed to configure %s: %w", w, err)
		}
	}
	if err := s.engine.SetFocus(w, s.serial); err != nil {
		return fmt.Errorf("failed to focus %s: %w", w, err)
	}

	s.log.Debug().
		Stringer("from", s.focused).
		Stringer("to", w).
		Uint32("serial", s.serial).
		Msg("Focus changed")

	s.focused = w
	return nil
}

// CycleNext sends the front window to the back and focuses the new front.
// With fewer than two windows nothing happens.
func (s *State) CycleNext() error {
	if len(s.toplevels) < 2 {
		return nil
	}
	order := append(slices.Clone(s.toplevels[1:]), s.toplevels[0])
	return s.reorder(order)
}

// CyclePrevious brings the back window to the front and focuses it. With
// fewer than two windows nothing happens.
func (s *State) CyclePrevious() error {
	if len(s.toplevels) < 2 {
		return nil
	}
	last := len(s.toplevels) - 1
	order := append([]Window{s.toplevels[last]}, s.toplevels[:last]...)
	return s.reorder(order)
}

// Resize records a new output size and refits the focused window. Focus does
// not change, so no focus notification is sent.
func (s *State) Resize(size Size) error {
	s.size = size
	if s.focused == None {
		return nil
	}
	if err := s.engine.ConfigureFullscreen(s.focused, size); err != nil {
		return fmt.Errorf("failed to configure %s: %w", s.focused, err)
	}
	return nil
}

// ToggleFlip flips the output transform and returns the new value.
func (s *State) ToggleFlip() bool {
	s.flipped = !s.flipped
	return s.flipped
}

// Focused returns the focused window or None.
func (s *State) Focused() Window {
	return s.focused
}

// Toplevels returns the registry in front-to-back order.
func (s *State) Toplevels() []Window {
	return slices.Clone(s.toplevels)
}

// Flipped reports the render flip flag.
func (s *State) Flipped() bool {
	return s.flipped
}

// Size returns the current output size.
func (s *State) Size() Size {
	return s.size
}

// Serial returns the serial of the last focus notification.
func (s *State) Serial() uint32 {
	return s.serial
}

// Snapshot copies the observable state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Toplevels: s.Toplevels(),
		Focused:   s.focused,
		Flipped:   s.flipped,
		Size:      s.size,
	}
}

func (s *State) front() Window {
	if len(s.toplevels) == 0 {
		return None
	}
	return s.toplevels[0]
}
