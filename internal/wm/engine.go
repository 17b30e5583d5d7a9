package wm

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/focuswm/internal/keybind"
)

// Window is a display-server handle to a client toplevel. The core never
// owns the underlying resources; it only compares and forwards handles.
type Window uint32

// None is the absent window.
const None Window = 0

func (w Window) String() string {
	if w == None {
		return "none"
	}
	return fmt.Sprintf("0x%x", uint32(w))
}

// Size is the logical output size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Engine is the subset of the display server the focus core drives.
type Engine interface {
	// ConfigureFullscreen asks w to render fullscreen at size.
	ConfigureFullscreen(w Window, size Size) error

	// SetFocus moves keyboard focus to w, or clears it when w is None.
	// serial increases strictly across calls.
	SetFocus(w Window, serial uint32) error

	// CloseWindow asks w to close. Destruction is reported later as a
	// ToplevelDestroyed event, or never if the client ignores the request.
	CloseWindow(w Window) error
}

// Backend is a complete display-server engine: the Engine primitives plus
// the event stream and per-frame hooks consumed by Loop.
type Backend interface {
	Engine

	// Events delivers display-server events. The channel is closed when the
	// connection is lost.
	Events() <-chan Event

	// FinishKey tells the engine whether the key press reaches the focused
	// client.
	FinishKey(in KeyInput, result keybind.FilterResult) error

	// Render draws one frame; flipped selects the rotated output transform.
	Render(focused Window, flipped bool) error
}

// ErrEngineClosed is returned by Loop.Run when the event stream ends.
var ErrEngineClosed = errors.New("display server connection closed")

// Event is one of NewToplevel, ToplevelDestroyed, KeyInput, Resized or
// EngineFailure.
type Event interface {
	isEvent()
}

// NewToplevel reports a window that wants to be shown.
type NewToplevel struct {
	Window Window
}

// ToplevelDestroyed reports a window that is gone.
type ToplevelDestroyed struct {
	Window Window
}

// KeyInput reports a key transition. Time is the engine timestamp of the
// event and is handed back in FinishKey.
type KeyInput struct {
	Event keybind.KeyEvent
	Code  uint8
	Time  uint32
}

// Resized reports a new output size.
type Resized struct {
	Size Size
}

// EngineFailure reports an unrecoverable engine error; the loop stops.
type EngineFailure struct {
	Err error
}

func (NewToplevel) isEvent()       {}
func (ToplevelDestroyed) isEvent() {}
func (KeyInput) isEvent()          {}
func (Resized) isEvent()           {}
func (EngineFailure) isEvent()     {}
