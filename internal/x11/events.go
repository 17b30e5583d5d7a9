package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	kb "github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/wm"
)

// readEvents is the only goroutine that reads from the X connection. It
// translates X events into wm events and closes the channel when the
// connection ends.
func (e *Engine) readEvents(adopted []xproto.Window) {
	defer close(e.events)

	for _, win := range adopted {
		e.track(win)
		e.send(wm.NewToplevel{Window: wm.Window(win)})
	}

	for {
		ev, xerr := e.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			if !e.closed() {
				e.log.Error().Msg("X connection closed")
			}
			return
		}
		if xerr != nil {
			// Mostly BadWindow for windows destroyed under an in-flight request.
			e.log.Debug().Str("error", xerr.Error()).Msg("X error")
			continue
		}
		e.dispatch(ev)
	}
}

func (e *Engine) send(ev wm.Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *Engine) dispatch(ev xgb.Event) {
	switch ev := ev.(type) {
	case xproto.MapRequestEvent:
		xproto.MapWindow(e.conn, ev.Window)
		e.track(ev.Window)
		e.send(wm.NewToplevel{Window: wm.Window(ev.Window)})

	case xproto.DestroyNotifyEvent:
		if e.untrack(ev.Window) {
			e.send(wm.ToplevelDestroyed{Window: wm.Window(ev.Window)})
		}

	case xproto.UnmapNotifyEvent:
		// Withdrawn windows leave the registry; a later MapRequest brings
		// them back.
		if e.untrack(ev.Window) {
			e.send(wm.ToplevelDestroyed{Window: wm.Window(ev.Window)})
		}

	case xproto.ConfigureRequestEvent:
		e.configureRequest(ev)

	case xproto.ConfigureNotifyEvent:
		if ev.Window == e.root && !e.randrOK {
			e.resized(wm.Size{Width: int(ev.Width), Height: int(ev.Height)})
		}

	case randr.ScreenChangeNotifyEvent:
		e.resized(wm.Size{Width: int(ev.Width), Height: int(ev.Height)})

	case xproto.KeyPressEvent:
		e.send(e.keyInput(ev.Detail, ev.State, ev.Time, kb.Pressed))

	case xproto.KeyReleaseEvent:
		e.send(e.keyInput(ev.Detail, ev.State, ev.Time, kb.Released))

	case xproto.MappingNotifyEvent:
		if ev.Request == xproto.MappingKeyboard || ev.Request == xproto.MappingModifier {
			e.log.Debug().Msg("Keyboard mapping changed")
			e.reloadKeymap()
		}
	}
}

func (e *Engine) keyInput(code xproto.Keycode, state uint16, t xproto.Timestamp, dir kb.KeyState) wm.KeyInput {
	return wm.KeyInput{
		Event: kb.KeyEvent{
			Key:       e.lookup(code, state),
			State:     dir,
			Modifiers: modifiersFromState(state),
		},
		Code: uint8(code),
		Time: uint32(t),
	}
}

func (e *Engine) resized(size wm.Size) {
	if size == e.size {
		return
	}
	e.size = size
	e.send(wm.Resized{Size: size})
}

// configureRequest passes unmanaged windows' requests through unchanged.
// Managed windows stay fullscreen and are told so with a synthetic
// ConfigureNotify.
func (e *Engine) configureRequest(ev xproto.ConfigureRequestEvent) {
	if !e.isManaged(ev.Window) {
		mask, values := configureValues(ev)
		xproto.ConfigureWindow(e.conn, ev.Window, mask, values)
		return
	}

	notify := xproto.ConfigureNotifyEvent{
		Event:            ev.Window,
		Window:           ev.Window,
		AboveSibling:     0,
		X:                0,
		Y:                0,
		Width:            uint16(e.size.Width),
		Height:           uint16(e.size.Height),
		BorderWidth:      0,
		OverrideRedirect: false,
	}
	xproto.SendEvent(e.conn, false, ev.Window, xproto.EventMaskStructureNotify, string(notify.Bytes()))
}

// configureValues rebuilds the value list of a ConfigureRequest in the
// order the X protocol expects for its mask.
func configureValues(ev xproto.ConfigureRequestEvent) (uint16, []uint32) {
	var values []uint32
	m := ev.ValueMask
	if m&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(int32(ev.X)))
	}
	if m&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(int32(ev.Y)))
	}
	if m&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(ev.Width))
	}
	if m&xproto.ConfigWindowHeight != 0 {
		values = append(values, uint32(ev.Height))
	}
	if m&xproto.ConfigWindowBorderWidth != 0 {
		values = append(values, uint32(ev.BorderWidth))
	}
	if m&xproto.ConfigWindowSibling != 0 {
		values = append(values, uint32(ev.Sibling))
	}
	if m&xproto.ConfigWindowStackMode != 0 {
		values = append(values, uint32(ev.StackMode))
	}
	return m, values
}
