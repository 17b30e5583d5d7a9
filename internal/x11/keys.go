package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	kb "github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
	"github.com/bryanchriswhite/focuswm/internal/wm"
)

// xModMask converts a keybind mask to X modifier bits.
func xModMask(m kb.Mask) uint16 {
	var out uint16
	if m&kb.Alt != 0 {
		out |= xproto.ModMask1
	}
	if m&kb.Ctrl != 0 {
		out |= xproto.ModMaskControl
	}
	if m&kb.Shift != 0 {
		out |= xproto.ModMaskShift
	}
	if m&kb.Logo != 0 {
		out |= xproto.ModMask4
	}
	return out
}

// modifiersFromState reads the four tracked modifiers from an X key event
// state. Lock, NumLock and the other groups are ignored.
func modifiersFromState(state uint16) kb.Modifiers {
	return kb.Modifiers{
		Alt:   state&xproto.ModMask1 != 0,
		Ctrl:  state&xproto.ModMaskControl != 0,
		Shift: state&xproto.ModMaskShift != 0,
		Logo:  state&xproto.ModMask4 != 0,
	}
}

// pickKeysym chooses between the first two keysym columns of a keycode the
// way core X does for group 1: Shift or CapsLock on a letter selects the
// upper case, and a missing second column falls back to the case-converted
// first one.
func pickKeysym(lower, upper keysym.Keysym, state uint16) keysym.Keysym {
	shift := state&xproto.ModMaskShift != 0
	if state&xproto.ModMaskLock != 0 && lower.ToUpper() != lower {
		shift = !shift
	}

	if upper == keysym.NoSymbol {
		if shift {
			return lower.ToUpper()
		}
		return lower
	}
	if shift {
		return upper
	}
	return lower
}

// lookup translates a keycode under the given modifier state.
func (e *Engine) lookup(code xproto.Keycode, state uint16) keysym.Keysym {
	lower := keysym.Keysym(keybind.KeysymGet(e.xu, code, 0))
	upper := keysym.Keysym(keybind.KeysymGet(e.xu, code, 1))
	return pickKeysym(lower, upper, state)
}

// keycodesFor lists every keycode that produces sym in its first two
// columns.
func (e *Engine) keycodesFor(sym keysym.Keysym) []xproto.Keycode {
	setup := xproto.Setup(e.conn)
	var out []xproto.Keycode
	for code := int(setup.MinKeycode); code <= int(setup.MaxKeycode); code++ {
		kc := xproto.Keycode(code)
		for col := byte(0); col < 2; col++ {
			if keysym.Keysym(keybind.KeysymGet(e.xu, kc, col)) == sym {
				out = append(out, kc)
				break
			}
		}
	}
	return out
}

// grabKeys grabs every physical key that can complete a keybind, with the
// keybind's modifiers plus each Lock/NumLock combination. Grabs are
// synchronous on the keyboard so FinishKey can still replay a press to the
// focused client.
func (e *Engine) grabKeys() {
	xproto.UngrabKey(e.conn, xproto.GrabAny, e.root, xproto.ModMaskAny)

	grabs := 0
	for _, bind := range e.resolver.Keybinds() {
		mods := xModMask(bind.Shortcut.Modifiers)
		for _, src := range e.resolver.Sources(bind.Shortcut.Key) {
			codes := e.keycodesFor(src)
			if len(codes) == 0 {
				e.log.Warn().
					Stringer("key", src).
					Stringer("shortcut", bind.Shortcut).
					Msg("No keycode produces key; keybind cannot fire")
				continue
			}
			for _, code := range codes {
				for _, ignore := range xevent.IgnoreMods {
					xproto.GrabKey(e.conn, false, e.root, mods|ignore, code,
						xproto.GrabModeAsync, xproto.GrabModeSync)
					grabs++
				}
			}
		}
	}
	e.log.Debug().Int("grabs", grabs).Msg("Key grabs installed")
}

// reloadKeymap refreshes the cached keyboard mapping after MappingNotify
// and regrabs.
func (e *Engine) reloadKeymap() {
	keyMap, modMap := keybind.MapsGet(e.xu)
	keybind.KeyMapSet(e.xu, keyMap)
	keybind.ModMapSet(e.xu, modMap)
	e.grabKeys()
}

// FinishKey releases the keyboard frozen by a grabbed press: an intercepted
// press is consumed, a forwarded one is replayed to the focused client.
func (e *Engine) FinishKey(in wm.KeyInput, result kb.FilterResult) error {
	if e.closed() {
		return wm.ErrEngineClosed
	}
	if in.Event.State != kb.Pressed {
		return nil
	}

	mode := byte(xproto.AllowAsyncKeyboard)
	if result == kb.Forward {
		mode = xproto.AllowReplayKeyboard
	}
	xproto.AllowEvents(e.conn, mode, xproto.Timestamp(in.Time))
	return nil
}
