package x11

import (
	"slices"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/bryanchriswhite/focuswm/internal/wm"
)

// Requests about a single window race with that window's destruction, so
// X errors for them are logged and dropped. Only a closed connection is
// reported back to the loop.

// ConfigureFullscreen covers the screen with w and raises it.
func (e *Engine) ConfigureFullscreen(w wm.Window, size wm.Size) error {
	if e.closed() {
		return wm.ErrEngineClosed
	}
	win := xproto.Window(w)

	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
		xproto.ConfigWindowBorderWidth | xproto.ConfigWindowStackMode)
	xproto.ConfigureWindow(e.conn, win, mask, []uint32{
		0, 0, uint32(size.Width), uint32(size.Height), 0, xproto.StackModeAbove,
	})

	if err := ewmh.WmStateSet(e.xu, win, []string{"_NET_WM_STATE_FULLSCREEN"}); err != nil {
		e.log.Debug().Err(err).Stringer("window", w).Msg("Failed to set _NET_WM_STATE")
	}
	return nil
}

// SetFocus gives w the keyboard. None hands focus back to the root.
func (e *Engine) SetFocus(w wm.Window, serial uint32) error {
	if e.closed() {
		return wm.ErrEngineClosed
	}

	target := xproto.Window(w)
	if w == wm.None {
		target = e.root
	}
	xproto.SetInputFocus(e.conn, xproto.InputFocusPointerRoot, target, xproto.TimeCurrentTime)

	if err := ewmh.ActiveWindowSet(e.xu, xproto.Window(w)); err != nil {
		e.log.Debug().Err(err).Msg("Failed to set _NET_ACTIVE_WINDOW")
	}

	e.log.Debug().Stringer("window", w).Uint32("serial", serial).Msg("Keyboard focus sent")
	return nil
}

// CloseWindow asks w to close through WM_DELETE_WINDOW, or disconnects its
// client when it does not take part in that protocol.
func (e *Engine) CloseWindow(w wm.Window) error {
	if e.closed() {
		return wm.ErrEngineClosed
	}
	win := xproto.Window(w)

	protocols, err := icccm.WmProtocolsGet(e.xu, win)
	if err == nil && slices.Contains(protocols, "WM_DELETE_WINDOW") {
		err := e.sendDelete(win)
		if err == nil {
			e.log.Debug().Stringer("window", w).Msg("Sent WM_DELETE_WINDOW")
			return nil
		}
		e.log.Debug().Err(err).Stringer("window", w).Msg("WM_DELETE_WINDOW failed, killing client")
	}

	xproto.KillClient(e.conn, uint32(win))
	e.log.Debug().Stringer("window", w).Msg("Killed client")
	return nil
}

func (e *Engine) sendDelete(win xproto.Window) error {
	protocols, err := xprop.Atm(e.xu, "WM_PROTOCOLS")
	if err != nil {
		return err
	}
	del, err := xprop.Atm(e.xu, "WM_DELETE_WINDOW")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   protocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(del), uint32(xproto.TimeCurrentTime), 0, 0, 0}),
	}
	return xproto.SendEventChecked(e.conn, false, win, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

// track records a newly managed window and republishes _NET_CLIENT_LIST.
// Called only from the event reader.
func (e *Engine) track(win xproto.Window) {
	if !slices.Contains(e.managed, win) {
		e.managed = append(e.managed, win)
	}
	if err := icccm.WmStateSet(e.xu, win, &icccm.WmState{State: icccm.StateNormal}); err != nil {
		e.log.Debug().Err(err).Uint32("window", uint32(win)).Msg("Failed to set WM_STATE")
	}
	e.publishClients()
}

// untrack forgets win. It reports whether win was managed.
func (e *Engine) untrack(win xproto.Window) bool {
	i := slices.Index(e.managed, win)
	if i < 0 {
		return false
	}
	e.managed = slices.Delete(e.managed, i, i+1)
	e.publishClients()
	return true
}

func (e *Engine) isManaged(win xproto.Window) bool {
	return slices.Contains(e.managed, win)
}

func (e *Engine) publishClients() {
	if err := ewmh.ClientListSet(e.xu, e.managed); err != nil {
		e.log.Debug().Err(err).Msg("Failed to set _NET_CLIENT_LIST")
	}
}
