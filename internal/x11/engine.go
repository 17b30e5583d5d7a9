// Package x11 runs the window manager on an X server. It implements
// wm.Backend: window configuration, focus, close and render requests go out
// as X requests, and X events come back on a channel.
package x11

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/config"
	kb "github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/logger"
	"github.com/bryanchriswhite/focuswm/internal/wm"
)

// ErrAnotherWM is returned by Connect when some other client already
// redirects the root window's substructure.
var ErrAnotherWM = errors.New("another window manager is already running")

// WMName is advertised through _NET_WM_NAME on the supporting window.
const WMName = "focuswm"

// Options configures Connect.
type Options struct {
	// Display is the X display name; empty means $DISPLAY.
	Display string
	// Resolver decides which keys are grabbed.
	Resolver *kb.Resolver
	// Keyboard is applied with setxkbmap when not empty.
	Keyboard config.KeyboardConfig
}

// Engine is a connection to the X server acting as its window manager.
type Engine struct {
	conn     *xgb.Conn
	xu       *xgbutil.XUtil
	screen   *xproto.ScreenInfo
	root     xproto.Window
	check    xproto.Window
	resolver *kb.Resolver

	events chan wm.Event
	done   chan struct{}
	once   sync.Once

	// Owned by the event reader goroutine.
	managed []xproto.Window
	size    wm.Size

	// Owned by the caller of Render.
	randrOK bool
	flipped bool

	log *zerolog.Logger
}

// Connect opens the display, takes over window management on the default
// screen and starts reading events.
func Connect(opts Options) (*Engine, error) {
	log := logger.WithComponent("x11")

	conn, err := xgb.NewConnDisplay(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	xu, err := xgbutil.NewConnXgb(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialise xgbutil: %w", err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	resolver := opts.Resolver
	if resolver == nil {
		resolver = kb.NewResolver(nil, nil)
	}

	e := &Engine{
		conn:     conn,
		xu:       xu,
		screen:   screen,
		root:     screen.Root,
		resolver: resolver,
		events:   make(chan wm.Event, 256),
		done:     make(chan struct{}),
		size:     wm.Size{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)},
		log:      log,
	}

	if err := e.becomeWM(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := e.setupEWMH(); err != nil {
		log.Warn().Err(err).Msg("Failed to advertise EWMH support")
	}

	if err := randr.Init(conn); err != nil {
		log.Warn().Err(err).Msg("RandR unavailable; flip and resize tracking disabled")
	} else {
		e.randrOK = true
		randr.SelectInput(conn, e.root, randr.NotifyMaskScreenChange)
	}

	if !opts.Keyboard.IsZero() {
		applyKeyboard(opts.Keyboard, log)
	}

	keybind.Initialize(xu)
	e.grabKeys()

	adopted := e.existingWindows()

	log.Info().
		Int("width", e.size.Width).
		Int("height", e.size.Height).
		Int("adopted", len(adopted)).
		Msg("Managing X display")

	go e.readEvents(adopted)
	return e, nil
}

func (e *Engine) becomeWM() error {
	mask := uint32(xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskStructureNotify)

	err := xproto.ChangeWindowAttributesChecked(e.conn, e.root, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		var access xproto.AccessError
		if errors.As(err, &access) {
			return ErrAnotherWM
		}
		return fmt.Errorf("%w: %v", ErrAnotherWM, err)
	}
	return nil
}

func (e *Engine) setupEWMH() error {
	wid, err := xproto.NewWindowId(e.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate check window: %w", err)
	}
	err = xproto.CreateWindowChecked(e.conn, 0, wid, e.root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, e.screen.RootVisual, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to create check window: %w", err)
	}
	e.check = wid

	if err := ewmh.SupportingWmCheckSet(e.xu, e.root, wid); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(e.xu, wid, wid); err != nil {
		return err
	}
	if err := ewmh.WmNameSet(e.xu, wid, WMName); err != nil {
		return err
	}
	return ewmh.SupportedSet(e.xu, []string{
		"_NET_SUPPORTED",
		"_NET_SUPPORTING_WM_CHECK",
		"_NET_WM_NAME",
		"_NET_ACTIVE_WINDOW",
		"_NET_CLIENT_LIST",
		"_NET_WM_STATE",
		"_NET_WM_STATE_FULLSCREEN",
	})
}

// existingWindows returns viewable clients mapped before the engine started.
func (e *Engine) existingWindows() []xproto.Window {
	tree, err := xproto.QueryTree(e.conn, e.root).Reply()
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to query existing windows")
		return nil
	}

	var out []xproto.Window
	for _, child := range tree.Children {
		if child == e.check {
			continue
		}
		attr, err := xproto.GetWindowAttributes(e.conn, child).Reply()
		if err != nil {
			continue
		}
		if attr.OverrideRedirect || attr.MapState != xproto.MapStateViewable {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Events returns the channel of engine events. It is closed when the X
// connection goes away.
func (e *Engine) Events() <-chan wm.Event {
	return e.events
}

// Size returns the screen size at connect time.
func (e *Engine) Size() wm.Size {
	return wm.Size{Width: int(e.screen.WidthInPixels), Height: int(e.screen.HeightInPixels)}
}

// Close releases the display. The event channel closes shortly after.
func (e *Engine) Close() error {
	e.once.Do(func() {
		close(e.done)
		if e.check != 0 {
			xproto.DestroyWindow(e.conn, e.check)
		}
		e.conn.Close()
	})
	return nil
}

func (e *Engine) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

var _ wm.Backend = (*Engine)(nil)
