package wm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/logger"
)

// ActionSource yields control actions once per frame. Poll must not block.
type ActionSource interface {
	Poll() []action.Action
}

// LoopConfig wires a Loop together.
type LoopConfig struct {
	Backend   Backend
	State     *State
	Resolver  *keybind.Resolver
	Spawner   Spawner
	Sources   []ActionSource
	Hub       *Hub
	FrameRate int
}

// Loop is the single event loop that owns all window-manager state.
type Loop struct {
	backend  Backend
	state    *State
	resolver *keybind.Resolver
	dispatch *Dispatcher
	sources  []ActionSource
	hub      *Hub
	interval time.Duration
	log      *zerolog.Logger
}

// NewLoop builds a loop. FrameRate defaults to 60 per second.
func NewLoop(cfg LoopConfig) *Loop {
	rate := cfg.FrameRate
	if rate <= 0 {
		rate = 60
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = keybind.NewResolver(nil, nil)
	}
	hub := cfg.Hub
	if hub == nil {
		hub = NewHub()
	}

	return &Loop{
		backend:  cfg.Backend,
		state:    cfg.State,
		resolver: resolver,
		dispatch: NewDispatcher(cfg.State, cfg.Backend, cfg.Spawner),
		sources:  cfg.Sources,
		hub:      hub,
		interval: time.Second / time.Duration(rate),
		log:      logger.WithComponent("loop"),
	}
}

// Dispatcher returns the loop's dispatcher.
func (l *Loop) Dispatcher() *Dispatcher {
	return l.dispatch
}

// Run processes events and frame ticks until ctx is cancelled (returns nil)
// or the engine fails (returns the error).
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	events := l.backend.Events()
	l.hub.Publish(l.state.Snapshot())

	l.log.Info().Dur("frame_interval", l.interval).Msg("Event loop started")

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("Event loop stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				return ErrEngineClosed
			}
			if err := l.handle(ev); err != nil {
				return err
			}

		case <-ticker.C:
			// Input that arrived before the tick is applied before rendering.
			if err := l.drain(events); err != nil {
				return err
			}
			if err := l.frame(); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) drain(events <-chan Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ErrEngineClosed
			}
			if err := l.handle(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (l *Loop) handle(ev Event) error {
	switch ev := ev.(type) {
	case NewToplevel:
		return l.state.Register(ev.Window)

	case ToplevelDestroyed:
		return l.state.Unregister(ev.Window)

	case KeyInput:
		return l.handleKey(ev)

	case Resized:
		l.log.Debug().Int("width", ev.Size.Width).Int("height", ev.Size.Height).Msg("Output resized")
		return l.state.Resize(ev.Size)

	case EngineFailure:
		return fmt.Errorf("display server failure: %w", ev.Err)

	default:
		l.log.Debug().Type("event", ev).Msg("Ignoring unknown event")
		return nil
	}
}

func (l *Loop) handleKey(in KeyInput) error {
	a, result := l.resolver.Filter(in.Event)
	if err := l.backend.FinishKey(in, result); err != nil {
		return fmt.Errorf("failed to finish key event: %w", err)
	}
	if a == nil {
		return nil
	}

	l.log.Debug().
		Stringer("key", in.Event.Key).
		Stringer("action", a).
		Msg("Keybind matched")
	return l.dispatch.Dispatch(a)
}

// frame renders, then applies control actions, then publishes the result.
func (l *Loop) frame() error {
	if err := l.backend.Render(l.state.Focused(), l.state.Flipped()); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}

	for _, src := range l.sources {
		for _, a := range src.Poll() {
			if err := l.dispatch.Dispatch(a); err != nil {
				return err
			}
		}
	}

	l.hub.Publish(l.state.Snapshot())
	return nil
}
