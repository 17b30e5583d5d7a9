package wm

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/focuswm/internal/action"
	"github.com/bryanchriswhite/focuswm/internal/control"
	"github.com/bryanchriswhite/focuswm/internal/keybind"
	"github.com/bryanchriswhite/focuswm/internal/keysym"
)

type queueSource struct {
	mu      sync.Mutex
	pending []action.Action
	polls   int
}

func (q *queueSource) push(a ...action.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, a...)
}

func (q *queueSource) Poll() []action.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.polls++
	out := q.pending
	q.pending = nil
	return out
}

func (q *queueSource) Polls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.polls
}

func (f *fakeBackend) Finished() []keybind.FilterResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]keybind.FilterResult(nil), f.finished...)
}

func (f *fakeBackend) Renders() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.renders...)
}

type loopHarness struct {
	backend *fakeBackend
	spawner *fakeSpawner
	source  *queueSource
	hub     *Hub
	cancel  context.CancelFunc
	done    chan error
}

func startLoop(t *testing.T, keybinds ...keybind.Keybind) *loopHarness {
	t.Helper()
	return startLoopWithSources(t, nil, keybinds...)
}

// startLoopWithSources runs a loop polling the harness queue and extra.
func startLoopWithSources(t *testing.T, extra []ActionSource, keybinds ...keybind.Keybind) *loopHarness {
	t.Helper()
	be := newFakeBackend()
	h := &loopHarness{
		backend: be,
		spawner: &fakeSpawner{},
		source:  &queueSource{},
		hub:     NewHub(),
		done:    make(chan error, 1),
	}
	loop := NewLoop(LoopConfig{
		Backend:   be,
		State:     NewState(be, screen),
		Resolver:  keybind.NewResolver(keybinds, nil),
		Spawner:   h.spawner,
		Sources:   append([]ActionSource{h.source}, extra...),
		Hub:       h.hub,
		FrameRate: 200,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- loop.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *loopHarness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func (h *loopHarness) waitFor(t *testing.T, cond func(Snapshot) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.hub.Latest()) }, 2*time.Second, 5*time.Millisecond)
}

func press(key keysym.Keysym, mods keybind.Modifiers) KeyInput {
	return KeyInput{Event: keybind.KeyEvent{Key: key, State: keybind.Pressed, Modifiers: mods}}
}

func TestLoop_RegistersAndUnregisters(t *testing.T) {
	h := startLoop(t)

	h.backend.events <- NewToplevel{Window: 1}
	h.backend.events <- NewToplevel{Window: 2}
	h.waitFor(t, func(s Snapshot) bool { return s.Focused == 2 })
	assert.Equal(t, []Window{2, 1}, h.hub.Latest().Toplevels)

	h.backend.events <- ToplevelDestroyed{Window: 2}
	h.waitFor(t, func(s Snapshot) bool { return s.Focused == 1 })

	require.NoError(t, h.stop(t))
}

func TestLoop_KeybindIntercepted(t *testing.T) {
	h := startLoop(t, keybind.Keybind{
		Shortcut: keybind.Shortcut{Key: 'q', Modifiers: keybind.Logo},
		Action:   action.CloseFocused{},
	})

	h.backend.events <- NewToplevel{Window: 5}
	h.backend.events <- press('q', keybind.Modifiers{Logo: true})
	h.backend.events <- press('q', keybind.Modifiers{})
	h.backend.events <- KeyInput{Event: keybind.KeyEvent{Key: 'q', State: keybind.Released, Modifiers: keybind.Modifiers{Logo: true}}}

	require.Eventually(t, func() bool { return len(h.backend.Finished()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.stop(t))

	assert.Equal(t, []keybind.FilterResult{keybind.Intercept, keybind.Forward, keybind.Forward}, h.backend.Finished())
	assert.Equal(t, []call{{op: "close", window: 5}}, h.backend.ops("close"))
}

func TestLoop_FrameRendersFlipAndPollsSources(t *testing.T) {
	h := startLoop(t)

	h.source.push(action.ToggleRenderFlip{}, action.Run{Command: "/bin/true --flag value"})
	h.waitFor(t, func(s Snapshot) bool { return s.Flipped })
	require.Eventually(t, func() bool {
		renders := h.backend.Renders()
		return len(renders) > 0 && renders[len(renders)-1]
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.stop(t))
	assert.Greater(t, h.source.Polls(), 0)
	assert.Equal(t, [][]string{{"/bin/true", "--flag", "value"}}, h.spawner.spawned)
}

func TestLoop_ControlSocketDrivesDispatch(t *testing.T) {
	sock, err := control.Listen(filepath.Join(t.TempDir(), "focuswm.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { sock.Close() })

	h := startLoopWithSources(t, []ActionSource{sock})
	h.backend.events <- NewToplevel{Window: 3}
	h.waitFor(t, func(s Snapshot) bool { return s.Focused == 3 })

	require.NoError(t, control.Send(sock.Path(), "FLIP", "EXEC /bin/true -x", "EXIT"))
	h.waitFor(t, func(s Snapshot) bool { return s.Flipped })
	require.Eventually(t, func() bool {
		renders := h.backend.Renders()
		return len(renders) > 0 && renders[len(renders)-1]
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(h.backend.ops("close")) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.stop(t))
	assert.Equal(t, []call{{op: "close", window: 3}}, h.backend.ops("close"))
	assert.Equal(t, [][]string{{"/bin/true", "-x"}}, h.spawner.spawned)
}

func TestLoop_Resize(t *testing.T) {
	h := startLoop(t)
	big := Size{Width: 3840, Height: 2160}

	h.backend.events <- NewToplevel{Window: 1}
	h.backend.events <- Resized{Size: big}
	h.waitFor(t, func(s Snapshot) bool { return s.Size == big })

	require.NoError(t, h.stop(t))
	configures := h.backend.ops("configure")
	assert.Equal(t, big, configures[len(configures)-1].size)
}

func TestLoop_EngineFailureStopsLoop(t *testing.T) {
	h := startLoop(t)
	h.backend.events <- EngineFailure{Err: errBroken}

	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, errBroken)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoop_ClosedEventsStopsLoop(t *testing.T) {
	h := startLoop(t)
	close(h.backend.events)

	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, ErrEngineClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoop_CancelReturnsNil(t *testing.T) {
	h := startLoop(t)
	assert.NoError(t, h.stop(t))
}

func TestNewLoop_Defaults(t *testing.T) {
	be := newFakeBackend()
	loop := NewLoop(LoopConfig{Backend: be, State: NewState(be, screen)})

	assert.Equal(t, time.Second/60, loop.interval)
	assert.NotNil(t, loop.hub)
	assert.NotNil(t, loop.resolver)
	assert.NotNil(t, loop.Dispatcher())
}
