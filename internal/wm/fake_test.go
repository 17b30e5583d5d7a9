package wm

import (
	"errors"
	"sync"

	"github.com/bryanchriswhite/focuswm/internal/keybind"
)

type call struct {
	op     string
	window Window
	size   Size
	serial uint32
}

// fakeBackend records every engine call.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []call
	finished []keybind.FilterResult
	renders  []bool
	events   chan Event
	failWith error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan Event, 64)}
}

func (f *fakeBackend) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeBackend) ConfigureFullscreen(w Window, size Size) error {
	return f.record(call{op: "configure", window: w, size: size})
}

func (f *fakeBackend) SetFocus(w Window, serial uint32) error {
	return f.record(call{op: "focus", window: w, serial: serial})
}

func (f *fakeBackend) CloseWindow(w Window) error {
	return f.record(call{op: "close", window: w})
}

func (f *fakeBackend) Events() <-chan Event {
	return f.events
}

func (f *fakeBackend) FinishKey(_ KeyInput, result keybind.FilterResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, result)
	return nil
}

func (f *fakeBackend) Render(_ Window, flipped bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.renders = append(f.renders, flipped)
	return nil
}

func (f *fakeBackend) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeBackend) ops(op string) []call {
	var out []call
	for _, c := range f.Calls() {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

var errBroken = errors.New("broken pipe")

// fakeSpawner records spawn requests.
type fakeSpawner struct {
	spawned [][]string
	err     error
}

func (s *fakeSpawner) Spawn(program string, args []string) error {
	if s.err != nil {
		return s.err
	}
	s.spawned = append(s.spawned, append([]string{program}, args...))
	return nil
}
