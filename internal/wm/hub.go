package wm

import (
	"slices"
	"sync"
)

// Snapshot is a copy of the observable window-manager state.
type Snapshot struct {
	Toplevels []Window `json:"toplevels"`
	Focused   Window   `json:"focused"`
	Flipped   bool     `json:"flipped"`
	Size      Size     `json:"size"`
}

// Equal reports whether two snapshots describe the same state.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Focused == o.Focused &&
		s.Flipped == o.Flipped &&
		s.Size == o.Size &&
		slices.Equal(s.Toplevels, o.Toplevels)
}

// Hub hands snapshots from the loop to observers on other goroutines. It is
// the only type in this package that is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	latest    Snapshot
	listeners []chan Snapshot
}

// NewHub creates a hub with an empty initial snapshot.
func NewHub() *Hub {
	return &Hub{
		listeners: make([]chan Snapshot, 0),
	}
}

// Latest returns the most recently published snapshot.
func (h *Hub) Latest() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := h.latest
	snap.Toplevels = slices.Clone(snap.Toplevels)
	return snap
}

// Publish stores snap and notifies listeners if it differs from the last one.
// It reports whether anything changed.
func (h *Hub) Publish(snap Snapshot) bool {
	h.mu.Lock()
	if h.latest.Equal(snap) {
		h.mu.Unlock()
		return false
	}
	h.latest = snap
	h.mu.Unlock()

	h.notifyListeners(snap)
	return true
}

// Subscribe adds a listener for state changes
func (h *Hub) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 10)
	h.mu.Lock()
	h.listeners = append(h.listeners, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener
func (h *Hub) Unsubscribe(ch chan Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, listener := range h.listeners {
		if listener == ch {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

func (h *Hub) notifyListeners(snap Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, listener := range h.listeners {
		s := snap
		s.Toplevels = slices.Clone(snap.Toplevels)
		select {
		case listener <- s:
		default:
			// Slow listener; it will catch up from the next change.
		}
	}
}
