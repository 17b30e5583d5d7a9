package control

import (
	"sync"

	"github.com/bryanchriswhite/focuswm/internal/action"
)

// Queue collects actions from goroutines other than the event loop (D-Bus
// calls, HTTP handlers). The loop drains it with Poll.
type Queue struct {
	mu      sync.Mutex
	pending []action.Action
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends actions in order.
func (q *Queue) Push(actions ...action.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, actions...)
}

// Poll returns and clears everything pushed so far.
func (q *Queue) Poll() []action.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len reports the number of pending actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
