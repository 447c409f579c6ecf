package queue

import (
	"sync"

	"github.com/arjenvrh/taskqueue/task"
)

// transitionLocks hands out a per-task mutex guarding state transitions,
// keyed mutex style: tasks that never interact never contend with each
// other, but a given task's own transitions are always serialized even when
// requested from two goroutines at once (a running task's Execute returning
// naturally, racing an operator-initiated Cancel or Pause).
//
// Adapted from the per-file keyed lock manager the scheduler package used for
// resource exclusivity: same map-of-mutex shape, different key domain.
type transitionLocks struct {
	mu    sync.Mutex
	locks map[task.ID]*sync.Mutex
}

func newTransitionLocks() *transitionLocks {
	return &transitionLocks{locks: make(map[task.ID]*sync.Mutex)}
}

func (t *transitionLocks) forID(id task.ID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[id]
	if !ok {
		m = &sync.Mutex{}
		t.locks[id] = m
	}
	return m
}

// drop releases the map entry for a task that has reached a terminal state
// and will never transition again, so the lock table does not grow without
// bound across a long-running queue's lifetime.
func (t *transitionLocks) drop(id task.ID) {
	t.mu.Lock()
	delete(t.locks, id)
	t.mu.Unlock()
}
