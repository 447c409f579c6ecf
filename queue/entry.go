package queue

import (
	"sort"

	"github.com/arjenvrh/taskqueue/task"
)

// entry is one task sitting in a queue's waiting list: either freshly
// arrived and ready, or a federated dependent parked in currently(waiting),
// which becomes first in line for the next pick once it wakes
// (done(waiting)).
type entry struct {
	handle *task.Handle
	seq    int64 // insertion order, used as the final tie-breaker
}

// waitingList is the priority-ordered pick list described in spec §4.4's
// "Sort order": rank descending, then plain tasks before dependents, then
// dependents with fewer incomplete dependencies first, then FIFO.
type waitingList struct {
	items []*entry
}

func (w *waitingList) insert(e *entry) {
	w.items = append(w.items, e)
	w.resort()
}

func (w *waitingList) resort() {
	sort.SliceStable(w.items, func(i, j int) bool {
		return less(w.items[i], w.items[j])
	})
}

func less(a, b *entry) bool {
	pa, pb := a.handle.Task.Priority(), b.handle.Task.Priority()
	if pa != pb {
		return pa > pb
	}

	_, aIsDep := a.handle.Dependent()
	_, bIsDep := b.handle.Dependent()
	if aIsDep != bIsDep {
		return !aIsDep // a plain task sorts before any dependent
	}
	aDep := incompleteDepCount(a.handle)
	bDep := incompleteDepCount(b.handle)
	if aDep != bDep {
		return aDep < bDep
	}
	return a.seq < b.seq
}

func incompleteDepCount(h *task.Handle) int {
	d, ok := h.Dependent()
	if !ok {
		return 0
	}
	return len(d.IncompleteDependencies())
}

// removeID removes and returns the entry for id, if present.
func (w *waitingList) removeID(id task.ID) (*entry, bool) {
	for i, e := range w.items {
		if e.handle.Task.ID() == id {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// pickNext returns the next entry to dispatch: woken dependents (done(waiting))
// take precedence over plain ready arrivals, per spec §4.5.
func (w *waitingList) pickNext() *entry {
	for _, e := range w.items {
		if e.handle.Task.State().Waited() {
			return e
		}
	}
	for _, e := range w.items {
		if e.handle.Task.State().IsReady() {
			return e
		}
	}
	return nil
}

func (w *waitingList) snapshot() []*entry {
	out := make([]*entry, len(w.items))
	copy(out, w.items)
	return out
}
