package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arjenvrh/taskqueue/task"
)

// DependencyOptions are the dependent-task priority bumps applied once, per
// dependency, the first time a LinkedTaskQueue parks on it (spec §4.5
// "Federated", step 3).
type DependencyOptions struct {
	// IncreaseDependencyPriority bumps the dependency's own priority one band
	// up in its owning queue, so it is picked sooner.
	IncreaseDependencyPriority bool
	// DecreaseDependentPriority bumps the dependent's priority one band down
	// in this queue, since it can make no progress until the dependency
	// finishes anyway.
	DecreaseDependentPriority bool
}

// LinkedTaskQueue is a TaskQueue that resolves Dependent tasks federated:
// dependencies are assumed to already be enqueued somewhere among its linked
// peers, rather than started locally.
type LinkedTaskQueue struct {
	*TaskQueue

	options DependencyOptions

	peersMu sync.RWMutex
	peers   []*LinkedTaskQueue
}

// NewLinked creates a LinkedTaskQueue and links it, symmetrically, to every
// given peer.
func NewLinked(name string, maxSimultaneous int, options DependencyOptions, peers ...*LinkedTaskQueue) *LinkedTaskQueue {
	return NewLinkedWithOptions(name, maxSimultaneous, options, nil, peers...)
}

// NewLinkedWithOptions is NewLinked plus TaskQueue construction options
// (WithPool, WithTasks).
func NewLinkedWithOptions(name string, maxSimultaneous int, options DependencyOptions, opts []Option, peers ...*LinkedTaskQueue) *LinkedTaskQueue {
	lq := &LinkedTaskQueue{
		TaskQueue: New(name, maxSimultaneous, opts...),
		options:   options,
	}
	lq.resolveDependencies = lq.prepareFederated
	for _, p := range peers {
		lq.Link(p)
	}
	return lq
}

// Link peers lq and other, symmetrically and idempotently.
func (lq *LinkedTaskQueue) Link(other *LinkedTaskQueue) {
	if other == nil || other == lq {
		return
	}
	lq.addPeer(other)
	other.addPeer(lq)
}

func (lq *LinkedTaskQueue) addPeer(other *LinkedTaskQueue) {
	lq.peersMu.Lock()
	defer lq.peersMu.Unlock()
	for _, p := range lq.peers {
		if p == other {
			return
		}
	}
	lq.peers = append(lq.peers, other)
}

// Peers returns the queues directly linked to lq.
func (lq *LinkedTaskQueue) Peers() []*LinkedTaskQueue {
	lq.peersMu.RLock()
	defer lq.peersMu.RUnlock()
	out := make([]*LinkedTaskQueue, len(lq.peers))
	copy(out, lq.peers)
	return out
}

// federation walks the peer graph breadth-first and returns every queue
// reachable from lq, lq included, so a dependency is found regardless of
// which peer directly links to which.
func (lq *LinkedTaskQueue) federation() []*LinkedTaskQueue {
	seen := map[*LinkedTaskQueue]bool{lq: true}
	all := []*LinkedTaskQueue{lq}
	frontier := lq.Peers()
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		all = append(all, next)
		frontier = append(frontier, next.Peers()...)
	}
	return all
}

// locate returns the federation member that owns id, if any.
func (lq *LinkedTaskQueue) locate(id task.ID) (*LinkedTaskQueue, bool) {
	for _, member := range lq.federation() {
		if _, ok := member.handleFor(id); ok {
			return member, true
		}
	}
	return nil, false
}

// prepareFederated is the dependency-resolution strategy for
// LinkedTaskQueue: rather than starting dependencies itself, it assumes they
// are already enqueued somewhere in the federation, applies the configured
// priority bumps, and parks on their completion handles.
func (lq *LinkedTaskQueue) prepareFederated(ctx context.Context, h *task.Handle) depOutcome {
	dependent, ok := h.Dependent()
	if !ok {
		return depResolved
	}
	incomplete := dependent.IncompleteDependencies()
	if len(incomplete) == 0 {
		return depResolved
	}

	lock := lq.transitions.forID(h.Task.ID())
	lock.Lock()
	h.Task.State().SetDependency(incomplete[0].ID().String())
	lock.Unlock()

	var toNotify []task.Task
	var toAwait []*CompletionHandle

	for _, depTask := range incomplete {
		ds := depTask.State()
		if ds.DidFail() || ds.WasCancelled() {
			lock.Lock()
			h.Task.State().Fail(fmt.Sprintf("dependency(%s)", depTask.ID()))
			lock.Unlock()
			return depFailed
		}

		owner, found := lq.locate(depTask.ID())
		if !found {
			lock.Lock()
			h.Task.State().Fail(fmt.Sprintf("dependency(%s)", depTask.ID()))
			lock.Unlock()
			FatalHandler(&ErrDependencyNotFound{Dependent: h.Task.ID(), Dependency: depTask.ID()})
			return depFailed
		}

		if lq.options.IncreaseDependencyPriority {
			if np, changed := depTask.Priority().Increase(); changed {
				depTask.SetPriority(np)
				owner.waitMu.Lock()
				owner.waiting.resort()
				owner.waitMu.Unlock()
			}
		}
		if lq.options.DecreaseDependentPriority {
			if np, changed := h.Task.Priority().Decrease(); changed {
				h.Task.SetPriority(np)
				lq.waitMu.Lock()
				lq.waiting.resort()
				lq.waitMu.Unlock()
			}
		}

		toNotify = append(toNotify, depTask)
		if ch, ok := owner.completionHandle(depTask.ID()); ok {
			toAwait = append(toAwait, ch)
		}
	}

	if len(toAwait) == 0 {
		for _, d := range toNotify {
			dependent.DependencyFinished(d)
		}
		lock.Lock()
		h.Task.State().ClearDependency()
		lock.Unlock()
		return depResolved
	}

	lock.Lock()
	h.Task.State().WaitTo()
	lock.Unlock()

	lq.runMu.Lock()
	delete(lq.running, h.Task.ID())
	lq.runMu.Unlock()

	e := &entry{handle: h, seq: atomic.AddInt64(&lq.seq, 1)}
	lq.waitMu.Lock()
	lq.waiting.insert(e)
	lq.waitMu.Unlock()

	go lq.awaitAndWake(h, dependent, toNotify, toAwait)

	return depParked
}

// awaitAndWake blocks until every handle in await has signalled, notifies
// the dependent of each finished dependency, wakes the parked task
// (done(waiting)), and nudges the scheduling loop to re-pick it.
func (lq *LinkedTaskQueue) awaitAndWake(h *task.Handle, dependent task.Dependent, notify []task.Task, await []*CompletionHandle) {
	for _, ch := range await {
		<-ch.Done()
	}
	for _, d := range notify {
		dependent.DependencyFinished(d)
	}

	lock := lq.transitions.forID(h.Task.ID())
	lock.Lock()
	h.Task.State().Waken()
	h.Task.State().ClearDependency()
	lock.Unlock()

	lq.unclaim(h.Task.ID())
	lq.pump()
}
