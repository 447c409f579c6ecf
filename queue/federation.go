package queue

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/arjenvrh/taskqueue/task"
)

// QueueFederation is a read-only view across a set of linked queues, for
// federation-wide operations that don't belong to any single queue member.
type QueueFederation struct {
	members []*LinkedTaskQueue
}

// NewFederation collects every queue reachable, via Link, from any of the
// given queues into a single federation-wide view.
func NewFederation(queues ...*LinkedTaskQueue) *QueueFederation {
	seen := make(map[*LinkedTaskQueue]bool)
	var all []*LinkedTaskQueue
	for _, q := range queues {
		if q == nil {
			continue
		}
		for _, member := range q.federation() {
			if !seen[member] {
				seen[member] = true
				all = append(all, member)
			}
		}
	}
	return &QueueFederation{members: all}
}

// Members returns every queue in the federation.
func (f *QueueFederation) Members() []*LinkedTaskQueue {
	out := make([]*LinkedTaskQueue, len(f.members))
	copy(out, f.members)
	return out
}

// Validate confirms the federation-wide dependency graph — every task known
// to any member queue, plus every dependency it references — contains no
// cycle, using the same topological-sort cycle check the scheduler package
// used for a single DAG, generalized across queue boundaries.
func (f *QueueFederation) Validate() error {
	var edges []toposort.Edge
	known := make(map[task.ID]bool)

	for _, q := range f.members {
		for _, h := range q.snapshotHandles() {
			known[h.Task.ID()] = true
		}
	}

	for _, q := range f.members {
		for _, h := range q.snapshotHandles() {
			id := h.Task.ID()
			dependent, ok := h.Dependent()
			if !ok {
				edges = append(edges, toposort.Edge{nil, id})
				continue
			}
			deps := dependent.Dependencies()
			if len(deps) == 0 {
				edges = append(edges, toposort.Edge{nil, id})
				continue
			}
			for _, d := range deps {
				edges = append(edges, toposort.Edge{d.ID(), id})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return fmt.Errorf("queue: federation dependency graph contains a cycle: %w", err)
	}

	count := 0
	for _, v := range sorted {
		if v != nil {
			count++
		}
	}
	if count != len(known) {
		return fmt.Errorf("queue: federation dependency graph is inconsistent: %d tasks known, %d reachable from roots", len(known), count)
	}
	return nil
}
