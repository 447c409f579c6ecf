// Package workerpool is the default worker-pool collaborator a queue.TaskQueue
// dispatches task lifecycles onto: bounded concurrency via a weighted
// semaphore, with quality-of-service-ordered admission among whatever is
// currently waiting for a slot.
package workerpool

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/arjenvrh/taskqueue/task"
)

type submission struct {
	qos task.QoS
	seq int64
	fn  func()
}

// Pool tracks in-flight goroutines the way internal/backend's ProcessManager
// tracked live subprocesses — a mutex-guarded collection, drained on
// shutdown — generalized here from OS processes to goroutines, with an
// admission-ordering queue layered on top.
type Pool struct {
	sem      *semaphore.Weighted
	capacity int64

	mu      sync.Mutex
	waiting []*submission
	seq     int64
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// New creates a Pool bounding concurrency at capacity goroutines.
func New(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.admit()
	return p
}

// Submit enqueues fn for dispatch under the given QoS hint. A closed pool
// silently drops the submission.
func (p *Pool) Submit(qos task.QoS, fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seq++
	p.waiting = append(p.waiting, &submission{qos: qos, seq: p.seq, fn: fn})
	p.mu.Unlock()
	p.nudge()
}

func (p *Pool) nudge() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// admit is the single admission loop: it wakes whenever Submit adds work,
// then repeatedly picks the highest-QoS waiter and blocks on the semaphore
// until a slot is free, launching the work on its own goroutine once
// admitted.
func (p *Pool) admit() {
	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
		}
		for {
			sub := p.next()
			if sub == nil {
				break
			}
			if err := p.sem.Acquire(context.Background(), 1); err != nil {
				return
			}
			go func(s *submission) {
				defer p.sem.Release(1)
				s.fn()
			}(sub)
		}
	}
}

func (p *Pool) next() *submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.waiting) == 0 {
		return nil
	}
	sort.SliceStable(p.waiting, func(i, j int) bool {
		if p.waiting[i].qos != p.waiting[j].qos {
			return p.waiting[i].qos > p.waiting[j].qos
		}
		return p.waiting[i].seq < p.waiting[j].seq
	})
	sub := p.waiting[0]
	p.waiting = p.waiting[1:]
	return sub
}

// Shutdown stops admitting new submissions and blocks until every in-flight
// submission has released its slot, or ctx is cancelled first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.done)

	if err := p.sem.Acquire(ctx, p.capacity); err != nil {
		return err
	}
	p.sem.Release(p.capacity)
	return nil
}
