// Package queue implements the scheduler runtime: TaskQueue, the
// priority-ordered single-queue scheduler of spec §4.4, and LinkedTaskQueue /
// QueueFederation, the cross-queue dependency extension of spec §4.5.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arjenvrh/taskqueue/internal/events"
	"github.com/arjenvrh/taskqueue/internal/workerpool"
	"github.com/arjenvrh/taskqueue/task"
	"github.com/arjenvrh/taskqueue/taskstate"
)

// WorkerPool is the concurrency collaborator a TaskQueue dispatches onto.
// internal/workerpool supplies the default implementation; anything honoring
// the QoS hint with at least the queue's own maxSimultaneous concurrency
// will do.
type WorkerPool interface {
	Submit(qos task.QoS, fn func())
}

// depOutcome is the three-way result of resolving a task's dependencies,
// private to this package: resolved (proceed), failed (a dependency never
// succeeded), or parked (federated mode only — awaiting peer completion
// handles, the dispatching goroutine's slot has already been released).
type depOutcome int

const (
	depResolved depOutcome = iota
	depFailed
	depParked
)

// TaskQueue is a single priority-ordered scheduler: a waiting list, a
// concurrency gate, and the per-task lifecycle dispatcher.
type TaskQueue struct {
	name            string
	maxSimultaneous int
	pool            WorkerPool
	seq             int64

	tasksMu sync.RWMutex
	tasks   map[task.ID]*task.Handle

	waitMu  sync.Mutex
	waiting waitingList

	runMu   sync.Mutex
	running map[task.ID]struct{}

	handleMu sync.Mutex
	handles  map[task.ID]*CompletionHandle

	// abandoned marks a running, non-Cancellable task that cancel() was asked
	// to stop: it keeps running to its natural exit (it has no other choice),
	// but that exit is reclassified as done(cancelling) instead of succeeded
	// or failed(executing), per design note "abandons ... then transitions
	// to cancelled".
	abandonMu sync.Mutex
	abandoned map[task.ID]bool

	// claimed marks a task as already being driven by one dispatcher — either
	// the normal picker or a dependent's local prepare stage — so a task that
	// was both added directly and referenced as a dependency is only ever
	// run once; anyone who loses the claim just awaits its completion handle.
	claimMu sync.Mutex
	claimed map[task.ID]bool

	stateMu  sync.Mutex
	isActive bool

	pumpMu sync.Mutex

	transitions *transitionLocks
	seeded      []task.Task // staged by WithTasks until the constructor finishes

	bus *events.EventBus // nil unless WithEventBus is given; publishes are then no-ops

	// resolveDependencies is the strategy used at the prepare stage. A plain
	// TaskQueue always resolves locally; LinkedTaskQueue overrides it with
	// federated parking. A closure field stands in for virtual dispatch,
	// since embedding would still resolve to TaskQueue's own method.
	resolveDependencies func(ctx context.Context, h *task.Handle) depOutcome
}

// Option configures a TaskQueue at construction.
type Option func(*TaskQueue)

// WithPool overrides the default worker-pool collaborator.
func WithPool(pool WorkerPool) Option {
	return func(q *TaskQueue) { q.pool = pool }
}

// WithTasks seeds the queue with an initial batch of tasks, equivalent to an
// immediate Add after construction.
func WithTasks(tasks ...task.Task) Option {
	return func(q *TaskQueue) { q.seeded = append(q.seeded, tasks...) }
}

// WithEventBus attaches an events.EventBus: the queue publishes a
// TaskStateChangedEvent when a task reaches a terminal state or is paused or
// resumed, and a QueueProgressEvent after every dispatch decision, so a TUI
// or logger can observe it without coupling to the scheduler internals. The
// intermediate beginning/preparing/configuring/executing/waiting transitions
// are not published.
func WithEventBus(bus *events.EventBus) Option {
	return func(q *TaskQueue) { q.bus = bus }
}

// New creates a TaskQueue with the given name and concurrency cap. Without a
// WithPool option, it provisions its own internal/workerpool sized generously
// above maxSimultaneous.
func New(name string, maxSimultaneous int, opts ...Option) *TaskQueue {
	if maxSimultaneous < 1 {
		maxSimultaneous = 1
	}
	q := &TaskQueue{
		name:            name,
		maxSimultaneous: maxSimultaneous,
		tasks:           make(map[task.ID]*task.Handle),
		running:         make(map[task.ID]struct{}),
		handles:         make(map[task.ID]*CompletionHandle),
		abandoned:       make(map[task.ID]bool),
		claimed:         make(map[task.ID]bool),
		transitions:     newTransitionLocks(),
	}
	q.resolveDependencies = q.prepareLocal
	for _, opt := range opts {
		opt(q)
	}
	if q.pool == nil {
		q.pool = workerpool.New(maxSimultaneous * 4)
	}
	if len(q.seeded) > 0 {
		seeded := q.seeded
		q.seeded = nil
		q.Add(seeded...)
	}
	return q
}

// Name returns the queue's name.
func (q *TaskQueue) Name() string { return q.name }

// publishState emits a TaskStateChangedEvent if an event bus is attached.
func (q *TaskQueue) publishState(id task.ID, s *taskstate.State) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(events.TopicTask, events.TaskStateChangedEvent{
		ID: id, Queue: q.name, State: s.String(), Timestamp: time.Now(),
	})
	if s.DidSucceed() {
		q.bus.Publish(events.TopicTask, events.TaskSucceededEvent{ID: id, Queue: q.name, Timestamp: time.Now()})
	} else if s.DidFail() {
		q.bus.Publish(events.TopicTask, events.TaskFailedEvent{ID: id, Queue: q.name, Reason: s.FailReason(), Timestamp: time.Now()})
	}
}

// publishProgress emits a QueueProgressEvent if an event bus is attached.
func (q *TaskQueue) publishProgress() {
	if q.bus == nil {
		return
	}
	q.bus.Publish(events.TopicQueue, events.QueueProgressEvent{
		Queue:     q.name,
		Waiting:   len(q.Waiting()),
		Running:   len(q.Running()),
		Succeeded: len(q.Succeeded()),
		Failed:    len(q.Failed()),
		Timestamp: time.Now(),
	})
}

// --- registration ----------------------------------------------------------

func (q *TaskQueue) registerTaskIfAbsent(t task.Task) (*task.Handle, bool) {
	q.tasksMu.Lock()
	defer q.tasksMu.Unlock()
	if h, ok := q.tasks[t.ID()]; ok {
		return h, false
	}
	h := task.NewHandle(t)
	q.tasks[t.ID()] = h
	return h, true
}

func (q *TaskQueue) handleFor(id task.ID) (*task.Handle, bool) {
	q.tasksMu.RLock()
	defer q.tasksMu.RUnlock()
	h, ok := q.tasks[id]
	return h, ok
}

func (q *TaskQueue) snapshotHandles() []*task.Handle {
	q.tasksMu.RLock()
	defer q.tasksMu.RUnlock()
	out := make([]*task.Handle, 0, len(q.tasks))
	for _, h := range q.tasks {
		out = append(out, h)
	}
	return out
}

func (q *TaskQueue) createCompletionHandle(id task.ID) *CompletionHandle {
	q.handleMu.Lock()
	defer q.handleMu.Unlock()
	if ch, ok := q.handles[id]; ok {
		return ch
	}
	ch := newCompletionHandle()
	q.handles[id] = ch
	return ch
}

func (q *TaskQueue) completionHandle(id task.ID) (*CompletionHandle, bool) {
	q.handleMu.Lock()
	defer q.handleMu.Unlock()
	ch, ok := q.handles[id]
	return ch, ok
}

func (q *TaskQueue) snapshotCompletionHandles() []*CompletionHandle {
	q.handleMu.Lock()
	defer q.handleMu.Unlock()
	out := make([]*CompletionHandle, 0, len(q.handles))
	for _, ch := range q.handles {
		out = append(out, ch)
	}
	return out
}

// finalize releases a task's bookkeeping exactly once, however it got there
// (a dispatch goroutine observing Execute return, or an operator-initiated
// Cancel running concurrently). The handles-map existence check is the
// single source of truth for "already finalized".
func (q *TaskQueue) finalize(h *task.Handle) {
	id := h.Task.ID()

	q.runMu.Lock()
	delete(q.running, id)
	q.runMu.Unlock()

	q.handleMu.Lock()
	ch, ok := q.handles[id]
	if ok {
		delete(q.handles, id)
	}
	q.handleMu.Unlock()

	q.abandonMu.Lock()
	delete(q.abandoned, id)
	q.abandonMu.Unlock()

	q.claimMu.Lock()
	delete(q.claimed, id)
	q.claimMu.Unlock()

	if !ok {
		return
	}
	if f, fok := h.Finisher(); fok {
		f.Finish()
	}
	q.transitions.drop(id)
	q.publishState(id, h.Task.State())
	q.publishProgress()
	ch.signal()
}

func (q *TaskQueue) isAbandoned(id task.ID) bool {
	q.abandonMu.Lock()
	defer q.abandonMu.Unlock()
	return q.abandoned[id]
}

// claim reports whether the caller won the right to drive id's lifecycle:
// true the first time it is called for a given id, false every time after.
func (q *TaskQueue) claim(id task.ID) bool {
	q.claimMu.Lock()
	defer q.claimMu.Unlock()
	if q.claimed[id] {
		return false
	}
	q.claimed[id] = true
	return true
}

// unclaim releases a previously-won claim without finalizing the task. A
// federated dependent that parked, currently(waiting), keeps its claim while
// it awaits its dependencies — finalize() is never called for it, since it
// never reached a terminal state — so once it wakes, done(waiting), this
// must run before pump() re-picks it, or claim() would report it already
// claimed and pump() would discard the (by then already dequeued) entry for
// good.
func (q *TaskQueue) unclaim(id task.ID) {
	q.claimMu.Lock()
	delete(q.claimed, id)
	q.claimMu.Unlock()
}

// --- adding work -------------------------------------------------------

// Add registers one or more tasks and inserts them into the waiting list in
// priority order. Re-adding a task already known to the queue is a no-op.
func (q *TaskQueue) Add(tasks ...task.Task) {
	for _, t := range tasks {
		h, created := q.registerTaskIfAbsent(t)
		if !created {
			continue
		}
		q.createCompletionHandle(t.ID())
		e := &entry{handle: h, seq: atomic.AddInt64(&q.seq, 1)}
		q.waitMu.Lock()
		q.waiting.insert(e)
		q.waitMu.Unlock()
	}
	q.pump()
}

// --- lifecycle control ---------------------------------------------------

// Start marks the queue active and begins dispatching. A no-op if already
// active.
func (q *TaskQueue) Start() {
	q.stateMu.Lock()
	if q.isActive {
		q.stateMu.Unlock()
		return
	}
	q.isActive = true
	q.stateMu.Unlock()
	q.pump()
}

// IsActive reports whether the queue is currently dispatching.
func (q *TaskQueue) IsActive() bool {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	return q.isActive
}

// Pause suspends dispatching and asks every currently(executing) Pausable
// task to pause. Non-pausable running tasks are left to run to completion.
// Returns the tasks that paused successfully.
func (q *TaskQueue) Pause() []task.Task {
	q.stateMu.Lock()
	q.isActive = false
	q.stateMu.Unlock()

	var paused []task.Task
	for _, h := range q.snapshotHandles() {
		s := h.Task.State()
		lock := q.transitions.forID(h.Task.ID())
		lock.Lock()
		if !s.IsExecuting() {
			lock.Unlock()
			continue
		}
		p, ok := h.Pausable()
		if !ok {
			lock.Unlock()
			continue
		}
		if p.Pause(context.Background()) {
			s.Pause()
			paused = append(paused, h.Task)
			lock.Unlock()
			q.publishState(h.Task.ID(), s)
		} else {
			s.Fail("pausing")
			lock.Unlock()
			q.finalize(h)
		}
	}
	return paused
}

// Resume asks every done(pausing) Pausable task to resume, then reactivates
// the queue. Returns the tasks that resumed successfully.
func (q *TaskQueue) Resume() []task.Task {
	var resumed []task.Task
	for _, h := range q.snapshotHandles() {
		s := h.Task.State()
		lock := q.transitions.forID(h.Task.ID())
		lock.Lock()
		if !s.IsPaused() {
			lock.Unlock()
			continue
		}
		p, ok := h.Pausable()
		if !ok {
			lock.Unlock()
			continue
		}
		if p.Resume(context.Background()) {
			s.Resume()
			resumed = append(resumed, h.Task)
			lock.Unlock()
			q.publishState(h.Task.ID(), s)
		} else {
			s.Fail("resuming")
			lock.Unlock()
			q.finalize(h)
		}
	}
	q.stateMu.Lock()
	q.isActive = true
	q.stateMu.Unlock()
	q.pump()
	return resumed
}

// Cancel asks every currently(executing) Cancellable task to cancel.
// Non-cancellable running tasks cannot be stopped outright: they are
// abandoned, staying in the running view until they exit naturally, at
// which point that exit is reclassified as done(cancelling) rather than
// succeeded or failed. If pause is true the queue is also suspended;
// otherwise dispatch continues once slots free up. Returns the tasks that
// cancelled synchronously.
func (q *TaskQueue) Cancel(pause bool) []task.Task {
	var cancelled []task.Task
	for _, h := range q.snapshotHandles() {
		s := h.Task.State()
		lock := q.transitions.forID(h.Task.ID())
		lock.Lock()
		if !s.IsExecuting() {
			lock.Unlock()
			continue
		}
		c, ok := h.Cancellable()
		if !ok {
			lock.Unlock()
			q.abandonMu.Lock()
			q.abandoned[h.Task.ID()] = true
			q.abandonMu.Unlock()
			continue
		}
		if c.Cancel(context.Background()) {
			s.Cancel()
			cancelled = append(cancelled, h.Task)
			lock.Unlock()
			q.finalize(h)
		} else {
			s.Fail("cancelling")
			lock.Unlock()
			q.finalize(h)
		}
	}

	if pause {
		q.stateMu.Lock()
		q.isActive = false
		q.stateMu.Unlock()
	} else {
		q.pump()
	}
	return cancelled
}

// --- rendezvous ----------------------------------------------------------

// Wait blocks until every task currently tracked by the queue (added but not
// yet terminal) reaches a terminal state, or ctx is cancelled.
func (q *TaskQueue) Wait(ctx context.Context) error {
	for {
		handles := q.snapshotCompletionHandles()
		if len(handles) == 0 {
			return nil
		}
		for _, ch := range handles {
			if err := ch.Wait(ctx); err != nil {
				return err
			}
		}
		// A newly added or newly parked task may have slipped in while we
		// were waiting on the prior snapshot; loop until a full snapshot
		// drains empty.
		if len(q.snapshotCompletionHandles()) == 0 {
			return nil
		}
	}
}

// WaitWall blocks until every tracked task reaches a terminal state, or d
// elapses on the wall clock. Reports whether the queue drained within d.
func (q *TaskQueue) WaitWall(d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return q.Wait(ctx) == nil
}

// Notify schedules work to run on the queue's worker pool, under qos, once
// every task currently tracked by the queue has reached a terminal state.
// It returns immediately; work itself runs asynchronously, never on the
// caller's goroutine.
func (q *TaskQueue) Notify(work func(), qos task.QoS) {
	go func() {
		_ = q.Wait(context.Background())
		q.pool.Submit(qos, work)
	}()
}

// --- views -----------------------------------------------------------------

func (q *TaskQueue) filterByState(pred func(taskstate.State) bool) []task.Task {
	var out []task.Task
	for _, h := range q.snapshotHandles() {
		if pred(*h.Task.State()) {
			out = append(out, h.Task)
		}
	}
	return out
}

// Waiting returns tasks still sitting in the pick list.
func (q *TaskQueue) Waiting() []task.Task {
	q.waitMu.Lock()
	items := q.waiting.snapshot()
	q.waitMu.Unlock()
	out := make([]task.Task, 0, len(items))
	for _, e := range items {
		out = append(out, e.handle.Task)
	}
	return out
}

// Running returns every known task in currently(executing), including
// locally-resolved dependencies that run without a concurrency slot.
func (q *TaskQueue) Running() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return s.IsExecuting() })
}

// Failed returns tasks in any failed(...) state.
func (q *TaskQueue) Failed() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return s.DidFail() })
}

// Succeeded returns tasks that reached done(executing).
func (q *TaskQueue) Succeeded() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return s.DidSucceed() })
}

// Paused returns tasks in done(pausing).
func (q *TaskQueue) Paused() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return s.IsPaused() })
}

// Cancelled returns tasks in done(cancelling).
func (q *TaskQueue) Cancelled() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return s.WasCancelled() })
}

// Remaining returns every task not yet in a terminal state.
func (q *TaskQueue) Remaining() []task.Task {
	return q.filterByState(func(s taskstate.State) bool { return !s.Terminal() })
}

// IsDone reports whether every task the queue has ever been given has
// reached a terminal state.
func (q *TaskQueue) IsDone() bool {
	return len(q.snapshotCompletionHandles()) == 0
}
