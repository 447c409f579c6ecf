package queue

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arjenvrh/taskqueue/task"
	"github.com/arjenvrh/taskqueue/taskstate"
)

// pump draws as many ready/woken tasks as current capacity allows and hands
// each to the worker pool. pumpMu serializes the get-next decision so the
// capacity check and the pick are never interleaved with another goroutine's
// decision — this is what avoids a thundering-herd over-dispatch when
// several goroutines (Add, a finishing task, Resume) all call pump at once.
func (q *TaskQueue) pump() {
	q.pumpMu.Lock()
	defer q.pumpMu.Unlock()

	for {
		q.stateMu.Lock()
		active := q.isActive
		q.stateMu.Unlock()
		if !active {
			return
		}

		q.runMu.Lock()
		atCapacity := len(q.running) >= q.maxSimultaneous
		q.runMu.Unlock()
		if atCapacity {
			return
		}

		q.waitMu.Lock()
		e := q.waiting.pickNext()
		if e != nil {
			q.waiting.removeID(e.handle.Task.ID())
		}
		q.waitMu.Unlock()
		if e == nil {
			return
		}
		if !q.claim(e.handle.Task.ID()) {
			// A dependent's local prepare stage already claimed this exact
			// task between the pick and here; let it drive the lifecycle.
			continue
		}

		q.runMu.Lock()
		q.running[e.handle.Task.ID()] = struct{}{}
		q.runMu.Unlock()

		q.dispatch(e.handle)
		q.publishProgress()
	}
}

// dispatch hands a single task's full lifecycle to the worker pool under its
// QoS hint.
func (q *TaskQueue) dispatch(h *task.Handle) {
	lock := q.transitions.forID(h.Task.ID())
	lock.Lock()
	h.Task.State().StartTo(taskstate.PhaseBeginning)
	h.Task.State().Finish() // done(beginning): a trivial stage every task passes through
	lock.Unlock()

	q.pool.Submit(h.Task.QoS(), func() {
		parked := q.runLifecycle(context.Background(), h)
		if parked {
			q.runMu.Lock()
			delete(q.running, h.Task.ID())
			q.runMu.Unlock()
			q.pump()
			return
		}
		q.finalize(h)
		q.pump()
	})
}

// runLifecycle drives a single task through prepare, configure, and execute.
// It is used both for top-level dispatch and for a locally-resolved
// dependency run inline within its dependent's own lifecycle. Returns true
// if the task parked awaiting a federated dependency (LinkedTaskQueue only);
// in that case the caller must not finalize the task — the park logic has
// already released its slot and re-queued it.
func (q *TaskQueue) runLifecycle(ctx context.Context, h *task.Handle) (parked bool) {
	lock := q.transitions.forID(h.Task.ID())
	s := h.Task.State()

	lock.Lock()
	s.StartTo(taskstate.PhasePreparing)
	lock.Unlock()

	switch q.resolveDependencies(ctx, h) {
	case depParked:
		return true
	case depFailed:
		return false
	}

	lock.Lock()
	s.Finish() // done(preparing)
	lock.Unlock()

	if c, ok := h.Configurable(); ok {
		lock.Lock()
		s.StartTo(taskstate.PhaseConfiguring)
		lock.Unlock()
		if !c.Configure(ctx) {
			lock.Lock()
			s.Fail("configuring")
			lock.Unlock()
			return false
		}
		lock.Lock()
		s.Finish()
		lock.Unlock()
	}

	lock.Lock()
	s.StartTo(taskstate.PhaseExecuting)
	lock.Unlock()

	ok := h.Task.Execute(ctx)

	lock.Lock()
	defer lock.Unlock()
	if s.Terminal() {
		// A concurrent Cancel (or a pause-then-fail) already decided this
		// task's fate while Execute was still running.
		return false
	}
	if q.isAbandoned(h.Task.ID()) {
		s.Cancel()
		return false
	}
	if !ok {
		s.Fail("executing")
		return false
	}
	s.Finish()
	return false
}

// prepareLocal is the default (non-federated) dependency resolution
// strategy: every incomplete dependency is dispatched inline, synchronously
// from the dependent's point of view, on the same worker pool but without
// occupying one of the queue's own concurrency slots — so capacity
// accounting stays correct even though the dependency chain can itself be
// arbitrarily deep.
func (q *TaskQueue) prepareLocal(ctx context.Context, h *task.Handle) depOutcome {
	dependent, ok := h.Dependent()
	if !ok {
		return depResolved
	}
	incomplete := dependent.IncompleteDependencies()
	if len(incomplete) == 0 {
		return depResolved
	}

	type result struct {
		t  task.Task
		ok bool
	}
	results := make(chan result, len(incomplete))

	// eg fans the wave out across goroutines and barriers on Wait, mirroring
	// the teacher's ParallelRunner.Run wave dispatch. No branch below returns
	// a non-nil error — a failed dependency is reported through results, not
	// through eg — so eg's derived ctx is never cancelled early and every
	// dependency always runs to completion.
	eg, _ := errgroup.WithContext(ctx)

	for _, depTask := range incomplete {
		depTask := depTask
		depHandle := q.registerTaskIfAbsentPlain(depTask)
		ch := q.createCompletionHandle(depTask.ID())

		if depTask.State().Terminal() {
			// Already ran to completion (e.g. picked directly off the
			// waiting list) by the time this dependent got here.
			results <- result{t: depTask, ok: depTask.State().DidSucceed()}
			continue
		}

		if !q.claim(depTask.ID()) {
			// Someone else — the normal picker, or another dependent
			// sharing this dependency — already owns it; just await it.
			eg.Go(func() error {
				<-ch.Done()
				results <- result{t: depTask, ok: depTask.State().DidSucceed()}
				return nil
			})
			continue
		}

		// Won the claim: remove it from the plain pick list (in case it was
		// also added to this queue directly) and drive it ourselves, inline,
		// without occupying a concurrency slot.
		q.waitMu.Lock()
		q.waiting.removeID(depTask.ID())
		q.waitMu.Unlock()

		done := make(chan struct{})
		q.pool.Submit(depTask.QoS(), func() {
			q.runLifecycle(ctx, depHandle)
			q.finalize(depHandle)
			close(done)
		})
		eg.Go(func() error {
			<-done
			results <- result{t: depTask, ok: depTask.State().DidSucceed()}
			return nil
		})
	}

	_ = eg.Wait()

	var failedDep task.Task
	failed := false
	for i := 0; i < len(incomplete); i++ {
		r := <-results
		if !r.ok && !failed {
			failed, failedDep = true, r.t
		}
		dependent.DependencyFinished(r.t)
	}

	if failed {
		lock := q.transitions.forID(h.Task.ID())
		lock.Lock()
		h.Task.State().Fail(fmt.Sprintf("dependency(%s)", failedDep.ID()))
		lock.Unlock()
		return depFailed
	}
	return depResolved
}

func (q *TaskQueue) registerTaskIfAbsentPlain(t task.Task) *task.Handle {
	h, _ := q.registerTaskIfAbsent(t)
	return h
}
