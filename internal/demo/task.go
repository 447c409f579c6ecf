// Package demo provides a simulated task.Task the demo program seeds onto
// its queues from config.TaskConfig: it sleeps for a configured duration and
// then succeeds or fails by a configured rate, instead of doing real work.
package demo

import (
	"context"
	"math/rand"
	"time"

	"github.com/arjenvrh/taskqueue/priority"
	"github.com/arjenvrh/taskqueue/task"
	"github.com/arjenvrh/taskqueue/taskstate"
)

// SimulatedTask is a task.Task that sleeps for Duration, then fails with
// probability FailRate. It optionally depends on other SimulatedTasks,
// satisfying task.Dependent the way a real caller's task would.
type SimulatedTask struct {
	id        task.ID
	name      string
	priority  priority.Priority
	qos       task.QoS
	state     *taskstate.State
	duration  time.Duration
	failRate  float64
	rng       *rand.Rand
	deps      []task.Task
	remaining map[task.ID]task.Task
}

// NewSimulatedTask creates a simulated task with the given display name,
// priority, simulated run duration, and failure probability in [0, 1].
func NewSimulatedTask(name string, pri priority.Priority, duration time.Duration, failRate float64) *SimulatedTask {
	return &SimulatedTask{
		id:        task.NewID(),
		name:      name,
		priority:  pri,
		qos:       task.Default,
		state:     taskStateReady(),
		duration:  duration,
		failRate:  failRate,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		remaining: make(map[task.ID]task.Task),
	}
}

func taskStateReady() *taskstate.State {
	s := taskstate.Ready()
	return &s
}

// Name returns the task's display name, distinct from its opaque ID.
func (t *SimulatedTask) Name() string { return t.name }

// DependsOn records dep as a dependency this task must wait for.
func (t *SimulatedTask) DependsOn(dep *SimulatedTask) {
	t.deps = append(t.deps, dep)
	t.remaining[dep.ID()] = dep
}

func (t *SimulatedTask) ID() task.ID                      { return t.id }
func (t *SimulatedTask) Priority() priority.Priority       { return t.priority }
func (t *SimulatedTask) SetPriority(p priority.Priority)   { t.priority = p }
func (t *SimulatedTask) QoS() task.QoS                     { return t.qos }
func (t *SimulatedTask) State() *taskstate.State           { return t.state }

// Execute sleeps for the configured duration, then succeeds or fails
// according to the configured failure rate.
func (t *SimulatedTask) Execute(ctx context.Context) bool {
	select {
	case <-time.After(t.duration):
	case <-ctx.Done():
		return false
	}
	if t.failRate <= 0 {
		return true
	}
	return t.rng.Float64() >= t.failRate
}

// Dependencies returns every task this task was declared to depend on.
func (t *SimulatedTask) Dependencies() []task.Task { return t.deps }

// IncompleteDependencies returns the dependencies not yet finished.
func (t *SimulatedTask) IncompleteDependencies() []task.Task {
	out := make([]task.Task, 0, len(t.remaining))
	for _, d := range t.deps {
		if _, pending := t.remaining[d.ID()]; pending {
			out = append(out, d)
		}
	}
	return out
}

// UpNext returns the first incomplete dependency that has not failed or been
// cancelled, in declaration order.
func (t *SimulatedTask) UpNext() (task.Task, bool) {
	for _, d := range t.deps {
		if _, pending := t.remaining[d.ID()]; !pending {
			continue
		}
		if s := d.State(); s.DidFail() || s.WasCancelled() {
			continue
		}
		return d, true
	}
	return nil, false
}

// DependencyFinished marks dependency as resolved.
func (t *SimulatedTask) DependencyFinished(dependency task.Task) {
	delete(t.remaining, dependency.ID())
}
