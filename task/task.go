// Package task defines the capability contracts a caller's unit of work must
// (or may) satisfy to run on a TaskQueue, plus the capability record the
// runtime derives from them once, at registration time.
package task

import (
	"context"

	"github.com/arjenvrh/taskqueue/priority"
	"github.com/arjenvrh/taskqueue/taskstate"
)

// Task is the contract every unit of work must satisfy.
type Task interface {
	ID() ID
	Priority() priority.Priority
	SetPriority(priority.Priority)
	QoS() QoS
	State() *taskstate.State
	Execute(ctx context.Context) bool
}

// Configurable tasks run an extra configure stage between prepare and
// execute; a false return fails the task.
type Configurable interface {
	Configure(ctx context.Context) bool
}

// Pausable tasks can be asked to pause and resume while currently(executing)
// / done(pausing) respectively.
type Pausable interface {
	Pause(ctx context.Context) bool
	Resume(ctx context.Context) bool
}

// Cancellable tasks can be asked to cancel while currently(executing).
type Cancellable interface {
	Cancel(ctx context.Context) bool
}

// Dependent tasks cannot execute until one or more other tasks have reached
// done(executing). Dependencies are exposed as task references; the runtime
// resolves each to an ID and stores it in an id-keyed table the first time it
// is seen, so no long-lived cyclic object graph is retained.
type Dependent interface {
	Dependencies() []Task
	IncompleteDependencies() []Task
	// UpNext returns the first incomplete, non-failed dependency, if any.
	UpNext() (Task, bool)
	DependencyFinished(dependency Task)
}

// Finisher receives the post-terminal, no-argument callback: invoked exactly
// once after a task reaches a terminal state.
type Finisher interface {
	Finish()
}
