package queue

import (
	"fmt"
	"log"

	"github.com/arjenvrh/taskqueue/task"
)

// ErrDependencyNotFound is the unrecoverable condition of spec §7: a
// dependency referenced by id was not present anywhere in a LinkedTaskQueue's
// federation. Local mode never raises it, since a plain TaskQueue registers
// and runs an unknown dependency itself. The dependent can never make
// progress, so this is reported as fatal rather than reflected in task state.
type ErrDependencyNotFound struct {
	Dependent  task.ID
	Dependency task.ID
}

func (e *ErrDependencyNotFound) Error() string {
	return fmt.Sprintf("taskqueue: task %s depends on %s, which was not found in this queue or its federation", e.Dependent, e.Dependency)
}

// FatalHandler is invoked when ErrDependencyNotFound is discovered. It
// defaults to log.Fatalf, terminating the process, per spec §6 ("must
// terminate the process or equivalent"). Callers such as tests can replace
// it to observe the condition instead of exiting the process.
var FatalHandler = func(err error) {
	log.Fatalf("%v", err)
}
