package events

import (
	"time"

	"github.com/arjenvrh/taskqueue/task"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask  = "task"
	TopicQueue = "queue"
)

// Event type constants
const (
	EventTypeTaskStateChanged = "task.state_changed"
	EventTypeTaskSucceeded    = "task.succeeded"
	EventTypeTaskFailed       = "task.failed"
	EventTypeQueueProgress    = "queue.progress"
)

// TaskStateChangedEvent is published when a task reaches a terminal state or
// is paused or resumed, carrying the String() form of its new state.
type TaskStateChangedEvent struct {
	ID        task.ID
	Queue     string
	State     string
	Timestamp time.Time
}

func (e TaskStateChangedEvent) EventType() string { return EventTypeTaskStateChanged }
func (e TaskStateChangedEvent) TaskID() string    { return e.ID.String() }

// TaskSucceededEvent is published when a task reaches done(executing).
type TaskSucceededEvent struct {
	ID        task.ID
	Queue     string
	Timestamp time.Time
}

func (e TaskSucceededEvent) EventType() string { return EventTypeTaskSucceeded }
func (e TaskSucceededEvent) TaskID() string    { return e.ID.String() }

// TaskFailedEvent is published when a task reaches any failed(...) state.
type TaskFailedEvent struct {
	ID        task.ID
	Queue     string
	Reason    string
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID.String() }

// QueueProgressEvent is published after every dispatch decision with a
// point-in-time tally of a single queue's task views.
type QueueProgressEvent struct {
	Queue     string
	Waiting   int
	Running   int
	Succeeded int
	Failed    int
	Timestamp time.Time
}

func (e QueueProgressEvent) EventType() string { return EventTypeQueueProgress }
func (e QueueProgressEvent) TaskID() string    { return "" }
