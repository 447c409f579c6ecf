package queue

import (
	"testing"
	"time"

	"github.com/arjenvrh/taskqueue/priority"
	"github.com/arjenvrh/taskqueue/task"
)

// --- scenario 5: cross-queue linked dependency --------------------------

func TestScenarioCrossQueueLinkedDependency(t *testing.T) {
	rec := &recorder{}
	t1 := newSimpleTask("T1", priority.Medium, rec, true)
	t2 := &depTask{simpleTask: *newSimpleTask("T2", priority.Medium, rec, true), deps: []task.Task{t1}}

	q1 := NewLinked("q1", 1, DependencyOptions{})
	q2 := NewLinked("q2", 1, DependencyOptions{}, q1)

	q1.Add(t1)
	q2.Add(t2)
	q1.Start()
	q2.Start()

	if !q1.WaitWall(2 * time.Second) {
		t.Fatal("q1 did not drain in time")
	}
	if !q2.WaitWall(2 * time.Second) {
		t.Fatal("q2 did not drain in time")
	}

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "T1" || got[1] != "T2" {
		t.Fatalf("completion order = %v, want [T1 T2]", got)
	}
	if !t1.State().DidSucceed() || !t2.State().DidSucceed() {
		t.Fatalf("states: t1=%v t2=%v, want both succeeded", t1.State(), t2.State())
	}
	if len(t2.finishedDeps()) != 1 {
		t.Fatalf("DependencyFinished called %d times, want 1", len(t2.finishedDeps()))
	}
}

func TestScenarioCrossQueueDependencyPriorityBumps(t *testing.T) {
	rec := &recorder{}
	t1 := newSimpleTask("T1", priority.Low, rec, true)
	t2 := &depTask{simpleTask: *newSimpleTask("T2", priority.High, rec, true), deps: []task.Task{t1}}

	opts := DependencyOptions{IncreaseDependencyPriority: true, DecreaseDependentPriority: true}
	q1 := NewLinked("q1", 1, opts)
	q2 := NewLinked("q2", 1, opts, q1)

	q1.Add(t1)
	q2.Add(t2)
	q1.Start()
	q2.Start()

	if !q1.WaitWall(2*time.Second) || !q2.WaitWall(2*time.Second) {
		t.Fatal("queues did not drain in time")
	}

	if t1.Priority() != priority.Medium {
		t.Fatalf("T1 priority = %v, want bumped to medium", t1.Priority())
	}
	if t2.Priority() != priority.Medium {
		t.Fatalf("T2 priority = %v, want lowered to medium", t2.Priority())
	}
}

func TestLinkIsSymmetricAndIdempotent(t *testing.T) {
	q1 := NewLinked("q1", 1, DependencyOptions{})
	q2 := NewLinked("q2", 1, DependencyOptions{})

	q1.Link(q2)
	q1.Link(q2) // idempotent
	q2.Link(q1) // symmetric, also idempotent

	if len(q1.Peers()) != 1 || q1.Peers()[0] != q2 {
		t.Fatalf("q1.Peers() = %v, want [q2]", q1.Peers())
	}
	if len(q2.Peers()) != 1 || q2.Peers()[0] != q1 {
		t.Fatalf("q2.Peers() = %v, want [q1]", q2.Peers())
	}
}

func TestLinkSelfIsNoop(t *testing.T) {
	q1 := NewLinked("q1", 1, DependencyOptions{})
	q1.Link(q1)
	if len(q1.Peers()) != 0 {
		t.Fatalf("q1.Peers() = %v, want none", q1.Peers())
	}
}

func TestFederationValidateAcceptsAcyclicGraph(t *testing.T) {
	rec := &recorder{}
	t1 := newSimpleTask("T1", priority.Medium, rec, true)
	t2 := &depTask{simpleTask: *newSimpleTask("T2", priority.Medium, rec, true), deps: []task.Task{t1}}

	q1 := NewLinked("q1", 1, DependencyOptions{})
	q2 := NewLinked("q2", 1, DependencyOptions{}, q1)
	q1.Add(t1)
	q2.Add(t2)

	fed := NewFederation(q1, q2)
	if len(fed.Members()) != 2 {
		t.Fatalf("Members() = %v, want 2 queues", fed.Members())
	}
	if err := fed.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestFederationValidateDetectsCycle(t *testing.T) {
	rec := &recorder{}
	a := &depTask{simpleTask: *newSimpleTask("A", priority.Medium, rec, true)}
	b := &depTask{simpleTask: *newSimpleTask("B", priority.Medium, rec, true)}
	a.deps = []task.Task{b}
	b.deps = []task.Task{a}

	q1 := NewLinked("q1", 1, DependencyOptions{})
	q1.Add(a, b)

	fed := NewFederation(q1)
	if err := fed.Validate(); err == nil {
		t.Fatal("Validate() = nil, want a cycle error")
	}
}
