package demo

import (
	"context"
	"testing"
	"time"

	"github.com/arjenvrh/taskqueue/priority"
)

func TestSimulatedTaskSucceedsWithZeroFailRate(t *testing.T) {
	task := NewSimulatedTask("fetch", priority.Medium, time.Millisecond, 0)
	if !task.Execute(context.Background()) {
		t.Fatal("expected task with fail rate 0 to always succeed")
	}
}

func TestSimulatedTaskFailsWithCertainFailRate(t *testing.T) {
	task := NewSimulatedTask("flaky", priority.Medium, time.Millisecond, 1)
	if task.Execute(context.Background()) {
		t.Fatal("expected task with fail rate 1 to always fail")
	}
}

func TestSimulatedTaskRespectsContextCancellation(t *testing.T) {
	task := NewSimulatedTask("slow", priority.Medium, time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if task.Execute(ctx) {
		t.Fatal("expected cancelled context to fail the task")
	}
}

func TestSimulatedTaskDependencyTracking(t *testing.T) {
	upstream := NewSimulatedTask("fetch", priority.Medium, time.Millisecond, 0)
	downstream := NewSimulatedTask("transform", priority.Medium, time.Millisecond, 0)
	downstream.DependsOn(upstream)

	if len(downstream.IncompleteDependencies()) != 1 {
		t.Fatalf("expected 1 incomplete dependency, got %d", len(downstream.IncompleteDependencies()))
	}

	next, ok := downstream.UpNext()
	if !ok || next.ID() != upstream.ID() {
		t.Fatal("expected upstream to be the next incomplete dependency")
	}

	downstream.DependencyFinished(upstream)
	if len(downstream.IncompleteDependencies()) != 0 {
		t.Fatal("expected no incomplete dependencies after DependencyFinished")
	}
	if _, ok := downstream.UpNext(); ok {
		t.Fatal("expected UpNext to report no more dependencies")
	}
}
