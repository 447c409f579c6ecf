package main

import (
	"testing"

	"github.com/arjenvrh/taskqueue/internal/config"
	"github.com/arjenvrh/taskqueue/internal/events"
)

func TestBuildQueuesLinksPeersSymmetrically(t *testing.T) {
	cfg := config.DefaultConfig()
	bus := events.NewEventBus()
	defer bus.Close()

	queues, err := buildQueues(cfg, bus)
	if err != nil {
		t.Fatalf("buildQueues failed: %v", err)
	}

	if len(queues) != 2 {
		t.Fatalf("expected 2 queues, got %d", len(queues))
	}

	ingest := queues["ingest"]
	publish := queues["publish"]
	if len(ingest.Peers()) != 1 || ingest.Peers()[0] != publish {
		t.Error("expected ingest linked to publish")
	}
	if len(publish.Peers()) != 1 || publish.Peers()[0] != ingest {
		t.Error("expected publish linked to ingest")
	}
}

func TestBuildQueuesRejectsUnknownPeer(t *testing.T) {
	cfg := &config.DemoConfig{
		Queues: map[string]config.QueueConfig{
			"a": {Name: "a", MaxSimultaneous: 1, LinkedTo: []string{"ghost"}},
		},
	}
	bus := events.NewEventBus()
	defer bus.Close()

	if _, err := buildQueues(cfg, bus); err == nil {
		t.Fatal("expected an error linking to an unknown queue")
	}
}

func TestSeedTasksWiresDependencies(t *testing.T) {
	cfg := config.DefaultConfig()
	bus := events.NewEventBus()
	defer bus.Close()

	queues, err := buildQueues(cfg, bus)
	if err != nil {
		t.Fatalf("buildQueues failed: %v", err)
	}

	if err := seedTasks(cfg, queues); err != nil {
		t.Fatalf("seedTasks failed: %v", err)
	}

	if len(queues["ingest"].Waiting()) != 2 {
		t.Errorf("expected 2 tasks waiting on ingest, got %d", len(queues["ingest"].Waiting()))
	}
	if len(queues["publish"].Waiting()) != 1 {
		t.Errorf("expected 1 task waiting on publish, got %d", len(queues["publish"].Waiting()))
	}
}

func TestSeedTasksRejectsUnknownDependency(t *testing.T) {
	cfg := &config.DemoConfig{
		Queues: map[string]config.QueueConfig{
			"a": {Name: "a", MaxSimultaneous: 1},
		},
		Tasks: []config.TaskConfig{
			{ID: "x", Queue: "a", Priority: "medium", DependsOn: []string{"ghost"}},
		},
	}
	bus := events.NewEventBus()
	defer bus.Close()

	queues, err := buildQueues(cfg, bus)
	if err != nil {
		t.Fatalf("buildQueues failed: %v", err)
	}

	if err := seedTasks(cfg, queues); err == nil {
		t.Fatal("expected an error seeding a task with an unknown dependency")
	}
}

func TestParsePriorityDefaultsToMedium(t *testing.T) {
	if parsePriority("not-a-real-band").Band().String() != "medium" {
		t.Error("expected unrecognized priority name to default to medium")
	}
}
