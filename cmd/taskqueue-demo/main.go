package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arjenvrh/taskqueue/internal/config"
	"github.com/arjenvrh/taskqueue/internal/demo"
	"github.com/arjenvrh/taskqueue/internal/events"
	"github.com/arjenvrh/taskqueue/internal/tui"
	"github.com/arjenvrh/taskqueue/priority"
	"github.com/arjenvrh/taskqueue/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus()
	defer bus.Close()

	queues, err := buildQueues(cfg, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building queues: %v\n", err)
		os.Exit(1)
	}

	if err := seedTasks(cfg, queues); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding tasks: %v\n", err)
		os.Exit(1)
	}

	for _, q := range queues {
		q.Start()
	}

	model := tui.New(bus, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		log.Println("Shutdown signal received, cleaning up...")

		for _, q := range queues {
			q.Cancel(true)
		}

		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			if err != nil {
				log.Printf("TUI exit error: %v", err)
			}
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing exit")
		}
	}

	log.Println("Shutdown complete")
}

// buildQueues constructs one queue.LinkedTaskQueue per config.QueueConfig and
// wires every queue named in LinkedTo into the same federation, so a
// dependency declared across queue boundaries in the task list resolves.
func buildQueues(cfg *config.DemoConfig, bus *events.EventBus) (map[string]*queue.LinkedTaskQueue, error) {
	queues := make(map[string]*queue.LinkedTaskQueue, len(cfg.Queues))

	for name, qc := range cfg.Queues {
		opts := queue.DependencyOptions{
			IncreaseDependencyPriority: qc.IncreaseDependencyPriority,
			DecreaseDependentPriority:  qc.DecreaseDependentPriority,
		}
		queues[name] = queue.NewLinkedWithOptions(name, qc.MaxSimultaneous, opts, []queue.Option{queue.WithEventBus(bus)})
	}

	for name, qc := range cfg.Queues {
		for _, peerName := range qc.LinkedTo {
			peer, ok := queues[peerName]
			if !ok {
				return nil, fmt.Errorf("queue %q links to unknown queue %q", name, peerName)
			}
			queues[name].Link(peer)
		}
	}

	return queues, nil
}

// seedTasks builds a demo.SimulatedTask per config.TaskConfig, wires its
// DependsOn references (which may span queues, resolved through whichever
// queue currently holds that task), and adds each to its configured queue.
func seedTasks(cfg *config.DemoConfig, queues map[string]*queue.LinkedTaskQueue) error {
	tasks := make(map[string]*demo.SimulatedTask, len(cfg.Tasks))

	for _, tc := range cfg.Tasks {
		duration, err := time.ParseDuration(orDefault(tc.Duration, "100ms"))
		if err != nil {
			return fmt.Errorf("task %q: parsing duration: %w", tc.ID, err)
		}
		tasks[tc.ID] = demo.NewSimulatedTask(tc.ID, parsePriority(tc.Priority), duration, tc.FailRate)
	}

	for _, tc := range cfg.Tasks {
		t := tasks[tc.ID]
		for _, depID := range tc.DependsOn {
			dep, ok := tasks[depID]
			if !ok {
				return fmt.Errorf("task %q depends on unknown task %q", tc.ID, depID)
			}
			t.DependsOn(dep)
		}
	}

	for _, tc := range cfg.Tasks {
		q, ok := queues[tc.Queue]
		if !ok {
			return fmt.Errorf("task %q assigned to unknown queue %q", tc.ID, tc.Queue)
		}
		q.Add(tasks[tc.ID])
	}

	return nil
}

func parsePriority(name string) priority.Priority {
	switch name {
	case "unimportant":
		return priority.Unimportant
	case "low":
		return priority.Low
	case "high":
		return priority.High
	case "critical":
		return priority.Critical
	default:
		return priority.Medium
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
