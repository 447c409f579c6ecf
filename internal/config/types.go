package config

// QueueConfig describes one named queue the demo program should create: its
// concurrency cap, whether it participates in a federation (and with whom),
// and the priority-bump options used if so.
type QueueConfig struct {
	Name                       string   `json:"name"`
	MaxSimultaneous            int      `json:"max_simultaneous"`
	LinkedTo                   []string `json:"linked_to,omitempty"`
	IncreaseDependencyPriority bool     `json:"increase_dependency_priority,omitempty"`
	DecreaseDependentPriority  bool     `json:"decrease_dependent_priority,omitempty"`
}

// TaskConfig describes one demo task: which queue it runs on, its priority
// band, and the ids (within this config) of tasks it depends on.
type TaskConfig struct {
	ID        string   `json:"id"`
	Queue     string   `json:"queue"`
	Priority  string   `json:"priority"` // one of unimportant/low/medium/high/critical
	DependsOn []string `json:"depends_on,omitempty"`
	FailRate  float64  `json:"fail_rate,omitempty"` // 0..1, simulated failure probability
	Duration  string   `json:"duration,omitempty"`  // parsed as a time.Duration, e.g. "200ms"
}

// DemoConfig is the top-level configuration for cmd/taskqueue-demo: a set of
// named queues and the demo tasks to seed them with. It has no bearing on the
// library packages (priority, taskstate, task, queue), which take no
// configuration beyond their constructor arguments.
type DemoConfig struct {
	Queues map[string]QueueConfig `json:"queues"`
	Tasks  []TaskConfig           `json:"tasks"`
}
