package config

// DefaultConfig returns a small built-in demo: two linked queues (so the
// demo always exercises the federated dependency path) seeded with a plain
// chain and a cross-queue dependency.
func DefaultConfig() *DemoConfig {
	return &DemoConfig{
		Queues: map[string]QueueConfig{
			"ingest": {
				Name:            "ingest",
				MaxSimultaneous: 2,
				LinkedTo:        []string{"publish"},
			},
			"publish": {
				Name:                       "publish",
				MaxSimultaneous:            1,
				LinkedTo:                   []string{"ingest"},
				IncreaseDependencyPriority: true,
				DecreaseDependentPriority:  true,
			},
		},
		Tasks: []TaskConfig{
			{ID: "fetch", Queue: "ingest", Priority: "medium", Duration: "150ms"},
			{ID: "transform", Queue: "ingest", Priority: "medium", DependsOn: []string{"fetch"}, Duration: "150ms"},
			{ID: "publish", Queue: "publish", Priority: "high", DependsOn: []string{"transform"}, Duration: "100ms"},
		},
	}
}
