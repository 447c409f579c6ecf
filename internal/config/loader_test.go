package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  *DemoConfig
		projectConfig *DemoConfig
		expectQueues  int
		expectTasks   int
		checkQueue    string
		expectCap     int
	}{
		{
			name:          "No config files - returns defaults",
			expectQueues:  2,
			expectTasks:   3,
		},
		{
			name: "Global only - adds new queue",
			globalConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"archive": {Name: "archive", MaxSimultaneous: 4},
				},
			},
			expectQueues: 3, // 2 defaults + 1 new
			expectTasks:  3,
			checkQueue:   "archive",
			expectCap:    4,
		},
		{
			name: "Project only - overrides queue cap",
			projectConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"ingest": {Name: "ingest", MaxSimultaneous: 10},
				},
			},
			expectQueues: 2, // same count, ingest modified
			expectTasks:  3,
			checkQueue:   "ingest",
			expectCap:    10,
		},
		{
			name: "Both with merge - global adds, project overrides",
			globalConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"archive": {Name: "archive", MaxSimultaneous: 4},
				},
			},
			projectConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"ingest": {Name: "ingest", MaxSimultaneous: 10},
				},
			},
			expectQueues: 3,
			expectTasks:  3,
			checkQueue:   "ingest",
			expectCap:    10,
		},
		{
			name: "Project overrides global - project wins",
			globalConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"ingest": {Name: "ingest", MaxSimultaneous: 5},
				},
			},
			projectConfig: &DemoConfig{
				Queues: map[string]QueueConfig{
					"ingest": {Name: "ingest", MaxSimultaneous: 7},
				},
			},
			expectQueues: 2,
			expectTasks:  3,
			checkQueue:   "ingest",
			expectCap:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != nil {
				globalPath = filepath.Join(tmpDir, "global.json")
				data, err := json.Marshal(tt.globalConfig)
				if err != nil {
					t.Fatalf("marshaling global config: %v", err)
				}
				if err := os.WriteFile(globalPath, data, 0644); err != nil {
					t.Fatalf("writing global config: %v", err)
				}
			}

			projectPath := ""
			if tt.projectConfig != nil {
				projectPath = filepath.Join(tmpDir, "project.json")
				data, err := json.Marshal(tt.projectConfig)
				if err != nil {
					t.Fatalf("marshaling project config: %v", err)
				}
				if err := os.WriteFile(projectPath, data, 0644); err != nil {
					t.Fatalf("writing project config: %v", err)
				}
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := len(cfg.Queues); got != tt.expectQueues {
				t.Errorf("queues count = %d, want %d", got, tt.expectQueues)
			}
			if got := len(cfg.Tasks); got != tt.expectTasks {
				t.Errorf("tasks count = %d, want %d", got, tt.expectTasks)
			}

			if tt.checkQueue != "" {
				q, exists := cfg.Queues[tt.checkQueue]
				if !exists {
					t.Fatalf("expected queue %q not found", tt.checkQueue)
				}
				if q.MaxSimultaneous != tt.expectCap {
					t.Errorf("queue %q max_simultaneous = %d, want %d", tt.checkQueue, q.MaxSimultaneous, tt.expectCap)
				}
			}
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()

	globalPath := filepath.Join(tmpDir, "global.json")
	if err := os.WriteFile(globalPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	_, err := Load(globalPath, "")
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
	if err.Error() == "" {
		t.Error("expected descriptive error message")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if len(cfg.Queues) != 2 {
		t.Errorf("queues count = %d, want 2", len(cfg.Queues))
	}
	if len(cfg.Tasks) != 3 {
		t.Errorf("tasks count = %d, want 3", len(cfg.Tasks))
	}
}
