package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spamprx/ThreadShell/internal/scheduler"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadshell.yaml")
	if err := os.WriteFile(path, []byte("num_cores: 8\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumCores != 8 {
		t.Fatalf("expected num_cores 8, got %d", cfg.NumCores)
	}
	if cfg.SchedulingPolicy != "priority_first" {
		t.Fatalf("expected default scheduling_policy, got %q", cfg.SchedulingPolicy)
	}
	if cfg.MaxConcurrentJobs == 0 {
		t.Fatalf("expected default max_concurrent_jobs to survive")
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadshell.yaml")
	content := "num_cores: 2\nmax_concurrent_jobs: 2\nscheduling_policy: made_up\nlog_path: x.csv\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown scheduling_policy")
	}
}

func TestLoadAllowsAutoDetectSentinels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadshell.yaml")
	content := "num_cores: 0\nmax_concurrent_jobs: 0\nscheduling_policy: priority_first\nlog_path: x.csv\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumCores != 0 || cfg.MaxConcurrentJobs != 0 {
		t.Fatalf("expected sentinels to survive config validation, got %+v", cfg)
	}
	if _, err := scheduler.New(cfg.SchedulerConfig(), nil, nil); err != nil {
		t.Fatalf("scheduler.New should resolve auto-detect sentinels, got: %v", err)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/threadshell.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
