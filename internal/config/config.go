// Package config loads the YAML configuration file documented in
// SPEC_FULL.md §6, following the Load/validate shape of
// adiu19-chorus/config/config.go.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spamprx/ThreadShell/internal/scheduler"
)

// Config is the on-disk shape of configs/threadshell.yaml.
type Config struct {
	NumCores             int    `yaml:"num_cores"`
	MaxConcurrentJobs    int    `yaml:"max_concurrent_jobs"`
	SchedulingPolicy     string `yaml:"scheduling_policy"`
	LogPath              string `yaml:"log_path"`
	CPUAffinity          bool   `yaml:"cpu_affinity"`
	CompletedJobCapacity int    `yaml:"completed_job_capacity"`
	MonitoringAddr       string `yaml:"monitoring_addr"`
}

// Default mirrors scheduler.DefaultConfig plus the one ambient field only
// config owns (the monitoring address).
func Default() Config {
	sc := scheduler.DefaultConfig()
	return Config{
		NumCores:             sc.NumCores,
		MaxConcurrentJobs:    sc.MaxConcurrentJobs,
		SchedulingPolicy:     sc.SchedulingPolicy,
		LogPath:              sc.LogPath,
		CPUAffinity:          sc.CPUAffinityEnabled,
		CompletedJobCapacity: sc.CompletedJobCapacity,
		MonitoringAddr:       ":8080",
	}
}

// Load reads and parses the YAML config file at path, filling in
// documented defaults for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects only impossible values. num_cores == 0 and
// max_concurrent_jobs == 0 are the documented auto-detect sentinels (spec
// §6: 0 = runtime.NumCPU(), 0 = 2*num_cores); resolving them is
// scheduler.New's job, not config's.
func (c Config) validate() error {
	if c.NumCores < 0 {
		return fmt.Errorf("config: num_cores must not be negative, got %d", c.NumCores)
	}
	if c.MaxConcurrentJobs < 0 {
		return fmt.Errorf("config: max_concurrent_jobs must not be negative, got %d", c.MaxConcurrentJobs)
	}
	switch c.SchedulingPolicy {
	case "priority_first", "shortest_job_first", "round_robin", "fair_share":
	default:
		return fmt.Errorf("config: unknown scheduling_policy %q", c.SchedulingPolicy)
	}
	if c.LogPath == "" {
		return fmt.Errorf("config: log_path must not be empty")
	}
	return nil
}

// SchedulerConfig projects the loaded Config into scheduler.Config.
func (c Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		NumCores:             c.NumCores,
		MaxConcurrentJobs:    c.MaxConcurrentJobs,
		SchedulingPolicy:     c.SchedulingPolicy,
		LogPath:              c.LogPath,
		CPUAffinityEnabled:   c.CPUAffinity,
		CompletedJobCapacity: c.CompletedJobCapacity,
	}
}
