package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/spamprx/ThreadShell/internal/config"
	"github.com/spamprx/ThreadShell/internal/eventlog"
	"github.com/spamprx/ThreadShell/internal/scheduler"
)

// bootstrap loads the config file, opens the CSV audit log, and constructs
// a Scheduler. A logger-init or config-load failure is fatal for the
// process (spec §7); the caller is expected to print the error and exit.
func bootstrap(path string) (*scheduler.Scheduler, config.Config, error) {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	sink, err := eventlog.NewCSVSink(cfg.LogPath)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening audit log: %w", err)
	}

	sched, err := scheduler.New(cfg.SchedulerConfig(), sink, log)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("constructing scheduler: %w", err)
	}
	return sched, cfg, nil
}
