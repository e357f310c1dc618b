// Package scheduler implements the Control API and the worker pool that
// together form the job-scheduling shell's core (spec §4.5-§4.9). It wires
// together the Core Table, the Ready Set, the Dependency Index, the Event
// Log and the Stats Aggregator behind a single mutex, following the
// readyvibes-Legion scheduler's "one struct, one lock, several owned
// collections" shape generalized to the full state machine.
package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spamprx/ThreadShell/internal/core"
	"github.com/spamprx/ThreadShell/internal/depindex"
	"github.com/spamprx/ThreadShell/internal/eventlog"
	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/queue"
	"github.com/spamprx/ThreadShell/internal/stats"
)

// ErrDependencyCycle is returned by SubmitWithDeps/SubmitScript when the
// requested dependency set would create a cycle among known jobs.
var ErrDependencyCycle = errors.New("scheduler: submission would create a dependency cycle")

// ErrNotFound is returned when a Control API call names an unknown job ID.
var ErrNotFound = errors.New("scheduler: no such job")

// ErrInvalidState is returned when a Control API call targets a job whose
// current status does not permit the requested transition.
var ErrInvalidState = errors.New("scheduler: job is not in a state that permits this operation")

// Config configures a Scheduler at construction time. It mirrors the YAML
// schema documented in SPEC_FULL.md §6. NumCores == 0 auto-detects via
// runtime.NumCPU() (spec §4.1); MaxConcurrentJobs == 0 resolves to
// 2*NumCores once NumCores itself has been resolved.
type Config struct {
	NumCores             int
	MaxConcurrentJobs    int
	SchedulingPolicy     string
	LogPath              string
	CPUAffinityEnabled   bool
	CompletedJobCapacity int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		NumCores:             runtime.NumCPU(),
		MaxConcurrentJobs:    2 * runtime.NumCPU(),
		SchedulingPolicy:     "priority_first",
		LogPath:              "logs/job_log.csv",
		CPUAffinityEnabled:   false,
		CompletedJobCapacity: 1000,
	}
}

// Scheduler is the single owning table for every job submitted during a
// process's lifetime, plus the worker pool that dispatches them. All
// mutable state lives behind mu; the Lifecycle Driver (execution of a
// single job) runs outside the lock except for the brief windows where it
// mutates the shared Job record (spec §9's re-architecture note).
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	allJobs    map[job.ID]*job.Job
	ready      *queue.Ready
	runningSet map[job.ID]*job.Job
	completed  []*job.Job
	depIndex   *depindex.Index
	coreTable  *core.Table

	nextID            job.ID
	completedCap      int
	maxConcurrentJobs int
	cpuAffinity       bool
	policyName        string
	groupCPUTimeMS    map[job.ID]int64

	counters stats.Counters
	startTime time.Time
	runID     string

	sink eventlog.EventSink
	log  *logrus.Logger
	rng  *rand.Rand

	running bool
	wg      sync.WaitGroup
}

// New constructs a Scheduler bound to sink for audit events and log for
// structured diagnostics. Neither the worker pool nor any goroutine is
// started until Start is called.
func New(cfg Config, sink eventlog.EventSink, log *logrus.Logger) (*Scheduler, error) {
	numCores := cfg.NumCores
	if numCores == 0 {
		numCores = runtime.NumCPU()
	}
	if numCores <= 0 {
		return nil, fmt.Errorf("scheduler: num_cores must be positive, got %d", cfg.NumCores)
	}

	maxConcurrent := cfg.MaxConcurrentJobs
	if maxConcurrent == 0 {
		maxConcurrent = 2 * numCores
	}
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("scheduler: max_concurrent_jobs must be positive, got %d", cfg.MaxConcurrentJobs)
	}
	if log == nil {
		log = logrus.New()
	}

	s := &Scheduler{
		allJobs:           make(map[job.ID]*job.Job),
		runningSet:        make(map[job.ID]*job.Job),
		depIndex:          depindex.New(),
		coreTable:         core.New(numCores),
		nextID:            1,
		completedCap:      cfg.CompletedJobCapacity,
		maxConcurrentJobs: maxConcurrent,
		cpuAffinity:       cfg.CPUAffinityEnabled,
		groupCPUTimeMS:    make(map[job.ID]int64),
		startTime:         time.Now(),
		runID:             uuid.NewString(),
		sink:              sink,
		log:               log,
		rng:               rand.New(rand.NewSource(1)),
	}

	policy, err := namedPolicy(cfg.SchedulingPolicy, s.fairShareGroupTime)
	if err != nil {
		return nil, err
	}
	s.policyName = cfg.SchedulingPolicy
	s.ready = queue.New(policy)
	s.cond = sync.NewCond(&s.mu)

	return s, nil
}

func namedPolicy(name string, groupTime queue.GroupCPUTime) (queue.Policy, error) {
	switch name {
	case "", "priority_first":
		return queue.PriorityFirstPolicy{}, nil
	case "shortest_job_first":
		return queue.ShortestJobFirstPolicy{}, nil
	case "round_robin":
		return queue.RoundRobinPolicy{}, nil
	case "fair_share":
		return queue.FairSharePolicy{GroupTime: groupTime}, nil
	default:
		return nil, fmt.Errorf("scheduler: unknown scheduling policy %q", name)
	}
}

// fairShareGroupTime is passed to FairSharePolicy as a closure. It is only
// ever invoked from within Ready methods, which are only ever called while
// s.mu is held, so it may read groupCPUTimeMS without its own lock.
func (s *Scheduler) fairShareGroupTime(j *job.Job) int64 {
	return s.groupCPUTimeMS[queue.GroupKey(j)]
}

// Start launches the worker pool: one goroutine per core, each running the
// dispatch loop described in spec §4.5.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	workers := s.coreTable.Len()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"run_id": s.runID, "workers": workers}).Info("scheduler starting")

	for w := 0; w < workers; w++ {
		s.wg.Add(1)
		go s.workerLoop(w)
	}
}

// Stop signals every worker to exit once its current job (if any) finishes
// and joins them, so running jobs are drained rather than interrupted. Once
// the workers have exited it best-effort sends SIGTERM to any process still
// recorded in the running set and clears that set.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cond.Broadcast()
	s.wg.Wait()

	s.mu.Lock()
	leftover := make([]int, 0, len(s.runningSet))
	for id, j := range s.runningSet {
		if j.ProcessID > 0 {
			leftover = append(leftover, j.ProcessID)
		}
		delete(s.runningSet, id)
	}
	s.mu.Unlock()

	for _, pid := range leftover {
		terminateProcess(pid)
	}
	s.log.WithField("run_id", s.runID).Info("scheduler stopped")
}

func (s *Scheduler) recordEvent(evt eventlog.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(evt); err != nil {
		s.log.WithError(err).Warn("failed to record event")
	}
}
