package scheduler

import (
	"os"
	"syscall"

	"github.com/spamprx/ThreadShell/internal/eventlog"
	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/stats"
)

// Kill terminates a running job (spec §4.6): SIGTERM is sent to its process
// and its status is immediately flipped to the terminal Killed state,
// regardless of when (or whether) the process actually exits. Only jobs
// currently Running can be killed.
func (s *Scheduler) Kill(id job.ID) error {
	s.mu.Lock()
	j, ok := s.runningSet[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if j.Status != job.Running {
		s.mu.Unlock()
		return ErrInvalidState
	}
	j.Status = job.Killed
	s.counters.TotalKilled++
	pid := j.ProcessID
	snap := eventlog.FromJob(j, eventlog.Killed)
	s.mu.Unlock()

	terminateProcess(pid)
	s.recordEvent(snap)
	s.cond.Broadcast()
	return nil
}

// Suspend sends SIGSTOP to a running job's process and marks it Suspended.
// The worker goroutine executing it remains blocked in cmd.Wait() until the
// process resumes and exits; suspension is not logged to the audit trail
// (spec §4.4 only names the five terminal/started transitions).
func (s *Scheduler) Suspend(id job.ID) error {
	s.mu.Lock()
	j, ok := s.runningSet[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if j.Status != job.Running {
		s.mu.Unlock()
		return ErrInvalidState
	}
	j.Status = job.Suspended
	pid := j.ProcessID
	s.mu.Unlock()

	signalProcess(pid, syscall.SIGSTOP)
	return nil
}

// Resume sends SIGCONT to a suspended job's process and marks it Running.
func (s *Scheduler) Resume(id job.ID) error {
	s.mu.Lock()
	j, ok := s.runningSet[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if j.Status != job.Suspended {
		s.mu.Unlock()
		return ErrInvalidState
	}
	j.Status = job.Running
	pid := j.ProcessID
	s.mu.Unlock()

	signalProcess(pid, syscall.SIGCONT)
	return nil
}

// ChangePriority updates a still-pending job's priority. It only succeeds
// for jobs in Pending status; the Ready Set's heap invariant is not
// re-established immediately (spec §5: the queue tolerates staleness in
// exchange for O(log n) operations, so a subsequent Pop may not reflect the
// new priority until the heap naturally rebalances around it).
func (s *Scheduler) ChangePriority(id job.ID, priority job.Priority) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.allJobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status != job.Pending {
		return ErrInvalidState
	}
	j.Priority = priority
	return nil
}

// SetSchedulingPolicy swaps the active Ready Set ordering policy.
func (s *Scheduler) SetSchedulingPolicy(name string) error {
	policy, err := namedPolicy(name, s.fairShareGroupTime)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.policyName = name
	s.ready.SetPolicy(policy)
	s.mu.Unlock()
	return nil
}

// SetMaxConcurrentJobs adjusts how many jobs may run at once. Workers
// blocked waiting for a free slot re-check the new limit immediately.
func (s *Scheduler) SetMaxConcurrentJobs(n int) error {
	if n <= 0 {
		return ErrInvalidState
	}
	s.mu.Lock()
	s.maxConcurrentJobs = n
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// EnableCPUAffinity records whether cores should be treated as pinned
// resources for reporting purposes. Nothing in this design actually pins an
// OS thread to a core (spec §9: CoreUtilization stays a synthetic model).
func (s *Scheduler) EnableCPUAffinity(enabled bool) {
	s.mu.Lock()
	s.cpuAffinity = enabled
	s.mu.Unlock()
}

// Jobs returns a snapshot of every job the scheduler has ever seen.
func (s *Scheduler) Jobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, 0, len(s.allJobs))
	for _, j := range s.allJobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// Job returns a snapshot of a single job by ID.
func (s *Scheduler) Job(id job.ID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.allJobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Snapshot(), nil
}

// ActiveJobs returns a snapshot of every currently running job.
func (s *Scheduler) ActiveJobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, 0, len(s.runningSet))
	for _, j := range s.runningSet {
		out = append(out, j.Snapshot())
	}
	return out
}

// CompletedJobs returns a snapshot of the bounded completed-job history.
func (s *Scheduler) CompletedJobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, len(s.completed))
	for i, j := range s.completed {
		out[i] = j.Snapshot()
	}
	return out
}

// QueueLength returns the number of jobs currently in the Ready Set.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready.Len()
}

// SchedulingPolicy returns the name of the active ordering policy.
func (s *Scheduler) SchedulingPolicy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policyName
}

// CoreUtilization returns one synthetic utilization percentage per logical
// core: 0 for an idle core, the assigned job's simulated CPUUtilization
// otherwise (spec §9: this is a reporting model, not a measurement).
func (s *Scheduler) CoreUtilization() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, s.coreTable.Len())
	for _, j := range s.runningSet {
		if j.AssignedCoreID >= 0 && j.AssignedCoreID < len(out) {
			out[j.AssignedCoreID] = j.CPUUtilization
		}
		for _, c := range j.AssignedCores {
			if c >= 0 && c < len(out) {
				out[c] = j.CPUUtilization
			}
		}
	}
	return out
}

// SystemStats computes the current Stats Aggregator snapshot (spec §4.9).
func (s *Scheduler) SystemStats() stats.Snapshot {
	s.mu.Lock()
	counters := s.counters
	completed := make([]*job.Job, len(s.completed))
	copy(completed, s.completed)
	running := make([]*job.Job, 0, len(s.runningSet))
	for _, j := range s.runningSet {
		running = append(running, j)
	}
	start, runID := s.startTime, s.runID
	s.mu.Unlock()

	return stats.Compute(counters, completed, running, start, runID)
}

func terminateProcess(pid int) {
	signalProcess(pid, syscall.SIGTERM)
}

func signalProcess(pid int, sig syscall.Signal) {
	if pid <= 0 {
		return
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Signal(sig)
}
