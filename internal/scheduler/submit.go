package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spamprx/ThreadShell/internal/depindex"
	"github.com/spamprx/ThreadShell/internal/eventlog"
	"github.com/spamprx/ThreadShell/internal/job"
)

// Submit accepts a single interactive job with no dependencies.
func (s *Scheduler) Submit(command string, priority job.Priority) (*job.Job, error) {
	return s.submit(command, priority, job.Interactive, nil)
}

// SubmitWithDeps accepts a job that must wait for every job in deps to
// reach Completed before it becomes eligible for dispatch. Returns
// ErrDependencyCycle if deps would create a cycle among known jobs.
func (s *Scheduler) SubmitWithDeps(command string, priority job.Priority, deps []job.ID) (*job.Job, error) {
	return s.submit(command, priority, job.Batch, deps)
}

func (s *Scheduler) submit(command string, priority job.Priority, jtype job.Type, deps []job.ID) (*job.Job, error) {
	s.mu.Lock()

	id := s.nextID
	s.nextID++

	j := job.New(id, command, priority)
	j.Type = jtype

	if len(deps) > 0 {
		if depindex.WouldCycle(id, deps, s.lookupDepsLocked) {
			s.mu.Unlock()
			return nil, ErrDependencyCycle
		}
		for _, d := range deps {
			j.Dependencies[d] = struct{}{}
		}
	}

	s.allJobs[id] = j
	s.counters.TotalSubmitted++

	if s.dependenciesSatisfiedLocked(j) {
		j.Status = job.Pending
		s.ready.Push(j)
	} else {
		j.Status = job.WaitingDeps
		s.depIndex.Add(id, deps)
		s.addDependentsLocked(id, deps)
	}

	snap := eventlog.FromJob(j, eventlog.Submitted)
	s.mu.Unlock()

	s.recordEvent(snap)
	s.cond.Broadcast()
	return j, nil
}

// SubmitScript parses the job-script file at path (spec §6) and submits the
// resulting job, applying its declared name, limits and dependencies.
func (s *Scheduler) SubmitScript(path string) (*job.Job, error) {
	script, err := job.ParseScript(path)
	if err != nil {
		return nil, err
	}

	j, err := s.submit(script.Command, script.Priority, job.Batch, script.Dependencies)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	j.JobName = script.JobName
	j.Limits = script.Limits()
	s.mu.Unlock()

	return j, nil
}

// SubmitArray expands template into count independent jobs, substituting
// "$ARRAY_ID" with each task's zero-based index (spec §4.7). The jobs share
// an ArrayJobID (the first task's ID) for fair-share grouping and reporting.
func (s *Scheduler) SubmitArray(template string, priority job.Priority, count int) ([]*job.Job, error) {
	if count <= 0 {
		return nil, fmt.Errorf("scheduler: array job count must be positive, got %d", count)
	}

	jobs := make([]*job.Job, 0, count)
	var arrayID job.ID

	for i := 0; i < count; i++ {
		command := strings.ReplaceAll(template, "$ARRAY_ID", strconv.Itoa(i))
		j, err := s.submit(command, priority, job.ArrayJob, nil)
		if err != nil {
			return jobs, err
		}

		s.mu.Lock()
		if i == 0 {
			arrayID = j.ID
		}
		j.ArrayJobID = arrayID
		j.ArrayTaskID = i
		s.mu.Unlock()

		jobs = append(jobs, j)
	}
	return jobs, nil
}

// dependenciesSatisfiedLocked reports whether every dependency of j has
// reached Completed. Must be called with s.mu held.
func (s *Scheduler) dependenciesSatisfiedLocked(j *job.Job) bool {
	for d := range j.Dependencies {
		dep, ok := s.allJobs[d]
		if !ok || dep.Status != job.Completed {
			return false
		}
	}
	return true
}

// lookupDepsLocked returns the dependency set of a known job ID, for
// depindex.WouldCycle. Must be called with s.mu held.
func (s *Scheduler) lookupDepsLocked(id job.ID) ([]job.ID, bool) {
	j, ok := s.allJobs[id]
	if !ok {
		return nil, false
	}
	out := make([]job.ID, 0, len(j.Dependencies))
	for d := range j.Dependencies {
		out = append(out, d)
	}
	return out, true
}

// promoteDependentsLocked re-checks every job waiting on completedID and
// moves any whose dependencies are now all satisfied into the Ready Set.
// Must be called with s.mu held.
func (s *Scheduler) promoteDependentsLocked(completedID job.ID) {
	for _, waiterID := range s.depIndex.Candidates(completedID) {
		waiter, ok := s.allJobs[waiterID]
		if !ok || waiter.Status != job.WaitingDeps {
			continue
		}
		if !s.dependenciesSatisfiedLocked(waiter) {
			continue
		}
		deps := make([]job.ID, 0, len(waiter.Dependencies))
		for d := range waiter.Dependencies {
			deps = append(deps, d)
		}
		s.depIndex.Remove(waiterID, deps)
		s.removeDependentsLocked(waiterID, deps)
		waiter.Status = job.Pending
		s.ready.Push(waiter)
	}
}

// addDependentsLocked records waiterID in the Dependents set of each of its
// dependencies, mirroring depIndex.Add. Must be called with s.mu held.
func (s *Scheduler) addDependentsLocked(waiterID job.ID, deps []job.ID) {
	for _, d := range deps {
		if dep, ok := s.allJobs[d]; ok {
			dep.Dependents[waiterID] = struct{}{}
		}
	}
}

// removeDependentsLocked undoes addDependentsLocked once waiterID is no
// longer waiting on deps, mirroring depIndex.Remove. Must be called with
// s.mu held.
func (s *Scheduler) removeDependentsLocked(waiterID job.ID, deps []job.ID) {
	for _, d := range deps {
		if dep, ok := s.allJobs[d]; ok {
			delete(dep.Dependents, waiterID)
		}
	}
}
