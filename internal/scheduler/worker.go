package scheduler

import (
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spamprx/ThreadShell/internal/eventlog"
	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/queue"
)

// workerLoop is one worker's dispatch loop (spec §4.5): wait for a ready
// job and a free execution slot, pop it, run it to completion, then fold
// its terminal state back into the shared tables before looping.
func (s *Scheduler) workerLoop(id int) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for s.running && (s.ready.Len() == 0 || len(s.runningSet) >= s.maxConcurrentJobs) {
			s.cond.Wait()
		}
		if !s.running {
			s.mu.Unlock()
			return
		}
		j := s.ready.Pop()
		s.runningSet[j.ID] = j
		s.mu.Unlock()

		s.runLifecycle(j, id)

		s.mu.Lock()
		delete(s.runningSet, j.ID)
		s.finishLocked(j)
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// finishLocked folds a job's terminal state into the completed set, stats
// counters, dependency graph and core table. Must be called with s.mu held.
func (s *Scheduler) finishLocked(j *job.Job) {
	if !j.Status.IsTerminal() {
		return
	}

	switch j.Status {
	case job.Completed:
		s.counters.TotalCompleted++
	case job.Failed:
		s.counters.TotalFailed++
	}
	s.groupCPUTimeMS[queue.GroupKey(j)] += j.ActualRuntimeMS

	s.completed = append(s.completed, j)
	if s.completedCap > 0 && len(s.completed) > s.completedCap {
		s.completed = s.completed[len(s.completed)-s.completedCap:]
	}

	if j.AssignedCoreID >= 0 {
		s.coreTable.Release(j.AssignedCoreID)
	}
	if len(j.AssignedCores) > 0 {
		s.coreTable.ReleaseAll(j.AssignedCores)
	}

	s.promoteDependentsLocked(j.ID)
}

// runLifecycle is the Lifecycle Driver (spec §4.5-§4.6): allocate a core,
// spawn the job's command, block until it exits, and record the outcome.
// It runs outside the scheduler lock except for the brief windows where it
// mutates the shared Job record, which must always happen under s.mu since
// Kill/Suspend/Resume read and write the same fields concurrently. Using
// os/exec rather than a raw fork/exec avoids forking a multi-threaded Go
// runtime directly (SPEC_FULL.md §4.5, step 3).
func (s *Scheduler) runLifecycle(j *job.Job, workerID int) {
	s.mu.Lock()
	j.Status = job.Running
	j.ThreadID = "worker-" + strconv.Itoa(workerID)
	j.StartTime = time.Now()

	logFields := logrus.Fields{"job_id": j.ID, "worker": workerID}
	if j.Limits.MaxCPUCores > 1 {
		if ids, ok := s.coreTable.AllocateN(j.Limits.MaxCPUCores); ok {
			j.AssignedCores = ids
			logFields["cores"] = ids
		}
	} else if coreID, ok := s.coreTable.Allocate(); ok {
		j.AssignedCoreID = coreID
		logFields["core"] = coreID
	}
	j.SimulateResourceUsage(s.rng.Intn)
	startedSnap := eventlog.FromJob(j, eventlog.Started)
	s.mu.Unlock()

	s.recordEvent(startedSnap)
	s.log.WithFields(logFields).Info("job started")

	cmd := exec.Command("/bin/sh", "-c", j.Command)
	if err := cmd.Start(); err != nil {
		s.mu.Lock()
		j.Status = job.Failed
		j.ExitCode = -1
		j.EndTime = time.Now()
		j.ActualRuntimeMS = j.EndTime.Sub(j.StartTime).Milliseconds()
		failedSnap := eventlog.FromJob(j, eventlog.FailedEvt)
		s.mu.Unlock()
		s.recordEvent(failedSnap)
		s.log.WithError(err).WithField("job_id", j.ID).Warn("job failed to start")
		return
	}

	s.mu.Lock()
	j.ProcessID = cmd.Process.Pid
	s.mu.Unlock()

	waitErr := cmd.Wait()

	s.mu.Lock()
	j.EndTime = time.Now()
	j.ActualRuntimeMS = j.EndTime.Sub(j.StartTime).Milliseconds()

	if j.Status == job.Killed {
		// Kill() already flipped status and recorded the KILLED event; a
		// terminated process's exit error must not downgrade that status.
		s.mu.Unlock()
		return
	}

	var evtType eventlog.EventType
	if waitErr != nil {
		j.Status = job.Failed
		j.ExitCode = exitCodeFromError(waitErr)
		evtType = eventlog.FailedEvt
	} else {
		j.Status = job.Completed
		j.ExitCode = 0
		evtType = eventlog.CompletedEvt
	}
	snap := eventlog.FromJob(j, evtType)
	s.mu.Unlock()

	s.recordEvent(snap)
	s.log.WithFields(logrus.Fields{
		"job_id": j.ID, "status": j.Status.String(), "exit_code": j.ExitCode,
	}).Info("job finished")
}

func exitCodeFromError(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return -1
}
