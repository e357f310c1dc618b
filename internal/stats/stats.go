// Package stats implements the Stats Aggregator (spec §4.9): monotonic
// counters plus derived averages computed on demand over the completed
// job set.
package stats

import (
	"time"

	"github.com/spamprx/ThreadShell/internal/job"
)

// Counters holds the monotonic transition counts. Callers (the scheduler)
// increment these under their own lock; Counters itself has no lock.
type Counters struct {
	TotalSubmitted int64
	TotalCompleted int64
	TotalFailed    int64
	TotalKilled    int64
}

// Snapshot is the value returned by Scheduler.SystemStats().
type Snapshot struct {
	TotalJobsSubmitted      int64
	TotalJobsCompleted      int64
	TotalJobsFailed         int64
	TotalJobsKilled         int64
	AverageTurnaroundTimeMS float64
	AverageWaitTimeMS       float64
	SystemThroughput        float64
	CurrentMemoryUsageMB    uint64
	StartTime               time.Time
	RunID                   string
}

// Compute derives a Snapshot from the current counters, the set of
// completed jobs (for turnaround/wait averages) and the set of currently
// running jobs (for CurrentMemoryUsageMB), per spec §4.9.
func Compute(c Counters, completed []*job.Job, running []*job.Job, start time.Time, runID string) Snapshot {
	snap := Snapshot{
		TotalJobsSubmitted: c.TotalSubmitted,
		TotalJobsCompleted: c.TotalCompleted,
		TotalJobsFailed:    c.TotalFailed,
		TotalJobsKilled:    c.TotalKilled,
		StartTime:          start,
		RunID:              runID,
	}

	if len(completed) > 0 {
		var totalTurnaround, totalWait float64
		for _, j := range completed {
			totalTurnaround += float64(j.EndTime.Sub(j.SubmitTime).Milliseconds())
			totalWait += float64(j.StartTime.Sub(j.SubmitTime).Milliseconds())
		}
		snap.AverageTurnaroundTimeMS = totalTurnaround / float64(len(completed))
		snap.AverageWaitTimeMS = totalWait / float64(len(completed))
	}

	elapsedMinutes := time.Since(start).Minutes()
	if elapsedMinutes >= 1 {
		snap.SystemThroughput = float64(c.TotalCompleted) / elapsedMinutes
	}

	for _, j := range running {
		snap.CurrentMemoryUsageMB += j.MemoryUsageMB
	}

	return snap
}
