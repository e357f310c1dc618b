package stats

import (
	"testing"
	"time"

	"github.com/spamprx/ThreadShell/internal/job"
)

func TestComputeAveragesOverCompletedJobs(t *testing.T) {
	now := time.Now()
	j1 := job.New(1, "echo 1", job.Medium)
	j1.SubmitTime = now
	j1.StartTime = now.Add(1 * time.Second)
	j1.EndTime = now.Add(3 * time.Second)

	j2 := job.New(2, "echo 2", job.Medium)
	j2.SubmitTime = now
	j2.StartTime = now.Add(2 * time.Second)
	j2.EndTime = now.Add(5 * time.Second)

	c := Counters{TotalSubmitted: 2, TotalCompleted: 2}
	snap := Compute(c, []*job.Job{j1, j2}, nil, now.Add(-2*time.Minute), "run-1")

	if snap.AverageWaitTimeMS != 1500 {
		t.Fatalf("expected average wait 1500ms, got %v", snap.AverageWaitTimeMS)
	}
	if snap.AverageTurnaroundTimeMS != 4000 {
		t.Fatalf("expected average turnaround 4000ms, got %v", snap.AverageTurnaroundTimeMS)
	}
}

func TestComputeThroughputZeroUnderOneMinute(t *testing.T) {
	c := Counters{TotalCompleted: 5}
	snap := Compute(c, nil, nil, time.Now(), "run-1")
	if snap.SystemThroughput != 0 {
		t.Fatalf("expected zero throughput under 1 minute elapsed, got %v", snap.SystemThroughput)
	}
}

func TestComputeCurrentMemoryUsage(t *testing.T) {
	r1 := job.New(1, "echo 1", job.Medium)
	r1.MemoryUsageMB = 50
	r2 := job.New(2, "echo 2", job.Medium)
	r2.MemoryUsageMB = 75

	snap := Compute(Counters{}, nil, []*job.Job{r1, r2}, time.Now(), "run-1")
	if snap.CurrentMemoryUsageMB != 125 {
		t.Fatalf("expected 125MB, got %d", snap.CurrentMemoryUsageMB)
	}
}
