package queue

import (
	"github.com/spamprx/ThreadShell/internal/job"
)

// Policy orders two ready jobs. Less(a, b) reports whether a should be
// dispatched before b — i.e. a has higher scheduling preference than b.
// Implementations must be total and consistent within a single comparison
// (spec §5), even though PriorityFirst's score is time-dependent across
// separate calls.
type Policy interface {
	Less(a, b *job.Job) bool
	Name() string
}

// PriorityFirstPolicy orders by job.PriorityScore, ascending seq as a
// stable tiebreaker (spec §4.8, §5).
type PriorityFirstPolicy struct{}

func (PriorityFirstPolicy) Name() string { return "priority_first" }

func (PriorityFirstPolicy) Less(a, b *job.Job) bool {
	sa, sb := a.PriorityScore(), b.PriorityScore()
	if sa != sb {
		return sa > sb
	}
	return a.Seq() < b.Seq()
}

// ShortestJobFirstPolicy orders by ascending estimated runtime.
type ShortestJobFirstPolicy struct{}

func (ShortestJobFirstPolicy) Name() string { return "shortest_job_first" }

func (ShortestJobFirstPolicy) Less(a, b *job.Job) bool {
	ra, rb := a.EstimatedRuntimeSeconds(), b.EstimatedRuntimeSeconds()
	if ra != rb {
		return ra < rb
	}
	return a.Seq() < b.Seq()
}

// RoundRobinPolicy prefers the highest occupied priority bucket, then FIFO
// (submission order) within that bucket (spec §4.8).
type RoundRobinPolicy struct{}

func (RoundRobinPolicy) Name() string { return "round_robin" }

func (RoundRobinPolicy) Less(a, b *job.Job) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq() < b.Seq()
}

// GroupCPUTime reports cumulative CPU time (in milliseconds) already
// consumed by a job's fair-share group. The scheduler supplies this as a
// closure so the policy needn't reach into scheduler-internal stats.
type GroupCPUTime func(j *job.Job) int64

// FairSharePolicy prefers the job whose array/job group has consumed the
// least cumulative CPU time so far (spec §4.8).
type FairSharePolicy struct {
	GroupTime GroupCPUTime
}

func (FairSharePolicy) Name() string { return "fair_share" }

func (p FairSharePolicy) Less(a, b *job.Job) bool {
	if p.GroupTime == nil {
		return a.Seq() < b.Seq()
	}
	ta, tb := p.GroupTime(a), p.GroupTime(b)
	if ta != tb {
		return ta < tb
	}
	return a.Seq() < b.Seq()
}

// groupKey returns the fair-share grouping identity for a job: its
// ArrayJobID if it belongs to an array, else its own JobID (spec §4.8).
func groupKey(j *job.Job) job.ID {
	if j.ArrayJobID >= 0 {
		return j.ArrayJobID
	}
	return j.ID
}

// GroupKey exposes groupKey for the scheduler's CPU-time accounting.
func GroupKey(j *job.Job) job.ID { return groupKey(j) }
