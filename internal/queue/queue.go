// Package queue implements the Ready Set: a priority-ordered collection of
// jobs whose dependencies are satisfied and which are not yet running
// (spec §4.2). Ordering is pluggable via the Policy interface (spec §4.8).
package queue

import (
	"container/heap"

	"github.com/spamprx/ThreadShell/internal/job"
)

// heapSlice implements container/heap.Interface over *job.Job, ordered by
// the active Policy's Less. This mirrors the readyvibes-Legion / chorus
// pattern of a slice-backed heap type with Push/Pop reslicing the backing
// array, generalized so the comparator is swappable at runtime.
type heapSlice struct {
	jobs []*job.Job
	less func(a, b *job.Job) bool
}

func (h heapSlice) Len() int { return len(h.jobs) }

func (h heapSlice) Less(i, j int) bool { return h.less(h.jobs[i], h.jobs[j]) }

func (h heapSlice) Swap(i, j int) { h.jobs[i], h.jobs[j] = h.jobs[j], h.jobs[i] }

func (h *heapSlice) Push(x any) {
	h.jobs = append(h.jobs, x.(*job.Job))
}

func (h *heapSlice) Pop() any {
	old := h.jobs
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	h.jobs = old[:n-1]
	return j
}

// Ready is the Ready Set: a max-heap of pending jobs ordered by the
// current Policy. It is not itself thread-safe — callers (the scheduler)
// serialize access under their own lock, matching spec §5's "single shared
// scheduler state guarded by a single mutex."
type Ready struct {
	h      heapSlice
	policy Policy
}

// New creates an empty Ready Set using the given policy.
func New(p Policy) *Ready {
	r := &Ready{policy: p}
	r.h = heapSlice{less: r.less}
	heap.Init(&r.h)
	return r
}

// less feeds container/heap's Less directly from the policy. A Policy's
// Less(a, b) already means "a should be dispatched before b," which is
// exactly the min-heap trick for building a max-heap: the job the policy
// prefers most compares as "smallest" and rises to the root, so Pop
// returns it first.
func (r *Ready) less(a, b *job.Job) bool {
	return r.policy.Less(a, b)
}

// SetPolicy swaps the active scheduling policy. Because heap ordering
// depends on the comparator, existing contents are re-heapified so the
// new policy governs immediately (spec §4.8: "switching policy takes
// effect for future dispatch decisions").
func (r *Ready) SetPolicy(p Policy) {
	r.policy = p
	heap.Init(&r.h)
}

// Push inserts a job into the Ready Set.
func (r *Ready) Push(j *job.Job) {
	heap.Push(&r.h, j)
}

// Pop removes and returns the job the active policy prefers most.
// Panics if the queue is empty; callers must check Len() first.
func (r *Ready) Pop() *job.Job {
	return heap.Pop(&r.h).(*job.Job)
}

// Len returns the number of jobs currently in the Ready Set.
func (r *Ready) Len() int { return r.h.Len() }

// Peek returns all jobs currently queued, in no particular order, without
// removing them. Used for read-only diagnostics (queue length, snapshots).
func (r *Ready) Peek() []*job.Job {
	out := make([]*job.Job, len(r.h.jobs))
	copy(out, r.h.jobs)
	return out
}
