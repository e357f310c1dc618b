// Package depindex implements the Dependency Index (spec §4.3): the
// reverse mapping from a job to the set of waiting jobs that depend on it,
// plus the cycle-rejection check that resolves open question 3 (spec §9).
package depindex

import "github.com/spamprx/ThreadShell/internal/job"

// Index maps a job ID to the set of dependent job IDs waiting on it. It is
// not thread-safe; callers (the scheduler) serialize access under their
// own lock, matching every other core data structure in this design.
type Index struct {
	dependents map[job.ID]map[job.ID]struct{}
}

// New creates an empty Dependency Index.
func New() *Index {
	return &Index{dependents: make(map[job.ID]map[job.ID]struct{})}
}

// Add registers waiter as depending on each id in deps.
func (idx *Index) Add(waiter job.ID, deps []job.ID) {
	for _, d := range deps {
		set, ok := idx.dependents[d]
		if !ok {
			set = make(map[job.ID]struct{})
			idx.dependents[d] = set
		}
		set[waiter] = struct{}{}
	}
}

// Remove unregisters waiter from every dependency's dependent set. Used
// once a waiting job leaves WaitingDeps (becomes ready) so the index does
// not keep re-offering it as a candidate on later completions.
func (idx *Index) Remove(waiter job.ID, deps []job.ID) {
	for _, d := range deps {
		if set, ok := idx.dependents[d]; ok {
			delete(set, waiter)
			if len(set) == 0 {
				delete(idx.dependents, d)
			}
		}
	}
}

// Candidates returns the set of job IDs that might become ready now that
// completed has finished. Each candidate must still be re-checked against
// the full job table, since one satisfied dependency does not imply all
// are satisfied (spec §4.3).
func (idx *Index) Candidates(completed job.ID) []job.ID {
	set, ok := idx.dependents[completed]
	if !ok {
		return nil
	}
	out := make([]job.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// WouldCycle reports whether adding an edge from `newJob` to each id in
// `deps` would create a dependency cycle, given the dependency edges
// reachable through `lookupDeps` (a job.ID -> []job.ID lookup supplied by the
// scheduler over its full job table). This only catches cycles among
// jobs that already exist; a cycle formed through a not-yet-submitted job
// ID cannot be detected here (spec §4.3, §9 open question 3).
func WouldCycle(newJob job.ID, deps []job.ID, lookupDeps func(job.ID) ([]job.ID, bool)) bool {
	// A cycle exists if, starting from any of newJob's proposed
	// dependencies and walking their dependency edges, we can reach
	// newJob itself.
	visited := make(map[job.ID]bool)
	var dfs func(job.ID) bool
	dfs = func(cur job.ID) bool {
		if cur == newJob {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		curDeps, ok := lookupDeps(cur)
		if !ok {
			return false
		}
		for _, d := range curDeps {
			if dfs(d) {
				return true
			}
		}
		return false
	}
	for _, d := range deps {
		if dfs(d) {
			return true
		}
	}
	return false
}
