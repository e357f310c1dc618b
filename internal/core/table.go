// Package core implements the Core Table: a bitmap of logical CPU slots
// with allocate/release accounting (spec §4.1). Allocation is bookkeeping
// only — it does not pin OS threads or set CPU affinity.
package core

import (
	"sync"
	"time"
)

type slot struct {
	available bool
	lastUsed  time.Time
}

// Table tracks allocation of a fixed number of logical cores. It has its
// own mutex, independent of any scheduler, so it can be driven directly in
// tests without constructing a whole scheduler.
type Table struct {
	mu    sync.Mutex
	slots []slot
}

// New creates a Table with n cores, all initially available.
func New(n int) *Table {
	return &Table{slots: make([]slot, n)}
}

// Len returns the number of core slots.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Allocate returns the lowest-indexed free slot, marking it unavailable.
// The bool is false if no core is free.
func (t *Table) Allocate() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.isFreeLocked(i) {
			t.slots[i].available = false
			t.slots[i].lastUsed = time.Now()
			return i, true
		}
	}
	return -1, false
}

// isFreeLocked treats a never-touched slot (zero value) as available, and
// an explicitly-released slot (available == true) as available.
func (t *Table) isFreeLocked(i int) bool {
	return t.slots[i].available || t.slots[i].lastUsed.IsZero()
}

// AllocateN returns up to k free slots. Partial allocation is not
// permitted: if fewer than k cores are free, no cores are allocated and ok
// is false.
func (t *Table) AllocateN(k int) ([]int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var free []int
	for i := range t.slots {
		if t.isFreeLocked(i) {
			free = append(free, i)
			if len(free) == k {
				break
			}
		}
	}
	if len(free) < k {
		return nil, false
	}
	now := time.Now()
	for _, i := range free {
		t.slots[i].available = false
		t.slots[i].lastUsed = now
	}
	return free, true
}

// Release marks a core available again. Releasing a free (or out-of-range)
// core is a no-op.
func (t *Table) Release(coreID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if coreID < 0 || coreID >= len(t.slots) {
		return
	}
	t.slots[coreID].available = true
}

// ReleaseAll releases every core in ids, idempotently.
func (t *Table) ReleaseAll(ids []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if id < 0 || id >= len(t.slots) {
			continue
		}
		t.slots[id].available = true
	}
}

// Available returns the count of currently free cores.
func (t *Table) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.slots {
		if t.isFreeLocked(i) {
			n++
		}
	}
	return n
}
