package core

import "testing"

func TestAllocateLowestIndexFirst(t *testing.T) {
	tbl := New(4)
	id, ok := tbl.Allocate()
	if !ok || id != 0 {
		t.Fatalf("expected core 0, got %d ok=%v", id, ok)
	}
	id, ok = tbl.Allocate()
	if !ok || id != 1 {
		t.Fatalf("expected core 1, got %d ok=%v", id, ok)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	tbl := New(2)
	tbl.Allocate()
	tbl.Allocate()
	if _, ok := tbl.Allocate(); ok {
		t.Fatalf("expected allocation to fail once exhausted")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	tbl := New(2)
	tbl.Allocate()
	tbl.Release(0)
	tbl.Release(0) // no-op, must not panic or double count
	if tbl.Available() != 2 {
		t.Fatalf("expected 2 available cores, got %d", tbl.Available())
	}
}

func TestReleaseFreeSlotIsNoop(t *testing.T) {
	tbl := New(2)
	tbl.Release(1) // never allocated
	if tbl.Available() != 2 {
		t.Fatalf("expected 2 available cores, got %d", tbl.Available())
	}
}

func TestAllocateNAllOrNothing(t *testing.T) {
	tbl := New(3)
	tbl.Allocate() // core 0 taken

	ids, ok := tbl.AllocateN(3)
	if ok || ids != nil {
		t.Fatalf("expected AllocateN to fail atomically when insufficient cores free, got %v %v", ids, ok)
	}
	if tbl.Available() != 2 {
		t.Fatalf("expected no partial allocation to have occurred, available=%d", tbl.Available())
	}
}

func TestAllocateNSucceeds(t *testing.T) {
	tbl := New(4)
	ids, ok := tbl.AllocateN(3)
	if !ok || len(ids) != 3 {
		t.Fatalf("expected 3 cores allocated, got %v ok=%v", ids, ok)
	}
	if tbl.Available() != 1 {
		t.Fatalf("expected 1 core left available, got %d", tbl.Available())
	}
}

func TestReleaseAll(t *testing.T) {
	tbl := New(4)
	ids, _ := tbl.AllocateN(4)
	tbl.ReleaseAll(ids)
	if tbl.Available() != 4 {
		t.Fatalf("expected all cores released, got %d available", tbl.Available())
	}
}
