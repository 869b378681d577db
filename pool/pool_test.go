package pool

import "testing"

func TestAllocateReturnsDistinctIndices(t *testing.T) {
	p := New(4)
	seen := map[Index]bool{}
	for i := 0; i < 4; i++ {
		idx := p.Allocate()
		if seen[idx] {
			t.Fatalf("Allocate returned duplicate index %d", idx)
		}
		seen[idx] = true
	}
}

func TestAllocateExhaustionPanics(t *testing.T) {
	p := New(1)
	p.Allocate()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on pool exhaustion, got none")
		}
	}()
	p.Allocate()
}

func TestReleaseThenAllocateReusesSlot(t *testing.T) {
	p := New(2)
	a := p.Allocate()
	b := p.Allocate()
	p.Release(a)

	got := p.Allocate()
	if got != a {
		t.Fatalf("expected reused index %d, got %d", a, got)
	}
	if !p.IsActive(b) {
		t.Fatalf("unreleased slot %d should still be active", b)
	}
}

func TestGetMutatesInPlace(t *testing.T) {
	p := New(1)
	idx := p.Allocate()
	order := p.Get(idx)
	order.OrderID = 42
	order.Remaining = 10

	var tests = []struct {
		have uint64
		want uint64
	}{
		{p.Get(idx).OrderID, 42},
		{p.Get(idx).Remaining, 10},
	}
	for _, tt := range tests {
		if tt.have != tt.want {
			t.Fatalf("mutation not visible through pool (have: %d, want: %d)", tt.have, tt.want)
		}
	}
}

func TestReleaseResetsLinks(t *testing.T) {
	p := New(1)
	idx := p.Allocate()
	order := p.Get(idx)
	order.Prev = 0
	order.Next = 0

	p.Release(idx)

	if p.IsActive(idx) {
		t.Fatalf("released slot should not be active")
	}
	if order.Prev != NoIndex || order.Next != NoIndex {
		t.Fatalf("released slot should have links reset to NoIndex")
	}
}

func TestFreeCount(t *testing.T) {
	p := New(3)
	if p.Free() != 3 {
		t.Fatalf("have: %d, want: 3", p.Free())
	}
	idx := p.Allocate()
	if p.Free() != 2 {
		t.Fatalf("have: %d, want: 2", p.Free())
	}
	p.Release(idx)
	if p.Free() != 3 {
		t.Fatalf("have: %d, want: 3", p.Free())
	}
}
