package queue

import "testing"

func TestCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	var tests = []struct {
		requested int
		want      int
	}{
		{1, 1},
		{3, 4},
		{4, 4},
		{5, 8},
		{4096, 4096},
		{4097, 8192},
	}
	for _, tt := range tests {
		q := New[int](tt.requested)
		if q.Capacity() != tt.want {
			t.Fatalf("requested %d (have: %d, want: %d)", tt.requested, q.Capacity(), tt.want)
		}
	}
}

func TestPushPopFIFO(t *testing.T) {
	q := New[int](4)
	for i := 1; i <= 4; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if q.Push(5) {
		t.Fatalf("push into full queue should fail")
	}
	for i := 1; i <= 4; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("pop %d: have (%v, %v)", i, v, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop from empty queue should fail")
	}
}

func TestWraparound(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 100; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d should have succeeded", i)
		}
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("pop %d: have (%v, %v)", i, v, ok)
		}
	}
}

func TestLenTracksOccupancy(t *testing.T) {
	q := New[int](8)
	if q.Len() != 0 {
		t.Fatalf("have: %d, want: 0", q.Len())
	}
	q.Push(1)
	q.Push(2)
	if q.Len() != 2 {
		t.Fatalf("have: %d, want: 2", q.Len())
	}
	q.Pop()
	if q.Len() != 1 {
		t.Fatalf("have: %d, want: 1", q.Len())
	}
}
