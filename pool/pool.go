// Package pool implements the order arena: a fixed-capacity slab of
// resting-order records addressed by dense 32-bit indices, with O(1)
// allocate/release via a LIFO free list.
package pool

import "fmt"

// Index addresses a slot in an OrderPool. NoIndex is the sentinel meaning
// "no order" (used for list head/tail/prev/next).
type Index uint32

// NoIndex is the sentinel index value, analogous to a null pointer.
const NoIndex Index = 1<<32 - 1

// Order is a resting order record held in the pool. Prev/Next are
// intrusive doubly-linked-list pointers into the owning price level's
// FIFO queue; Active marks whether the slot currently holds a live order.
type Order struct {
	OrderID   uint64
	UserID    uint64
	Side      uint8 // 0 = buy, 1 = sell; mirrors engine.Side without importing it
	Price     float64
	Remaining uint64
	Timestamp uint64

	Prev Index
	Next Index

	Active bool
}

// OrderPool is a fixed-capacity slab of Order slots plus a LIFO free list
// of available indices. Capacity is fixed at construction: exhaustion is a
// fatal programmer error per the spec, never a trigger for growth or reuse
// beyond the free list.
type OrderPool struct {
	storage  []Order
	freeList []Index
}

// New constructs an OrderPool with room for exactly capacity orders.
func New(capacity uint32) *OrderPool {
	p := &OrderPool{
		storage:  make([]Order, capacity),
		freeList: make([]Index, capacity),
	}
	for i := uint32(0); i < capacity; i++ {
		p.freeList[i] = Index(capacity - 1 - i)
	}
	return p
}

// Capacity returns the fixed number of slots in the pool.
func (p *OrderPool) Capacity() int { return len(p.storage) }

// Allocate pops a free index, marks it active, and resets its links.
// Panics if the pool is exhausted — callers must size the pool so this
// cannot occur under expected load (§7: pool exhaustion is fatal).
func (p *OrderPool) Allocate() Index {
	if len(p.freeList) == 0 {
		panic(fmt.Sprintf("pool: exhausted (capacity=%d)", len(p.storage)))
	}
	idx := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	slot := &p.storage[idx]
	slot.Active = true
	slot.Prev = NoIndex
	slot.Next = NoIndex
	return idx
}

// Release returns idx to the free list and clears its active flag and
// links. The slot's other fields are left as-is (no need to zero a slab
// entry no one will read until the next Allocate overwrites it).
func (p *OrderPool) Release(idx Index) {
	slot := &p.storage[idx]
	slot.Active = false
	slot.Prev = NoIndex
	slot.Next = NoIndex
	p.freeList = append(p.freeList, idx)
}

// Get returns a pointer to the order at idx. This is the only place in the
// engine that lets a caller mutate resting-order quantity directly — the
// matching algorithm needs that.
func (p *OrderPool) Get(idx Index) *Order {
	return &p.storage[idx]
}

// IsActive reports whether idx currently holds a live order.
func (p *OrderPool) IsActive(idx Index) bool {
	return p.storage[idx].Active
}

// Free returns the number of unallocated slots remaining.
func (p *OrderPool) Free() int { return len(p.freeList) }
