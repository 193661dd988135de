// Package slab implements the fixed-size-class object allocator layered on
// top of a page allocator (spec §4.7): eleven size classes backed by
// per-class free-object lists, refilled one page at a time.
package slab

import (
	"unsafe"

	"rvkernel/kernel/mm"
	"rvkernel/kernel/sync"
)

// MaxSlabSize is the largest request alloc_byte accepts without panicking.
const MaxSlabSize = 2048

// classSizes are the eleven size classes, in ascending order (spec §4.7).
// 96 and 192 are reachable only by an exact-size request — see
// classIndexFor.
var classSizes = [11]int{8, 16, 32, 64, 96, 128, 192, 256, 512, 1024, 2048}

// classIndexFor maps a requested size to its class index via bit_ceil,
// with 96 and 192 carved out as exact-match classes since they are not
// powers of two (spec §9's flagged rounding oddity).
func classIndexFor(s int) int {
	switch s {
	case 96:
		return 4
	case 192:
		return 6
	}
	switch bitCeil(s) {
	case 1, 2, 4, 8:
		return 0
	case 16:
		return 1
	case 32:
		return 2
	case 64:
		return 3
	case 128:
		return 5
	case 256:
		return 7
	case 512:
		return 8
	case 1024:
		return 9
	case 2048:
		return 10
	default:
		fatalf("alloc_byte: size %d exceeds MAX_SLAB_SIZE", s)
		return -1
	}
}

// bitCeil returns the smallest power of two that is >= n.
func bitCeil(n int) int {
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}

// freeObj is the in-place free-object header: a single {next} pointer,
// stored in the object's own memory while it's free (spec §3 "slab
// class").
type freeObj struct {
	next *freeObj
}

// PageAllocator is the capability the slab allocator needs to refill an
// exhausted class: hand back one page. Pages are never returned once
// carved into objects (spec §4.7 "no per-page reference counting").
type PageAllocator interface {
	AllocPage(n int) (mm.VA, bool)
}

// Allocator is the slab allocator: eleven per-class free-object lists
// behind one coarse spinlock (spec §5, "acknowledged contention point").
type Allocator[A PageAllocator] struct {
	lock      sync.IRQSpinlock
	classes   [11]*freeObj
	pageAlloc A
}

// New builds a slab allocator that refills from pageAlloc.
func New[A PageAllocator](pageAlloc A) *Allocator[A] {
	return &Allocator[A]{pageAlloc: pageAlloc}
}

// AllocByte returns an object of at least s bytes from the appropriate
// class (spec §4.7 alloc_byte). s == 0 returns false (recoverable, spec
// §7.1); s > MaxSlabSize panics.
func (a *Allocator[A]) AllocByte(s int) (mm.VA, bool) {
	if s == 0 {
		return 0, false
	}
	if s > MaxSlabSize {
		fatalf("alloc_byte: size %d exceeds MAX_SLAB_SIZE", s)
	}
	idx := classIndexFor(s)

	g := a.lock.Lock()
	defer g.Unlock()

	if a.classes[idx] == nil && !a.refill(idx) {
		return 0, false
	}
	obj := a.classes[idx]
	a.classes[idx] = obj.next
	return mm.VA(uintptr(unsafe.Pointer(obj))), true
}

// DeallocByte returns an object of size s (the same size passed to the
// AllocByte call that produced it — spec §4.9 "dispatches on the same
// size") to its class free list.
func (a *Allocator[A]) DeallocByte(va mm.VA, s int) {
	idx := classIndexFor(s)
	size := uint64(classSizes[idx])
	if uint64(va)%size != 0 {
		fatalf("dealloc_byte: address %x is not aligned to class size %d", uint64(va), size)
	}

	g := a.lock.Lock()
	defer g.Unlock()

	obj := mm.As[freeObj](va)
	obj.next = a.classes[idx]
	a.classes[idx] = obj
}

// refill obtains one page from the page allocator and chops it into
// class_size objects, stitched into a free list in address order (spec
// §4.7 "Refill"). Called with a.lock held.
func (a *Allocator[A]) refill(idx int) bool {
	va, ok := a.pageAlloc.AllocPage(1)
	if !ok {
		return false
	}
	size := classSizes[idx]
	count := int(mm.PageSize) / size

	var head, tail *freeObj
	for i := 0; i < count; i++ {
		obj := mm.As[freeObj](va.Add(int64(i * size)))
		obj.next = nil
		if head == nil {
			head = obj
		} else {
			tail.next = obj
		}
		tail = obj
	}
	a.classes[idx] = head
	return true
}
