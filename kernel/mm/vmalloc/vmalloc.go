// Package vmalloc provides virtually contiguous kernel pages backed by
// individually allocated, and thus potentially physically fragmented,
// physical pages (spec §4.8).
package vmalloc

import (
	"unsafe"

	"rvkernel/kernel/hal"
	"rvkernel/kernel/mm"
	"rvkernel/kernel/mm/pagetable"
	"rvkernel/kernel/sync"
)

// PageTable is the subset of the page-table engine vmalloc drives. Any
// instantiation of pagetable.PageTable[A] satisfies it.
type PageTable interface {
	AddMapping(va mm.VA, pa mm.PA, perm pagetable.Perm, level mm.PageLevel)
	DelMapping(va mm.VA)
	Transform(va mm.VA) mm.PA
}

// PhysAllocator is the physical page source vmalloc draws individual pages
// from — pmm.FreeListAllocator in production.
type PhysAllocator interface {
	AllocPage(n int) (mm.VA, bool)
	DeallocPage(va mm.VA, n int)
}

// NodeAllocator backs the region list's nodes — a slab.Allocator instance
// in production (spec §4.8 "a slab-backed node allocator").
type NodeAllocator interface {
	AllocByte(s int) (mm.VA, bool)
	DeallocByte(va mm.VA, s int)
}

// region is a node in the sorted, singly linked occupied-region list (spec
// §3 "Vmalloc region").
type region struct {
	va    mm.VA
	pages int
	next  *region
}

var nodeSize = int(unsafe.Sizeof(region{}))

// Allocator hands out virtually contiguous ranges of [start, end), backed
// by individually allocated physical pages mapped into pt (spec §4.8).
type Allocator[PT PageTable, PA PhysAllocator, NA NodeAllocator] struct {
	lock  sync.IRQSpinlock
	head  *region
	start mm.VA
	end   mm.VA
	pt    PT
	phys  PA
	nodes NA
}

// New builds a vmalloc allocator over [start, end), mapping pages into pt.
func New[PT PageTable, PA PhysAllocator, NA NodeAllocator](pt PT, phys PA, nodes NA, start, end mm.VA) *Allocator[PT, PA, NA] {
	return &Allocator[PT, PA, NA]{pt: pt, phys: phys, nodes: nodes, start: start, end: end}
}

// AllocVpage finds the first gap of at least n pages in [start, end),
// maps n individually allocated physical pages into it R|W|X, and returns
// its base VA, or false if no gap was large enough or physical memory ran
// out partway through (spec §4.8 alloc_vpage).
func (a *Allocator[PT, PA, NA]) AllocVpage(n int) (mm.VA, bool) {
	if n <= 0 {
		fatalf("alloc_vpage: n must be positive, got %d", n)
	}
	g := a.lock.Lock()
	defer g.Unlock()

	prevEnd := a.start
	var prev *region
	cur := a.head
	for {
		gapEnd := a.end
		if cur != nil {
			gapEnd = cur.va
		}
		if uint64(gapEnd)-uint64(prevEnd) >= uint64(n)*mm.PageSize {
			va := prevEnd
			if !a.commit(va, n) {
				return 0, false
			}
			a.insertAfter(prev, va, n)
			return va, true
		}
		if cur == nil {
			return 0, false
		}
		prevEnd = cur.va.Add(int64(cur.pages) * int64(mm.PageSize))
		prev = cur
		cur = cur.next
	}
}

// commit maps n freshly allocated physical pages starting at va. On a
// partial failure it rolls back the mappings it already installed — but,
// per spec §4.8, does not return the already-allocated physical pages,
// which have never been accessed and need no flush.
func (a *Allocator[PT, PA, NA]) commit(va mm.VA, n int) bool {
	for i := 0; i < n; i++ {
		pageVA, ok := a.phys.AllocPage(1)
		if !ok {
			for j := 0; j < i; j++ {
				a.pt.DelMapping(va.Add(int64(j) * int64(mm.PageSize)))
			}
			return false
		}
		a.pt.AddMapping(va.Add(int64(i)*int64(mm.PageSize)), vaToPhys(pageVA), pagetable.PermR|pagetable.PermW|pagetable.PermX, mm.L0)
	}
	return true
}

func (a *Allocator[PT, PA, NA]) insertAfter(prev *region, va mm.VA, n int) {
	nodeVA, ok := a.nodes.AllocByte(nodeSize)
	if !ok {
		fatalf("alloc_vpage: out of memory allocating a region node")
	}
	node := mm.As[region](nodeVA)
	node.va = va
	node.pages = n
	if prev == nil {
		node.next = a.head
		a.head = node
	} else {
		node.next = prev.next
		prev.next = node
	}
}

// DeallocVpage locates the region starting exactly at va, releases its
// physical pages, unmaps and flushes each, then issues one remote flush
// for the whole range (spec §4.8 dealloc_vpage). It panics if va does not
// exactly start a currently allocated region.
func (a *Allocator[PT, PA, NA]) DeallocVpage(va mm.VA) {
	g := a.lock.Lock()
	defer g.Unlock()

	var prev *region
	node := a.head
	for node != nil && node.va != va {
		prev = node
		node = node.next
	}
	if node == nil {
		fatalf("dealloc_vpage: %x is not an allocated region", uint64(va))
	}

	for i := 0; i < node.pages; i++ {
		pageVA := va.Add(int64(i) * int64(mm.PageSize))
		pa := a.pt.Transform(pageVA)
		a.phys.DeallocPage(physToVA(pa), 1)
		a.pt.DelMapping(pageVA)
		hal.TLBFlushVA(uint64(pageVA))
	}
	hal.RemoteTLBFlushRange(uint64(va), uint64(node.pages)*mm.PageSize)

	if prev == nil {
		a.head = node.next
	} else {
		prev.next = node.next
	}
	a.nodes.DeallocByte(nodeVAOf(node), nodeSize)
}

func nodeVAOf(node *region) mm.VA {
	return mm.VA(uintptr(unsafe.Pointer(node)))
}
