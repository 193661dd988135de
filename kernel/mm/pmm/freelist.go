package pmm

import (
	"unsafe"

	"rvkernel/kernel/mm"
	"rvkernel/kernel/sync"
)

// runHeader is the in-place free-run header (spec §3 "free block list"):
// {page_count, next}, stored at the start of the run it describes.
type runHeader struct {
	pageCount int
	next      *runHeader
}

// FreeListAllocator manages a single physically contiguous region as a
// singly linked list of free runs (spec §4.6). It never coalesces adjacent
// runs on free — a documented limitation (spec §9, §8 scenario 5).
type FreeListAllocator struct {
	lock sync.IRQSpinlock
	head *runHeader
}

// Init partitions [start, end) — both PAGE-aligned — into a single free
// run spanning the whole region.
func (a *FreeListAllocator) Init(start, end mm.PA) {
	if !start.IsAlignedTo(mm.PageSize) || !end.IsAlignedTo(mm.PageSize) {
		fatalf("free-list allocator window [%x, %x) is not page-aligned", uint64(start), uint64(end))
	}
	pages := int((uint64(end) - uint64(start)) / mm.PageSize)
	hdr := mm.As[runHeader](physToVA(start))
	hdr.pageCount = pages
	hdr.next = nil
	a.head = hdr
}

// AllocPage finds the first run of at least n pages, first-fit (spec
// §4.6). It returns false if no run is large enough.
func (a *FreeListAllocator) AllocPage(n int) (mm.VA, bool) {
	if n <= 0 {
		fatalf("alloc_page: n must be positive, got %d", n)
	}
	g := a.lock.Lock()
	defer g.Unlock()

	var prev *runHeader
	for run := a.head; run != nil; run = run.next {
		if run.pageCount < n {
			prev = run
			continue
		}
		startVA := headerVA(run)
		if run.pageCount == n {
			a.unlink(prev, run)
			return startVA, true
		}
		tailVA := startVA.Add(int64(n) * int64(mm.PageSize))
		tail := mm.As[runHeader](tailVA)
		tail.pageCount = run.pageCount - n
		tail.next = run.next
		a.replace(prev, run, tail)
		return startVA, true
	}
	return 0, false
}

// DeallocPage pushes a new {n, head} run at va and makes it the new head
// (spec §4.6). No coalescing is performed.
func (a *FreeListAllocator) DeallocPage(va mm.VA, n int) {
	if n <= 0 {
		fatalf("dealloc_page: n must be positive, got %d", n)
	}
	g := a.lock.Lock()
	defer g.Unlock()

	hdr := mm.As[runHeader](va)
	hdr.pageCount = n
	hdr.next = a.head
	a.head = hdr
}

// Stats reports the current number of free runs and the total number of
// free pages across all of them, for the boot-time memory accounting the
// global init sequence logs once the free-list allocator comes online
// (mirrored on biscuit's Physmem_t.Pgcount).
func (a *FreeListAllocator) Stats() (runs, pages int) {
	g := a.lock.Lock()
	defer g.Unlock()

	for run := a.head; run != nil; run = run.next {
		runs++
		pages += run.pageCount
	}
	return runs, pages
}

func headerVA(hdr *runHeader) mm.VA {
	return mm.VA(uintptr(unsafe.Pointer(hdr)))
}

func (a *FreeListAllocator) unlink(prev, run *runHeader) {
	if prev == nil {
		a.head = run.next
		return
	}
	prev.next = run.next
}

func (a *FreeListAllocator) replace(prev, old, with *runHeader) {
	if prev == nil {
		a.head = with
		return
	}
	prev.next = with
}
