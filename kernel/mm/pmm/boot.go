// Package pmm implements the two physical page allocators of the memory
// core: a trivial boot-time bump allocator (spec §4.4) and the free-list
// allocator that replaces it once the kernel is self-hosting (spec §4.6).
package pmm

import (
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mm"
)

// BootAllocator is a bump allocator over a single page-aligned physical
// window. It is used only to bootstrap the page-table engine that maps the
// real allocator's memory, and is constructed once and never destroyed
// (spec §3 "Lifecycle").
type BootAllocator struct {
	nextPA mm.PA
	endPA  mm.PA
}

// Init configures a to hand out pages from [start, end), which must both
// be PAGE-aligned.
func (a *BootAllocator) Init(start, end mm.PA) {
	if !start.IsAlignedTo(mm.PageSize) || !end.IsAlignedTo(mm.PageSize) {
		fatalf("boot allocator window [%x, %x) is not page-aligned", uint64(start), uint64(end))
	}
	a.nextPA = start
	a.endPA = end
}

// AllocPage returns the next page in the window and advances past it. n
// must be 1 — the boot allocator does not support multi-page runs (spec
// §4.4 "alloc_page(n) panics").
func (a *BootAllocator) AllocPage(n int) (mm.VA, bool) {
	if n != 1 {
		fatalf("boot allocator does not support multi-page allocation (n=%d)", n)
	}
	if a.nextPA >= a.endPA {
		return 0, false
	}
	pa := a.nextPA
	a.nextPA = a.nextPA.Add(int64(mm.PageSize))
	return physToVA(pa), true
}

// DeallocPage is a no-op: the boot allocator never reclaims memory.
func (a *BootAllocator) DeallocPage(mm.VA, int) {}

// DumpRegion logs the window a is bootstrapping from, mirroring the
// teacher's bootMemAllocator.printMemoryMap boot-time diagnostic.
func (a *BootAllocator) DumpRegion(start, end mm.PA) {
	pages := (uint64(end) - uint64(start)) / mm.PageSize
	kfmt.Printf("boot allocator: [%x, %x) (%d pages)\n", uint64(start), uint64(end), pages)
}

// NextPhys returns the physical address of the next page this allocator
// would hand out — the boundary the free-list allocator picks up from once
// the boot allocator has served its purpose of bootstrapping the page
// table (spec §2 control flow).
func (a *BootAllocator) NextPhys() mm.PA {
	return a.nextPA
}
