package pagetable

import "rvkernel/kernel/mm"

// PageAllocator is the minimal capability the page-table engine needs from
// whatever backs its table pages: hand back a page (the engine zeroes it
// itself), take one back. pmm.FreeListAllocator and pmm.BootAllocator both satisfy it (spec
// §4.1's "table pages are drawn from the allocator supplied at construction
// time").
type PageAllocator interface {
	AllocPage(n int) (mm.VA, bool)
	DeallocPage(va mm.VA, n int)
}

// PageTable is a three-level Sv39 translation tree, parameterized over the
// allocator it draws table pages from. The zero value is not usable; build
// one with New.
//
// A came from a C++ template parameter in the source this engine is
// modelled on. Go methods can't introduce new type parameters, so the
// cross-allocator operations (Clone, Assign) are free functions instead of
// methods — see clone.go.
type PageTable[A PageAllocator] struct {
	alloc   A
	rootPPN uint64 // 0 means "no root page allocated yet" (spec §3 truth test)
}

// New builds an empty page table backed by alloc. No table pages are
// allocated until the first AddMapping.
func New[A PageAllocator](alloc A) *PageTable[A] {
	return &PageTable[A]{alloc: alloc}
}

func (pt *PageTable[A]) hasRoot() bool { return pt.rootPPN != 0 }

func (pt *PageTable[A]) rootPA() mm.PA { return mm.PA(pt.rootPPN << mm.PageShift) }

// allocZeroedPage draws a page from alloc, zeroes it and returns its
// physical address.
func allocZeroedPage[A PageAllocator](alloc A) (mm.PA, bool) {
	va, ok := alloc.AllocPage(1)
	if !ok {
		return 0, false
	}
	zeroPage(va)
	return physOf(va), true
}

func (pt *PageTable[A]) freeTablePage(pa mm.PA) {
	pt.alloc.DeallocPage(virtOf(pa), 1)
}

// ensureRoot lazily allocates the L2 root page and returns its physical
// address.
func (pt *PageTable[A]) ensureRoot() mm.PA {
	if !pt.hasRoot() {
		pa, ok := allocZeroedPage[A](pt.alloc)
		if !ok {
			fatalf("out of memory allocating root table page")
		}
		pt.rootPPN = uint64(pa) >> mm.PageShift
	}
	return pt.rootPA()
}

// AddMapping installs a leaf translation for va -> pa at the given level
// (spec §4.3 add_mapping). va and pa must both be aligned to the level's
// page size, and no leaf may already exist anywhere in the addressed range.
func (pt *PageTable[A]) AddMapping(va mm.VA, pa mm.PA, perm Perm, level mm.PageLevel) {
	size := mm.PageSizeForLevel(level)
	if !va.IsAlignedTo(size) {
		fatalf("add_mapping: va %x not aligned to %x", uint64(va), size)
	}
	if !pa.IsAlignedTo(size) {
		fatalf("add_mapping: pa %x not aligned to %x", uint64(pa), size)
	}

	tbl := tableAt(pt.ensureRoot())
	cur := mm.L2
	for cur > level {
		idx := pteIdx(va, cur)
		entry := tbl[idx]
		switch {
		case !entry.Valid():
			childPA, ok := allocZeroedPage[A](pt.alloc)
			if !ok {
				fatalf("out of memory allocating table page")
			}
			tbl[idx] = newInterior(childPA)
			tbl = tableAt(childPA)
		case entry.IsLeaf():
			fatalf("add_mapping: %x collides with an existing larger mapping", uint64(va))
		default:
			tbl = tableAt(entry.PA())
		}
		cur--
	}

	idx := pteIdx(va, level)
	entry := tbl[idx]
	if entry.Valid() {
		if entry.IsLeaf() {
			fatalf("add_mapping: %x is already mapped", uint64(va))
		}
		if !pt.subtreeEmpty(entry, level) {
			fatalf("add_mapping: %x overlaps a populated subtree", uint64(va))
		}
		pt.freeSubtree(entry, level)
	}
	tbl[idx] = newLeaf(pa, perm)
}

// DelMapping removes the leaf translation covering va and returns it to
// unmapped (spec §4.3 del_mapping). It is fatal if va is not currently
// mapped by a leaf.
func (pt *PageTable[A]) DelMapping(va mm.VA) {
	entry, _ := pt.leaf(va)
	*entry &^= PTE(bitV)
}

// GetPagePerm returns the permission bits of the leaf mapping covering va.
// It is fatal if va is unmapped — the resolution to spec §9's open question
// on this point: every other walk-based operation in this engine panics on
// an unmapped address, and a silent default permission would be a worse
// surprise than a fast failure.
func (pt *PageTable[A]) GetPagePerm(va mm.VA) Perm {
	entry, _ := pt.leaf(va)
	return permsOf(*entry)
}

// SetPagePerm replaces the permission bits of the leaf mapping covering va,
// leaving its physical address untouched (spec §4.3 set_page_perm).
func (pt *PageTable[A]) SetPagePerm(va mm.VA, perm Perm) {
	entry, _ := pt.leaf(va)
	*entry = setPerm(*entry, perm)
}

// Transform resolves va to the physical address it currently maps to,
// preserving the low bits of va within the leaf's page (spec §4.3
// transform). It is fatal if va is unmapped.
func (pt *PageTable[A]) Transform(va mm.VA) mm.PA {
	entry, level := pt.leaf(va)
	offsetBits := levelShift(level)
	mask := uint64(1)<<offsetBits - 1
	return mm.PA(entry.PPN()<<mm.PageShift | (uint64(va) & mask))
}

// leaf walks va down to its leaf PTE, returning a pointer into the live
// table page so callers can read or mutate it in place. It is fatal if the
// walk hits an invalid PTE before reaching a leaf.
func (pt *PageTable[A]) leaf(va mm.VA) (*PTE, mm.PageLevel) {
	if !pt.hasRoot() {
		fatalf("%x is not mapped", uint64(va))
	}
	tbl := tableAt(pt.rootPA())
	level := mm.L2
	for {
		idx := pteIdx(va, level)
		entry := &tbl[idx]
		if !entry.Valid() {
			fatalf("%x is not mapped", uint64(va))
		}
		if entry.IsLeaf() {
			return entry, level
		}
		if level == mm.L0 {
			fatalf("corrupt page table: interior PTE at L0 for %x", uint64(va))
		}
		tbl = tableAt(entry.PA())
		level--
	}
}

// subtreeEmpty reports whether entry (a valid interior PTE at level)
// contains no leaf mappings anywhere beneath it, and is therefore safe to
// reclaim in place of a wider mapping (spec §4.3 add_mapping "overlaps a
// populated subtree" check).
func (pt *PageTable[A]) subtreeEmpty(entry PTE, level mm.PageLevel) bool {
	if level == mm.L0 {
		return true
	}
	tbl := tableAt(entry.PA())
	child := level - 1
	for _, e := range tbl {
		if !e.Valid() {
			continue
		}
		if e.IsLeaf() {
			return false
		}
		if !pt.subtreeEmpty(e, child) {
			return false
		}
	}
	return true
}

// freeSubtree recursively returns every table page beneath entry (a valid
// interior PTE residing in a table at level) to the allocator. A SHARED bit
// on a root (L2) PTE marks a borrowed pointer installed by SharedCopy or
// SharedAttach and is never followed (invariant I4, "at L2 level only").
// Deeper occurrences of SHARED are the SharedMark pin marker on an L1
// page's index-0 PTE (invariant I5) — bookkeeping for SharedAttach's
// validity check, not a free-time signal, so anything below L2 follows
// normally.
func (pt *PageTable[A]) freeSubtree(entry PTE, level mm.PageLevel) {
	if level == mm.L2 && entry.Shared() {
		return
	}
	if level != mm.L0 {
		tbl := tableAt(entry.PA())
		child := level - 1
		for i := range tbl {
			e := tbl[i]
			if !e.Valid() || e.IsLeaf() {
				continue
			}
			pt.freeSubtree(e, child)
		}
	}
	pt.freeTablePage(entry.PA())
}

// Entry returns the physical address of the root table page, or 0 if none
// has been allocated yet. Callers use this to build a SATP value.
func (pt *PageTable[A]) Entry() mm.PA {
	if !pt.hasRoot() {
		return 0
	}
	return pt.rootPA()
}

// Destroy releases every table page owned by pt, including the root, back
// to its allocator. Leaf-mapped physical pages are never touched — the
// page table does not own the memory it maps (spec §4.3 destroy).
func (pt *PageTable[A]) Destroy() {
	if !pt.hasRoot() {
		return
	}
	tbl := tableAt(pt.rootPA())
	for i := range tbl {
		e := tbl[i]
		if !e.Valid() || e.IsLeaf() {
			continue
		}
		pt.freeSubtree(e, mm.L2)
	}
	pt.freeTablePage(pt.rootPA())
	pt.rootPPN = 0
}

// zeroPage clears an entire table page through its direct-mapped VA.
func zeroPage(va mm.VA) {
	tbl := mm.As[table](va)
	for i := range tbl {
		tbl[i] = 0
	}
}
