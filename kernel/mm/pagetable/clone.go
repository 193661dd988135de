package pagetable

import "rvkernel/kernel/mm"

// Clone recursively duplicates src into a freshly built table backed by
// dstAlloc: every interior table is reallocated and every leaf PTE copied
// verbatim (spec §4.3 "copy-construct"). It exists as a free function
// rather than a method because Go methods cannot introduce a second type
// parameter — the C++ source this engine is modelled on lets the copy
// constructor target a different allocator type than the source, and
// Clone preserves that.
func Clone[DstA, SrcA PageAllocator](src *PageTable[SrcA], dstAlloc DstA) *PageTable[DstA] {
	dst := New[DstA](dstAlloc)
	if !src.hasRoot() {
		return dst
	}
	dstPA := dst.ensureRoot()
	copyTable(tableAt(src.rootPA()), tableAt(dstPA), dst, mm.L2)
	return dst
}

// Assign replaces dst's entire contents with a deep copy of src, using
// dst's own allocator, and returns dst (spec §4.3 "assign(other) → &self").
// Any table dst previously owned is destroyed first.
func Assign[DstA, SrcA PageAllocator](dst *PageTable[DstA], src *PageTable[SrcA]) *PageTable[DstA] {
	dst.Destroy()
	if !src.hasRoot() {
		return dst
	}
	dstPA := dst.ensureRoot()
	copyTable(tableAt(src.rootPA()), tableAt(dstPA), dst, mm.L2)
	return dst
}

// copyTable duplicates every entry of srcTbl into dstTbl, which both reside
// at level, recursively allocating and populating child tables from dst's
// allocator. Leaf PTEs and their SHARED bit are copied verbatim: a shared
// leaf-adjacent pin marker (I5) survives a clone exactly like any other
// bit, since Clone/Assign duplicate structure rather than reinterpreting it.
func copyTable[A PageAllocator](srcTbl, dstTbl *table, dst *PageTable[A], level mm.PageLevel) {
	for i, e := range srcTbl {
		if !e.Valid() {
			if e.Shared() {
				dstTbl[i] = withShared(0)
			}
			continue
		}
		if e.IsLeaf() {
			dstTbl[i] = e
			continue
		}
		childPA, ok := allocZeroedPage[A](dst.alloc)
		if !ok {
			fatalf("out of memory cloning table page")
		}
		dstTbl[i] = setPerm(newInterior(childPA), permsOf(e))
		if e.Shared() {
			dstTbl[i] = withShared(dstTbl[i])
		}
		copyTable(tableAt(e.PA()), tableAt(childPA), dst, level-1)
	}
}

// MoveInto steals src's root into dst and empties src, translating the
// source's move constructor (spec §4.3 "Move: steal root; source becomes
// empty"). dst must be empty; any table it owned should be destroyed by
// the caller first, since Go has no move-assignment operator to fold that
// into.
func (dst *PageTable[A]) MoveInto(src *PageTable[A]) {
	dst.rootPPN = src.rootPPN
	src.rootPPN = 0
}
