package pagetable

import "rvkernel/kernel/mm"

// SharedCopy builds a new table, backed by the same allocator, that shares
// every L1 subtree with pt instead of duplicating it (spec §4.3
// shared_copy). The copy's root PTEs are marked SHARED, so destroying the
// copy never frees those subtrees (invariant I4), and the referenced L1
// pages are pin-marked (I5). pt still owns them: pt's own Destroy frees
// them like any other subtree.
func (pt *PageTable[A]) SharedCopy() *PageTable[A] {
	cp := New[A](pt.alloc)
	if !pt.hasRoot() {
		return cp
	}
	srcTbl := tableAt(pt.rootPA())
	dstTbl := tableAt(cp.ensureRoot())
	*dstTbl = *srcTbl

	for i, e := range dstTbl {
		if !e.Valid() || e.IsLeaf() {
			continue
		}
		dstTbl[i] = withShared(e)
		l1 := tableAt(e.PA())
		l1[0] = withShared(l1[0])
	}
	return cp
}

// SharedMark pins every L1 subtree covering [start, end) so it can later be
// attached by another table (spec §4.3 shared_mark). Both endpoints must be
// HUGE-aligned. Interior pages are allocated on demand; leaf (hugepage)
// entries in the range are left untouched — there is nothing to pin.
func (pt *PageTable[A]) SharedMark(start, end mm.VA) {
	if !start.IsAlignedTo(mm.HugePageSize) || !end.IsAlignedTo(mm.HugePageSize) {
		fatalf("shared_mark: [%x, %x) is not HUGE-aligned", uint64(start), uint64(end))
	}
	if end <= start {
		fatalf("shared_mark: end %x must be greater than start %x", uint64(end), uint64(start))
	}

	tbl := tableAt(pt.ensureRoot())
	lo, hi := pteIdx(start, mm.L2), pteIdx(end, mm.L2)
	for idx := lo; idx < hi; idx++ {
		e := tbl[idx]
		switch {
		case !e.Valid():
			childPA, ok := allocZeroedPage[A](pt.alloc)
			if !ok {
				fatalf("out of memory allocating table page")
			}
			tbl[idx] = newInterior(childPA)
			l1 := tableAt(childPA)
			l1[0] = withShared(l1[0])
		case e.IsLeaf():
			continue
		default:
			l1 := tableAt(e.PA())
			l1[0] = withShared(l1[0])
		}
	}
}

// SharedAttach installs, in pt, a borrowed reference to every L1 subtree
// that other has pinned within [start, end) (spec §4.3 shared_attach). Both
// endpoints must be HUGE-aligned. A slot in pt that already holds a valid
// PTE is left alone.
func (pt *PageTable[A]) SharedAttach(other *PageTable[A], start, end mm.VA) {
	if !start.IsAlignedTo(mm.HugePageSize) || !end.IsAlignedTo(mm.HugePageSize) {
		fatalf("shared_attach: [%x, %x) is not HUGE-aligned", uint64(start), uint64(end))
	}
	if !other.hasRoot() {
		return
	}

	dstTbl := tableAt(pt.ensureRoot())
	srcTbl := tableAt(other.rootPA())
	lo, hi := pteIdx(start, mm.L2), pteIdx(end, mm.L2)
	for idx := lo; idx < hi; idx++ {
		e := srcTbl[idx]
		if !e.Valid() || e.IsLeaf() {
			continue
		}
		if !tableAt(e.PA())[0].Shared() {
			continue
		}
		if dstTbl[idx].Valid() {
			continue
		}
		dstTbl[idx] = withShared(setPPN(PTE(bitV), e.PA()))
	}
}

// SharedDetach clears the SHARED interior PTEs pt installed via
// SharedAttach or SharedCopy within [start, end), invalidating pt's view of
// those subtrees without freeing anything they reference — the subtree
// belongs to, and remains pinned by, the table that marked or built it
// (spec §4.3 shared_detach).
func (pt *PageTable[A]) SharedDetach(start, end mm.VA) {
	if !pt.hasRoot() {
		return
	}
	tbl := tableAt(pt.rootPA())
	lo, hi := pteIdx(start, mm.L2), pteIdx(end, mm.L2)
	for idx := lo; idx < hi; idx++ {
		e := tbl[idx]
		if e.Valid() && !e.IsLeaf() && e.Shared() {
			tbl[idx] = withoutSharedAndValid(e)
		}
	}
}
