// Package pagetable implements the three-level Sv39 page-table engine: the
// hardest and largest component of this module (spec §4.2-§4.3). It builds,
// walks, clones, and shares translation trees rooted at an L2 table page,
// enforcing the alignment, leaf-uniqueness, non-overlap, and subtree
// ownership invariants from spec §3.
package pagetable

import "rvkernel/kernel/mm"

// PTE is a single Sv39 page-table entry: a 64-bit word with V, R, W, X, U,
// G, A, D and SHARED bit fields plus a physical page number (spec §3).
type PTE uint64

const (
	bitV = 1 << iota
	bitR
	bitW
	bitX
	bitU
	bitG
	bitA
	bitD
	bitSHARED
)

const (
	ppnShift = 10
	ppnMask  = PTE(0x3FFFFFFFFFF) << ppnShift
)

// Valid reports whether the V bit is set.
func (p PTE) Valid() bool { return p&bitV != 0 }

// IsLeaf reports whether any of R, W, X is set — the Sv39 rule that
// distinguishes a leaf translation from an interior pointer to the next
// table level (spec §3).
func (p PTE) IsLeaf() bool { return p&(bitR|bitW|bitX) != 0 }

// Shared reports whether the SHARED bit is set.
func (p PTE) Shared() bool { return p&bitSHARED != 0 }

// PPN extracts the physical page number field.
func (p PTE) PPN() uint64 { return uint64((p & ppnMask) >> ppnShift) }

// PA returns the physical address the PTE's PPN field points to.
func (p PTE) PA() mm.PA { return mm.PA(p.PPN() << mm.PageShift) }

// setPPN returns p with its PPN field replaced by the page number of pa.
func setPPN(p PTE, pa mm.PA) PTE {
	return (p &^ ppnMask) | (PTE(uint64(pa)>>mm.PageShift<<ppnShift) & ppnMask)
}

// newInterior returns a valid, non-leaf PTE pointing at the table page at
// pa: V=1, R=W=X=0.
func newInterior(pa mm.PA) PTE {
	return setPPN(bitV, pa)
}

// newLeaf returns a valid leaf PTE pointing at pa with the given
// permissions. SHARED is never set on a leaf (spec invariant I6).
func newLeaf(pa mm.PA, perm Perm) PTE {
	p := setPPN(PTE(bitV), pa)
	if perm&PermR != 0 {
		p |= bitR
	}
	if perm&PermW != 0 {
		p |= bitW
	}
	if perm&PermX != 0 {
		p |= bitX
	}
	if perm&PermU != 0 {
		p |= bitU
	}
	return p
}

// withShared returns p with the SHARED bit set.
func withShared(p PTE) PTE { return p | bitSHARED }

// withoutSharedAndValid returns p with both SHARED and V cleared, the
// exact pair shared_detach clears (spec §4.3, §9 open question).
func withoutSharedAndValid(p PTE) PTE { return p &^ (bitSHARED | bitV) }

// Perm is the set of Sv39 leaf permission bits, packed into 4 bits (spec
// §3). Perm values compose with |, and membership is tested with &.
type Perm uint8

const (
	PermR Perm = 1 << iota
	PermW
	PermX
	PermU
)

// Has reports whether every bit in want is set in p.
func (p Perm) Has(want Perm) bool { return p&want == want }

// permsOf packs a leaf PTE's U, X, W, R bits back into a Perm (spec §4.2
// perms_of helper).
func permsOf(p PTE) Perm {
	var out Perm
	if p&bitR != 0 {
		out |= PermR
	}
	if p&bitW != 0 {
		out |= PermW
	}
	if p&bitX != 0 {
		out |= PermX
	}
	if p&bitU != 0 {
		out |= PermU
	}
	return out
}

// setPerm returns p with its R/W/X/U bits replaced by perm, leaving V,
// PPN and every other bit untouched.
func setPerm(p PTE, perm Perm) PTE {
	p &^= PTE(bitR | bitW | bitX | bitU)
	if perm&PermR != 0 {
		p |= bitR
	}
	if perm&PermW != 0 {
		p |= bitW
	}
	if perm&PermX != 0 {
		p |= bitX
	}
	if perm&PermU != 0 {
		p |= bitU
	}
	return p
}
