package pagetable

import "rvkernel/kernel/mm"

// table is a single 4 KiB page of 512 PTEs (spec §3, "Each table page has
// 512 PTEs").
type table = [512]PTE

// tableAt reinterprets the physical page at pa as a table through the
// direct map.
func tableAt(pa mm.PA) *table {
	return mm.As[table](virtOf(pa))
}

// levelShift returns the shift used to extract level's 9-bit index out of a
// virtual address: L0 -> 12, L1 -> 21, L2 -> 30 (spec §4.2 pte_idx).
func levelShift(level mm.PageLevel) uint {
	switch level {
	case mm.L0:
		return 12
	case mm.L1:
		return 21
	case mm.L2:
		return 30
	default:
		fatalf("pagetable: invalid page level %d", level)
		return 0
	}
}

// pteIdx extracts the 9-bit index at level from va.
func pteIdx(va mm.VA, level mm.PageLevel) uint64 {
	return (uint64(va) >> levelShift(level)) & 0x1FF
}
