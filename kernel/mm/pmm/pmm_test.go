package pmm

import (
	"unsafe"

	"rvkernel/kernel/mm"
)

// arenaWindow allocates a real, page-aligned host buffer and installs a
// physToVA override that maps a chosen fake physical window onto it, so
// Init/AllocPage/DeallocPage's direct-map arithmetic dereferences real
// memory instead of an unmapped kernel VA. Returns the [start, end) PA
// window callers should pass to Init.
func arenaWindow(pages int) (start, end mm.PA) {
	const fakeBase = mm.PA(0x1000)
	buf := make([]byte, (pages+1)*int(mm.PageSize))
	base := uintptr(unsafe.Pointer(&buf[0]))
	// Round the backing buffer up to a page boundary so headers land on
	// PAGE-aligned offsets, matching the alignment Init requires of the
	// PA window itself.
	aligned := (base + uintptr(mm.PageSize) - 1) &^ uintptr(mm.PageSize-1)

	physToVA = func(pa mm.PA) mm.VA {
		return mm.VA(aligned + uintptr(pa-fakeBase))
	}

	start = fakeBase
	end = fakeBase.Add(int64(pages) * int64(mm.PageSize))
	return start, end
}
