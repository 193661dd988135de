// Package mm defines the address-space data model shared by every other
// package in this module: the PA/VA newtypes, the three Sv39 page
// granularities, and the fixed virtual-address windows (spec §3, §4.1).
//
// This is the architecture-independent bottom of the dependency graph: it
// depends on kernel and kfmt (for panics; kfmt in turn uses hal's halt and
// panic hooks) but not on sync or any allocator package, so it can be
// imported and unit tested in isolation exactly the way the teacher's
// kernel/mm leaf package is.
package mm

// Page granularities supported by the Sv39 MMU.
const (
	PageShift = 12
	PageSize  = uint64(1) << PageShift // 4 KiB, an L0 leaf.

	MidPageShift = 21
	MidPageSize  = uint64(1) << MidPageShift // 2 MiB, an L1 leaf.

	HugePageShift = 30
	HugePageSize  = uint64(1) << HugePageShift // 1 GiB, an L2 leaf.
)

// Address-space layout. See spec §3 "Address-space layout".
const (
	// UserStart and UserEnd bound the user half of the address space.
	UserStart = uint64(1) << 30          // 1 GiB
	UserEnd   = uint64(256) << 30        // 256 GiB
	// DirectMapBase is the VA that corresponds to physical address 0
	// under the direct map; DirectMapLimit bounds the physical range it
	// covers.
	DirectMapBase  = uint64(0xFFFFFFC000000000)
	DirectMapLimit = uint64(128) << 30 // 128 GiB

	// VmallocStart and VmallocEnd bound the vmalloc window.
	VmallocStart = uint64(0xFFFFFFE000000000)
	VmallocEnd   = uint64(0xFFFFFFF400000000)

	// KernelImageStart and KernelImageEnd bound the kernel image window.
	KernelImageStart = uint64(0xFFFFFFFF00000000)
	KernelImageEnd   = uint64(0xFFFFFFFFFFFFFFFF)
)

// PageLevel names a level in the three-level Sv39 walk.
type PageLevel uint8

const (
	// L0 leaves map a single PAGE (4 KiB).
	L0 PageLevel = iota
	// L1 leaves map a single MID page (2 MiB).
	L1
	// L2 is the root level; its leaves map a single HUGE page (1 GiB).
	L2
)

// levelShift holds, per level, the bit shift used to extract a VA's index
// at that level.
var levelShift = [3]uint{L0: 12, L1: 21, L2: 30}

// PageSizeForLevel returns the leaf page size for a mapping installed at
// level. It panics on an invalid level (spec §7.2 "invalid page-level enum").
func PageSizeForLevel(level PageLevel) uint64 {
	switch level {
	case L0:
		return PageSize
	case L1:
		return MidPageSize
	case L2:
		return HugePageSize
	default:
		fatalf("mm", "invalid page level %d", level)
		return 0
	}
}
