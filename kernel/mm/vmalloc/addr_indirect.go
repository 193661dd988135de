package vmalloc

import "rvkernel/kernel/mm"

// vaToPhys and physToVA translate the physical pages handed out by the
// page allocator through the kernel's direct map. Tests override both,
// mirroring the same indirection used in pagetable and pmm, since a host
// test binary has no direct map to dereference through.
var (
	vaToPhys = func(va mm.VA) mm.PA { return va.ToPA() }
	physToVA = func(pa mm.PA) mm.VA { return pa.ToVA() }
)
