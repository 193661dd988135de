package pmm

import "rvkernel/kernel/mm"

// physToVA resolves the physical window handed to Init into a virtual
// address through the kernel's direct map. Tests, which run on a host
// with no direct map, override it to point at real backing memory —
// mirroring the pagetable package's physOf/virtOf indirection.
var physToVA = func(pa mm.PA) mm.VA { return pa.ToVA() }
