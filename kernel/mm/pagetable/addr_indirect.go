package pagetable

import "rvkernel/kernel/mm"

// physOf and virtOf translate a table page between its virtual and
// physical address. They default to the kernel's direct map and are
// overridden by tests, which run on a host with no direct map to
// dereference through — mirroring the hal package's function-variable
// indirection for the same reason.
var (
	physOf = func(va mm.VA) mm.PA { return va.ToPA() }
	virtOf = func(pa mm.PA) mm.VA { return pa.ToVA() }
)
