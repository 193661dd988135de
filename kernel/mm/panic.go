package mm

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

// fatalf builds a *kernel.Error tagged with module and panics through
// kfmt.Panic. Every invariant violation this package detects (misaligned
// address passed to an aligned interface, address outside the direct map,
// invalid page level) is fatal per spec §7.2.
func fatalf(module, format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: module, Message: kfmt.Sprintf(format, args...)})
}
