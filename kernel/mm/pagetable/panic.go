package pagetable

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

// fatalf builds a *kernel.Error tagged "pagetable" and panics through
// kfmt.Panic. Every contract violation this package documents (misaligned
// address, overlapping mapping, walk off the end of a valid PTE chain) is
// fatal per spec §7.2 — there is no error-return path through this engine.
func fatalf(format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: "pagetable", Message: kfmt.Sprintf(format, args...)})
}
