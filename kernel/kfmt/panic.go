package kfmt

import (
	"rvkernel/kernel"
	"rvkernel/kernel/hal"
)

// haltFn is a variable so that tests can replace it; it is bound to hal.Halt,
// which the riscv64 build rebinds to the real halt loop.
var haltFn = hal.Halt

var errUnknownPanic = &kernel.Error{Module: "kfmt", Message: "unknown cause"}

// Panic prints the supplied error (a *kernel.Error or a string) to the
// console, invokes hal.PanicHandler, and halts the hart. It never returns.
// Every invariant violation in this module (spec §7.2) funnels through here.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		err = &kernel.Error{Module: "panic", Message: t}
	case error:
		err = &kernel.Error{Module: "panic", Message: t.Error()}
	default:
		err = errUnknownPanic
	}

	Printf("\n-----------------------------------\n")
	Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	Printf("*** kernel panic: system halted ***\n")
	Printf("-----------------------------------\n")

	hal.PanicHandler(err)
	haltFn()
}
