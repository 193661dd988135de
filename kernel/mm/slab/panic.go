package slab

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

func fatalf(format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: "slab", Message: kfmt.Sprintf(format, args...)})
}
