package alloc

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

func fatalf(format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: "alloc", Message: kfmt.Sprintf(format, args...)})
}
