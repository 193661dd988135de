package vmalloc

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

func fatalf(format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: "vmalloc", Message: kfmt.Sprintf(format, args...)})
}
