package pmm

import (
	"rvkernel/kernel"
	"rvkernel/kernel/kfmt"
)

func fatalf(format string, args ...interface{}) {
	kfmt.Panic(&kernel.Error{Module: "pmm", Message: kfmt.Sprintf(format, args...)})
}
