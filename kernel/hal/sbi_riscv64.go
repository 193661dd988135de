//go:build riscv64

package hal

// sbiCallReal issues an 8-argument ecall to the SBI firmware and returns the
// (error, value) pair conventionally returned in a0/a1. It is implemented in
// architecture-specific assembly outside this module's scope (§6, "a single
// 8-argument ecall shim").
func sbiCallReal(extensionID, functionID uint64, arg0, arg1, arg2, arg3, arg4, arg5 uint64) (int64, uint64)

func init() {
	sbiCall = sbiCallReal
}
