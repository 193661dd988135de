package hal

// everyHartMask requests a broadcast to every hart in the system.
const everyHartMask = ^uint64(0)

// rfenceExtensionID is the SBI RFENCE extension ID ("RFNC").
const rfenceExtensionID = 0x52464E43

// remoteSFenceVMAFuncID is the SBI RFENCE extension's
// sbi_remote_sfence_vma function ID.
const remoteSFenceVMAFuncID = 1

// sbiCall is a package-level variable so tests can substitute a fake SBI
// firmware; the riscv64 build's init rebinds it to the real ecall shim in
// sbi_riscv64.go.
var sbiCall = func(extensionID, functionID, arg0, arg1, arg2, arg3, arg4, arg5 uint64) (int64, uint64) {
	return 0, 0
}

// sbiRemoteFenceI asks the SBI firmware to invalidate every TLB entry, for
// every virtual address, on every hart selected by hartMask.
func sbiRemoteFenceI(hartMask uint64) {
	sbiCall(rfenceExtensionID, remoteSFenceVMAFuncID, hartMask, 0, 0, ^uint64(0), 0, 0)
}

// sbiRemoteSFenceVMA asks the SBI firmware to invalidate the TLB entries
// covering [startVA, startVA+size) on every hart selected by hartMask.
func sbiRemoteSFenceVMA(hartMask, startVA, size uint64) {
	sbiCall(rfenceExtensionID, remoteSFenceVMAFuncID, hartMask, 0, startVA, size, 0, 0)
}
