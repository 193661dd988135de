// Package hal declares the architecture hooks that the virtual-memory core
// consumes but does not implement itself: TLB invalidation, the SATP-like
// page table base register, interrupt masking, and the halt sequence used by
// panic. These are provided by riscv64 assembly and boot code that lives
// outside this module's scope (trap/boot assembly, SBI call wrappers,
// per-architecture register touches).
//
// Every hook is a package-level function variable, the same pattern the
// teacher uses for its cpu.* wrappers (mapFn, activePDTFn, ...): it lets the
// architecture-independent core packages be unit tested on any host, while
// hal_riscv64.go's init rebinds each variable to the real asm-backed
// implementation when built for riscv64.
//
// All functions here operate on raw uint64 values rather than the mm
// package's PA/VA newtypes so that this package has no dependency on mm
// (mm depends on hal being a leaf, not the other way around).
package hal

// PageSize, MidPageSize and HugePageSize mirror the Sv39 leaf granularities.
// The core's mm package defines the authoritative constants; these exist
// only so hal's own signatures are self-describing.
const (
	PageSize     = uint64(1) << 12
	MidPageSize  = uint64(1) << 21
	HugePageSize = uint64(1) << 30
)

var (
	// TLBFlush invalidates every TLB entry on the local hart.
	TLBFlush = func() {}

	// TLBFlushVA invalidates the TLB entry that translates va on the
	// local hart.
	TLBFlushVA = func(va uint64) {}

	// activeSATP backs the default PageTableBase and SetPageTableBase
	// below; the in-memory value lets unit tests install and read back a
	// root without a real SATP register.
	activeSATP uint64

	// PageTableBase returns the physical address of the currently active
	// root page table (the value installed in SATP, without the
	// mode/ASID bits).
	PageTableBase = func() uint64 { return activeSATP }

	// SetPageTableBase installs pa as the root page table and flushes
	// the TLB.
	SetPageTableBase = func(pa uint64) { activeSATP = pa; TLBFlush() }

	interruptsEnabled = true

	// IsInterruptOn reports whether interrupts are currently enabled on
	// the local hart.
	IsInterruptOn = func() bool { return interruptsEnabled }

	// InterruptOn enables interrupts on the local hart.
	InterruptOn = func() { interruptsEnabled = true }

	// InterruptOff disables interrupts on the local hart.
	InterruptOff = func() { interruptsEnabled = false }

	// Halt stops instruction execution on the local hart. It never
	// returns on real hardware; the portable default panics instead of
	// spinning forever so a host-run test suite fails loudly if it is
	// ever reached unexpectedly.
	Halt = func() { panic("hal: Halt reached without a riscv64 backend") }
)

// RemoteTLBFlush invalidates every TLB entry on every other hart via an SBI
// broadcast (see sbi.go).
func RemoteTLBFlush() {
	sbiRemoteFenceI(everyHartMask)
}

// RemoteTLBFlushRange invalidates the TLB entries covering [va, va+length)
// on every other hart.
func RemoteTLBFlushRange(va uint64, length uint64) {
	sbiRemoteSFenceVMA(everyHartMask, va, length)
}

// PanicHandler is invoked by kfmt.Panic immediately before the hart halts.
// It defaults to a no-op; boot code may install a handler that, e.g., pokes
// a debug UART or notifies other harts. Idle/halt itself always happens in
// Halt, regardless of what PanicHandler does.
var PanicHandler func(ctx interface{}) = func(interface{}) {}
