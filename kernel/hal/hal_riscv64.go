//go:build riscv64

package hal

// The functions below have no Go body: they are implemented in
// architecture-specific assembly that ships with the boot/trap code, which
// is out of scope for this module (spec §1).

// archTLBFlush executes "sfence.vma zero, zero".
func archTLBFlush()

// archTLBFlushVA executes "sfence.vma va, zero".
func archTLBFlushVA(va uint64)

// archReadSATP reads the satp CSR and returns the physical root page table
// address (mode/ASID bits stripped).
func archReadSATP() uint64

// archWriteSATP writes satp with Sv39 mode selected and pa as the root page
// table, then issues a global sfence.vma.
func archWriteSATP(pa uint64)

// archReadSSTATUSIE reads the SIE bit of sstatus.
func archReadSSTATUSIE() bool

// archSetSSTATUSIE sets or clears the SIE bit of sstatus.
func archSetSSTATUSIE(on bool)

// archHalt executes "wfi" in a loop and never returns.
func archHalt()

func init() {
	TLBFlush = archTLBFlush
	TLBFlushVA = archTLBFlushVA
	PageTableBase = archReadSATP
	SetPageTableBase = archWriteSATP
	IsInterruptOn = archReadSSTATUSIE
	InterruptOn = func() { archSetSSTATUSIE(true) }
	InterruptOff = func() { archSetSSTATUSIE(false) }
	Halt = archHalt
}
