// Package kmain wires the tiered memory allocators together in the order
// spec §2 describes and exposes the single entry point rt0 assembly jumps
// into once it has set up a stack and cleared bss.
package kmain

import (
	"rvkernel/kernel"
	"rvkernel/kernel/hal"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mm"
	"rvkernel/kernel/mm/alloc"
	"rvkernel/kernel/mm/pagetable"
	"rvkernel/kernel/mm/pmm"
	"rvkernel/kernel/mm/slab"
	"rvkernel/kernel/mm/vmalloc"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// KernelPageTable, SlabAllocator, VpageAllocator and Allocator are the
// concrete instantiations wired up by Init, exported so boot code and
// trap/syscall plumbing outside this module's scope can reach them. The
// page table's own interior pages are always drawn from the boot
// allocator (spec §2's "page-table engine, parameterized by a page
// allocator, builds the kernel's initial mapping") — it is never torn
// down, so it never needs the free-list allocator's ability to reclaim.
type (
	KernelPageTable = pagetable.PageTable[*pmm.BootAllocator]
	SlabAllocator   = slab.Allocator[*pmm.FreeListAllocator]
	VpageAllocator  = vmalloc.Allocator[*KernelPageTable, *pmm.FreeListAllocator, *SlabAllocator]
	Allocator       = alloc.Allocator[*SlabAllocator, *pmm.FreeListAllocator, *VpageAllocator]
)

var (
	boot  pmm.BootAllocator
	pages pmm.FreeListAllocator
	pt    *KernelPageTable
	slabs *SlabAllocator
	vm    *VpageAllocator

	// Kalloc is the generic size-dispatching allocator (spec §4.9), the
	// entry point every other subsystem in the kernel allocates through
	// once Init has returned.
	Kalloc *Allocator
)

// Init performs the control-flow sequence spec §2 describes: boot code
// supplies physStart/physEnd as the free physical window; the boot
// allocator bootstraps a page table mapping [identityStart, identityEnd)
// R|W; the free-list allocator takes over whatever of the window the boot
// allocator did not consume; slab is layered on the free-list allocator;
// the kernel page table is installed in SATP; vmalloc is initialized atop
// slab, the free-list allocator and the now-live page table; and the
// generic allocator dispatches across all three.
func Init(physStart, physEnd mm.PA, identityStart, identityEnd mm.VA) {
	boot.Init(physStart, physEnd)
	boot.DumpRegion(physStart, physEnd)

	pt = pagetable.New[*pmm.BootAllocator](&boot)
	for va := identityStart; va < identityEnd; va = va.Add(int64(mm.PageSize)) {
		pt.AddMapping(va, mm.PA(uint64(va)), pagetable.PermR|pagetable.PermW, mm.L0)
	}

	pages.Init(boot.NextPhys(), physEnd)
	runs, free := pages.Stats()
	kfmt.Printf("free-list allocator online: %d runs, %d pages free\n", runs, free)

	slabs = slab.New[*pmm.FreeListAllocator](&pages)

	hal.SetPageTableBase(uint64(pt.Entry()))

	vm = vmalloc.New[*KernelPageTable, *pmm.FreeListAllocator, *SlabAllocator](
		pt, &pages, slabs, mm.VA(mm.VmallocStart), mm.VA(mm.VmallocEnd))

	Kalloc = alloc.New[*SlabAllocator, *pmm.FreeListAllocator, *VpageAllocator](slabs, &pages, vm)
}

// Kmain is the only Go symbol rt0 assembly calls into. physStart/physEnd
// bound the physical memory window the bootloader reported as free;
// identityStart/identityEnd bound the kernel image's own virtual range.
// Kmain never returns; if the init sequence above ever falls through, that
// is treated as a fatal error rather than allowed to fall off the end of
// the function into whatever rt0 left on the stack.
//
//go:noinline
func Kmain(physStart, physEnd mm.PA, identityStart, identityEnd mm.VA) {
	kfmt.Printf("starting kernel virtual memory init\n")

	Init(physStart, physEnd, identityStart, identityEnd)

	kfmt.Printf("virtual memory core ready\n")

	kfmt.Panic(errKmainReturned)
}
