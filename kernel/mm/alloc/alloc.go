// Package alloc implements the generic, size-dispatching allocator that
// sits in front of the slab, page and vmalloc tiers (spec §4.9).
package alloc

import "rvkernel/kernel/mm"

// SlabThreshold is the largest request routed to the slab allocator.
const SlabThreshold = 2048

// PageThreshold is the largest request routed to the page allocator; PAGE
// in spec §4.9, deliberately 2*PAGESIZE rather than PAGESIZE.
const PageThreshold = 2 * mm.PageSize

// SlabAllocator is the small-object tier.
type SlabAllocator interface {
	AllocByte(s int) (mm.VA, bool)
	DeallocByte(va mm.VA, s int)
}

// PageAllocator is the whole-page tier.
type PageAllocator interface {
	AllocPage(n int) (mm.VA, bool)
	DeallocPage(va mm.VA, n int)
}

// VpageAllocator is the virtually-contiguous tier.
type VpageAllocator interface {
	AllocVpage(n int) (mm.VA, bool)
	DeallocVpage(va mm.VA)
}

// Allocator dispatches a request to slab, page or vmalloc by size (spec
// §4.9). It holds no state and no lock of its own — each tier serializes
// its own operations.
type Allocator[S SlabAllocator, P PageAllocator, V VpageAllocator] struct {
	slab  S
	page  P
	vpage V
}

// New builds a generic allocator dispatching across the three given tiers.
func New[S SlabAllocator, P PageAllocator, V VpageAllocator](slab S, page P, vpage V) *Allocator[S, P, V] {
	return &Allocator[S, P, V]{slab: slab, page: page, vpage: vpage}
}

// pagesFor returns ceil(n / PageThreshold), the page/vpage tier request
// count spec §4.9 specifies literally.
func pagesFor(n int) int {
	return (n + int(PageThreshold) - 1) / int(PageThreshold)
}

// Alloc dispatches n bytes to slab (n <= SLAB), the page allocator
// (n <= PAGE), or vmalloc (n > PAGE), per spec §4.9.
func (a *Allocator[S, P, V]) Alloc(n int) (mm.VA, bool) {
	switch {
	case n <= SlabThreshold:
		return a.slab.AllocByte(n)
	case n <= int(PageThreshold):
		return a.page.AllocPage(pagesFor(n))
	default:
		return a.vpage.AllocVpage(pagesFor(n))
	}
}

// Dealloc returns an allocation of size n (the same n passed to the Alloc
// call that produced va — spec §4.9 "dispatches on the same size, caller
// must pass it") to the tier that would have served it.
func (a *Allocator[S, P, V]) Dealloc(va mm.VA, n int) {
	switch {
	case n <= SlabThreshold:
		a.slab.DeallocByte(va, n)
	case n <= int(PageThreshold):
		a.page.DeallocPage(va, pagesFor(n))
	default:
		a.vpage.DeallocVpage(va)
	}
}
