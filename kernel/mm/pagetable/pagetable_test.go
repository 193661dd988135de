package pagetable

import (
	"testing"
	"unsafe"

	"rvkernel/kernel/mm"
)

// globalPhysToVA/globalVAToPhys back physOf/virtOf (see addr_indirect.go)
// for every testAllocator in this package's tests. A single shared table
// keyed by a package-wide PPN counter lets two independent testAllocator
// instances coexist in the same test (Clone and Assign copy between
// distinct allocators) without their synthetic physical addresses
// colliding.
var (
	globalPhysToVA = map[mm.PA]mm.VA{}
	globalVAToPhys = map[mm.VA]mm.PA{}
	nextTestPPN    = uint64(1)
)

func init() {
	physOf = func(va mm.VA) mm.PA { return globalVAToPhys[va] }
	virtOf = func(pa mm.PA) mm.VA { return globalPhysToVA[pa] }
}

// testAllocator is a small bump/free-list page allocator over real,
// heap-allocated backing pages, standing in for pmm.FreeListAllocator in
// these unit tests. Its capacity limit models running out of physical
// memory (spec §7.1's recoverable "out-of-physical-memory" case). pages
// holds every backing page handed out, keeping it on the heap and alive
// while only its address is recorded in the PA/VA maps.
type testAllocator struct {
	capacity int
	free     []mm.PA
	pages    []*[mm.PageSize]byte
}

func newTestAllocator(capacity int) *testAllocator {
	return &testAllocator{capacity: capacity}
}

func (a *testAllocator) AllocPage(count int) (mm.VA, bool) {
	if count != 1 {
		return 0, false
	}
	var pa mm.PA
	if n := len(a.free); n > 0 {
		pa = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if a.capacity <= 0 {
			return 0, false
		}
		a.capacity--
		pa = mm.PA(nextTestPPN << mm.PageShift)
		nextTestPPN++
	}
	page := new([mm.PageSize]byte)
	a.pages = append(a.pages, page)
	va := mm.VA(uintptr(unsafe.Pointer(page)))
	globalPhysToVA[pa] = va
	globalVAToPhys[va] = pa
	return va, true
}

func (a *testAllocator) DeallocPage(va mm.VA, _ int) {
	pa, ok := globalVAToPhys[va]
	if !ok {
		return
	}
	a.free = append(a.free, pa)
}

func TestBaseMappingRoundTrip(t *testing.T) {
	alloc := newTestAllocator(8)
	pt := New[*testAllocator](alloc)

	pt.AddMapping(mm.VA(0x1000), mm.PA(0x8000_2000), PermR|PermW, mm.L0)

	if got := pt.Transform(mm.VA(0x1000)); got != mm.PA(0x8000_2000) {
		t.Fatalf("transform(0x1000) = %x, want 0x8000_2000", uint64(got))
	}
	if got := pt.Transform(mm.VA(0x1FFF)); got != mm.PA(0x8000_2FFF) {
		t.Fatalf("transform(0x1FFF) = %x, want 0x8000_2FFF", uint64(got))
	}
	if got := pt.GetPagePerm(mm.VA(0x1000)); got != PermR|PermW {
		t.Fatalf("get_page_perm = %v, want R|W", got)
	}
}

func TestHugepageCollisionPanics(t *testing.T) {
	alloc := newTestAllocator(8)
	pt := New[*testAllocator](alloc)
	pt.AddMapping(mm.VA(0x4000_0000), mm.PA(0xC000_0000), PermR, mm.L2)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mapping BASE inside an active hugepage")
		}
	}()
	pt.AddMapping(mm.VA(0x4000_1000), mm.PA(0xD000_0000), PermR, mm.L0)
}

func TestDeepCopyIndependence(t *testing.T) {
	alloc1 := newTestAllocator(16)
	t1 := New[*testAllocator](alloc1)

	vas := []mm.VA{0x1000, 0x2000, 0x3000}
	for i, va := range vas {
		t1.AddMapping(va, mm.PA(0x9000_0000+uint64(i)*mm.PageSize), PermR|PermW, mm.L0)
	}

	alloc2 := newTestAllocator(16)
	t2 := Clone[*testAllocator](t1, alloc2)

	t1.DelMapping(vas[0])

	if got := t2.Transform(vas[0]); got != mm.PA(0x9000_0000) {
		t.Fatalf("t2.transform survives independently: got %x", uint64(got))
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected t1.transform(vas[0]) to panic after del_mapping")
			}
		}()
		t1.Transform(vas[0])
	}()
}

func TestSubtreeShareAndDetach(t *testing.T) {
	alloc := newTestAllocator(16)
	t1 := New[*testAllocator](alloc)

	t1.AddMapping(mm.VA(0x1000), mm.PA(0x9000_0000), PermR, mm.L0)
	t1.AddMapping(mm.VA(0x2000), mm.PA(0x9000_1000), PermR, mm.L0)

	t2 := t1.SharedCopy()

	third := mm.VA(0x3000)
	t1.AddMapping(third, mm.PA(0x9000_2000), PermR, mm.L0)

	if got := t2.Transform(third); got != mm.PA(0x9000_2000) {
		t.Fatalf("t2 does not observe t1's new mapping through the shared subtree: %x", uint64(got))
	}

	t2.SharedDetach(0, mm.VA(mm.HugePageSize))

	for _, va := range []mm.VA{0x1000, 0x2000, third} {
		func(va mm.VA) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected t2.transform(%x) to panic after shared_detach", uint64(va))
				}
			}()
			t2.Transform(va)
		}(va)
	}

	if got := t1.Transform(mm.VA(0x1000)); got != mm.PA(0x9000_0000) {
		t.Fatalf("t1 must be unaffected by t2's detach: got %x", uint64(got))
	}

	freeBefore := len(alloc.free)
	t2.Destroy()
	freeAfter := len(alloc.free)
	if freeAfter-freeBefore != 1 {
		t.Fatalf("destroying t2 should free only its own root page, freed %d pages", freeAfter-freeBefore)
	}

	if got := t1.Transform(mm.VA(0x1000)); got != mm.PA(0x9000_0000) {
		t.Fatalf("t1's L1 page must survive t2's destruction: got %x", uint64(got))
	}
}

func TestSharedMarkAttach(t *testing.T) {
	alloc := newTestAllocator(16)
	t1 := New[*testAllocator](alloc)
	t1.AddMapping(mm.VA(0x1000), mm.PA(0x9000_0000), PermR|PermW, mm.L0)

	t1.SharedMark(0, mm.VA(mm.HugePageSize))

	t2 := New[*testAllocator](alloc)
	t2.SharedAttach(t1, 0, mm.VA(mm.HugePageSize))

	if got := t2.Transform(mm.VA(0x1000)); got != mm.PA(0x9000_0000) {
		t.Fatalf("t2 did not observe t1's marked subtree: %x", uint64(got))
	}

	t1.AddMapping(mm.VA(0x1000+mm.PageSize), mm.PA(0x9000_1000), PermR, mm.L0)
	if got := t2.Transform(mm.VA(0x1000 + mm.PageSize)); got != mm.PA(0x9000_1000) {
		t.Fatalf("writes through t1 must be observable through t2: %x", uint64(got))
	}
}

func TestDelMappingThenTransformPanics(t *testing.T) {
	alloc := newTestAllocator(8)
	pt := New[*testAllocator](alloc)
	pt.AddMapping(mm.VA(0x1000), mm.PA(0x8000_0000), PermR, mm.L0)
	pt.DelMapping(mm.VA(0x1000))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected transform to panic after del_mapping")
			}
		}()
		pt.Transform(mm.VA(0x1000))
	}()

	pt.AddMapping(mm.VA(0x1000), mm.PA(0x8000_0000), PermR, mm.L0)
	if got := pt.Transform(mm.VA(0x1000)); got != mm.PA(0x8000_0000) {
		t.Fatalf("re-adding the mapping should succeed: got %x", uint64(got))
	}
}

func TestGetPagePermUnmappedPanics(t *testing.T) {
	alloc := newTestAllocator(8)
	pt := New[*testAllocator](alloc)

	defer func() {
		if recover() == nil {
			t.Fatal("expected get_page_perm to panic on an unmapped VA")
		}
	}()
	pt.GetPagePerm(mm.VA(0x1000))
}

func TestSetPagePerm(t *testing.T) {
	alloc := newTestAllocator(8)
	pt := New[*testAllocator](alloc)
	pt.AddMapping(mm.VA(0x1000), mm.PA(0x8000_0000), PermR, mm.L0)
	pt.SetPagePerm(mm.VA(0x1000), PermR|PermW|PermX)
	if got := pt.GetPagePerm(mm.VA(0x1000)); got != PermR|PermW|PermX {
		t.Fatalf("set_page_perm did not take effect: got %v", got)
	}
}
