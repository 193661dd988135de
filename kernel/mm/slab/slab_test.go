package slab

import (
	"testing"
	"unsafe"

	"rvkernel/kernel/mm"
)

// testPageAllocator hands back real, heap-backed pages so refill's writes
// through mm.As land on live memory (there is no direct map on the host
// running these tests). pages keeps every page handed out on the heap and
// alive, since the allocator under test only records its address.
type testPageAllocator struct {
	allocs int
	pages  []*[mm.PageSize]byte
}

func (a *testPageAllocator) AllocPage(n int) (mm.VA, bool) {
	if n != 1 {
		return 0, false
	}
	a.allocs++
	page := new([mm.PageSize]byte)
	a.pages = append(a.pages, page)
	return mm.VA(uintptr(unsafe.Pointer(page))), true
}

func TestAllocDeallocRoundTrip(t *testing.T) {
	a := New[*testPageAllocator](&testPageAllocator{})
	va, ok := a.AllocByte(32)
	if !ok {
		t.Fatal("expected alloc_byte(32) to succeed")
	}
	a.DeallocByte(va, 32)
	va2, ok := a.AllocByte(32)
	if !ok || va2 != va {
		t.Fatalf("expected the freed object to be reused, got %x", uint64(va2))
	}
}

func TestZeroSizeReturnsFalse(t *testing.T) {
	a := New[*testPageAllocator](&testPageAllocator{})
	if _, ok := a.AllocByte(0); ok {
		t.Fatal("alloc_byte(0) must fail")
	}
}

func TestOversizePanics(t *testing.T) {
	a := New[*testPageAllocator](&testPageAllocator{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected alloc_byte(>2048) to panic")
		}
	}()
	a.AllocByte(4096)
}

func TestExactClassMatchFor96And192(t *testing.T) {
	cases := []struct{ size, want int }{
		{96, 4}, {192, 6}, {97, 5}, {100, 5}, {8, 0}, {2048, 10},
	}
	for _, c := range cases {
		if got := classIndexFor(c.size); got != c.want {
			t.Errorf("classIndexFor(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestRefillProducesDistinctObjectsInAddressOrder(t *testing.T) {
	pa := &testPageAllocator{}
	a := New[*testPageAllocator](pa)

	const n = 20
	var vas [n]mm.VA
	for i := 0; i < n; i++ {
		va, ok := a.AllocByte(2048)
		if !ok {
			t.Fatalf("alloc %d failed", i)
		}
		vas[i] = va
	}
	seen := map[mm.VA]bool{}
	for _, va := range vas {
		if seen[va] {
			t.Fatalf("duplicate object handed out: %x", uint64(va))
		}
		seen[va] = true
	}
	// Each refilled page holds two 2048-byte objects, handed out lower
	// address first.
	for i := 0; i+1 < n; i += 2 {
		if vas[i+1] != vas[i].Add(2048) {
			t.Fatalf("objects of one refilled page are not in address order: %x then %x", uint64(vas[i]), uint64(vas[i+1]))
		}
	}
	if pa.allocs < 2 {
		t.Fatalf("expected refill to have drawn more than one page for %d 2048-byte objects, got %d", n, pa.allocs)
	}
}
