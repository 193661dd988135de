package pmm

import (
	"testing"

	"rvkernel/kernel/mm"
)

func TestFreeListAllocRoundTrip(t *testing.T) {
	start, end := arenaWindow(4)
	var a FreeListAllocator
	a.Init(start, end)

	va, ok := a.AllocPage(2)
	if !ok {
		t.Fatal("expected alloc_page(2) to succeed")
	}
	a.DeallocPage(va, 2)

	if _, ok := a.AllocPage(2); !ok {
		t.Fatal("alloc_page(2) must succeed again after the matching dealloc")
	}
}

// TestPageAllocatorFragmentation is spec §8 scenario 5: allocate 4 pages,
// free pages 1 and 3 (non-adjacent), then a 3-page allocation must fail
// (no coalescing) while two single-page allocations must succeed.
func TestPageAllocatorFragmentation(t *testing.T) {
	start, end := arenaWindow(4)
	var a FreeListAllocator
	a.Init(start, end)

	var pages [4]mm.VA
	for i := range pages {
		va, ok := a.AllocPage(1)
		if !ok {
			t.Fatalf("alloc_page(1) #%d should succeed", i)
		}
		pages[i] = va
	}

	a.DeallocPage(pages[1], 1)
	a.DeallocPage(pages[3], 1)

	if _, ok := a.AllocPage(3); ok {
		t.Fatal("alloc_page(3) must fail: no coalescing of non-adjacent runs")
	}
	if _, ok := a.AllocPage(1); !ok {
		t.Fatal("alloc_page(1) should succeed from one of the freed runs")
	}
	if _, ok := a.AllocPage(1); !ok {
		t.Fatal("alloc_page(1) should succeed from the other freed run")
	}
	if _, ok := a.AllocPage(1); ok {
		t.Fatal("the region should now be fully allocated")
	}
}

func TestFreeListAllocatorStats(t *testing.T) {
	start, end := arenaWindow(4)
	var a FreeListAllocator
	a.Init(start, end)

	if runs, pages := a.Stats(); runs != 1 || pages != 4 {
		t.Fatalf("Stats() on a fresh window = (%d, %d), want (1, 4)", runs, pages)
	}

	va, _ := a.AllocPage(2)
	if runs, pages := a.Stats(); runs != 1 || pages != 2 {
		t.Fatalf("Stats() after alloc_page(2) = (%d, %d), want (1, 2)", runs, pages)
	}

	a.DeallocPage(va, 2)
	if runs, pages := a.Stats(); runs != 2 || pages != 4 {
		t.Fatalf("Stats() after dealloc without coalescing = (%d, %d), want (2, 4)", runs, pages)
	}
}

func TestFreeListAllocatorSplitsRun(t *testing.T) {
	start, end := arenaWindow(4)
	var a FreeListAllocator
	a.Init(start, end)

	if _, ok := a.AllocPage(1); !ok {
		t.Fatal("expected first alloc to succeed")
	}
	if _, ok := a.AllocPage(3); !ok {
		t.Fatal("expected remaining 3-page run to satisfy alloc_page(3)")
	}
	if _, ok := a.AllocPage(1); ok {
		t.Fatal("the region should now be exhausted")
	}
}
