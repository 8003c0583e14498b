package pfa

import (
	"runtime"
	"testing"
	"unsafe"

	"vmcore/kernel/mem"
)

func newTestAllocator(t *testing.T, frames uint64) *Allocator {
	words := (frames + wordBits - 1) / wordBits
	storage := make([]uint64, words)

	var a Allocator
	a.Init(mem.Size(frames)*mem.PageSize, uintptr(unsafe.Pointer(&storage[0])))
	t.Cleanup(func() { runtime.KeepAlive(storage) })
	return &a
}

func TestInitMarksEverythingUsed(t *testing.T) {
	a := newTestAllocator(t, 128)

	if _, err := a.AllocBlock(); err == nil {
		t.Fatal("expected AllocBlock to fail before any region is marked free")
	}
}

func TestMarkRegionFreeThenAlloc(t *testing.T) {
	a := newTestAllocator(t, 16)
	a.MarkRegionFree(0, mem.Size(16)*mem.PageSize)

	seen := make(map[mem.Frame]bool)
	for i := 0; i < 16; i++ {
		f, err := a.AllocBlock()
		if err != nil {
			t.Fatalf("unexpected error on alloc %d: %v", i, err)
		}
		if seen[f] {
			t.Fatalf("frame %d allocated twice", f)
		}
		seen[f] = true
	}

	if _, err := a.AllocBlock(); err == nil {
		t.Fatal("expected OUT_OF_MEMORY once all frames are allocated")
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	a := newTestAllocator(t, 32)
	a.MarkRegionFree(0, mem.Size(32)*mem.PageSize)

	before := append([]uint64(nil), a.bitmap...)

	var allocated []mem.Frame
	for i := 0; i < 10; i++ {
		f, err := a.AllocBlock()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		allocated = append(allocated, f)
	}

	for _, f := range allocated {
		a.FreeBlock(f)
	}

	for i, word := range a.bitmap {
		if word != before[i] {
			t.Fatalf("bitmap word %d mismatch after alloc/free round-trip: got %x want %x", i, word, before[i])
		}
	}
}

func TestFreeBlockRewindsHint(t *testing.T) {
	a := newTestAllocator(t, 8)
	a.MarkRegionFree(0, mem.Size(8)*mem.PageSize)

	f0, _ := a.AllocBlock()
	f1, _ := a.AllocBlock()
	_ = f1

	a.FreeBlock(f0)
	if a.lastFreeHint != uint64(f0) {
		t.Fatalf("expected hint to rewind to %d, got %d", f0, a.lastFreeHint)
	}
}

func TestDoubleFreeIsLoggedNotFatal(t *testing.T) {
	a := newTestAllocator(t, 8)
	a.MarkRegionFree(0, mem.Size(8)*mem.PageSize)

	f, _ := a.AllocBlock()
	a.FreeBlock(f)
	if a.DoubleFreeObserved() {
		t.Fatal("did not expect a double free yet")
	}

	a.FreeBlock(f)
	if !a.DoubleFreeObserved() {
		t.Fatal("expected double free to be recorded")
	}
}

func TestAllocContiguousPicksLowestAddressRun(t *testing.T) {
	a := newTestAllocator(t, 32)
	a.MarkRegionFree(0, mem.Size(32)*mem.PageSize)

	// Reserve frame 2 so the first 4-frame run only exists starting at 3.
	a.MarkRegionUsed(2*uintptr(mem.PageSize), mem.PageSize)

	f, err := a.AllocContiguous(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 3 {
		t.Fatalf("expected contiguous run to start at frame 3, got %d", f)
	}
}

func TestAllocContiguousExhaustion(t *testing.T) {
	a := newTestAllocator(t, 4)
	a.MarkRegionFree(0, mem.Size(4)*mem.PageSize)

	if _, err := a.AllocContiguous(5); err == nil {
		t.Fatal("expected OUT_OF_MEMORY for a run larger than the pool")
	}
}

// TestBootstrapExhaustion mirrors scenario S4: 4 total frames, bootstrap
// consumes 3 of them, leaving exactly one available.
func TestBootstrapExhaustion(t *testing.T) {
	a := newTestAllocator(t, 4)
	a.MarkRegionFree(0, mem.Size(4)*mem.PageSize)
	a.MarkRegionUsed(0, mem.Size(3)*mem.PageSize)

	if _, err := a.AllocBlock(); err != nil {
		t.Fatalf("expected the last free frame to be allocatable: %v", err)
	}
	if _, err := a.AllocBlock(); err == nil {
		t.Fatal("expected OUT_OF_MEMORY once the last frame is gone")
	}
}
