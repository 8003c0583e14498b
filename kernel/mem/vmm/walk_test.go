package vmm

import (
	"testing"
	"unsafe"

	"vmcore/kernel"
	"vmcore/kernel/mem"
)

func TestPtePtrFn(t *testing.T) {
	// Dummy test to keep coverage happy
	if exp, got := unsafe.Pointer(uintptr(123)), ptePtrFn(uintptr(123)); exp != got {
		t.Fatalf("expected ptePtrFn to return %v; got %v", exp, got)
	}
}

func TestWalkAmd64(t *testing.T) {
	defer func(orig func(uintptr) unsafe.Pointer) { ptePtrFn = orig }(ptePtrFn)
	defer func(orig func(uintptr, mem.Size) (uintptr, *kernel.Error)) { windowFn = orig }(windowFn)

	// This address breaks down to:
	// p4 index: 1
	// p3 index: 2
	// p2 index: 3
	// p1 index: 4
	// offset  : 1024
	targetAddr := uintptr(0x8080604400)

	expIndex := [pageLevels]uintptr{1, 2, 3, 4}

	// Each level's table lives at a distinct synthetic physical frame so we
	// can tell, from the phys argument windowFn receives, which level we're
	// resolving and hand back a distinct fake virtual base per level.
	tableFrames := [pageLevels]mem.Frame{10, 20, 30, 40}
	tableBases := [pageLevels]uintptr{0x1000, 0x2000, 0x3000, 0x4000}
	entries := [pageLevels]PTE{}

	windowCallCount := 0
	windowFn = func(phys uintptr, len mem.Size) (uintptr, *kernel.Error) {
		level := windowCallCount
		if level >= pageLevels {
			t.Fatalf("unexpected call to windowFn; already called %d times", pageLevels)
		}
		if exp := tableFrames[level].Address(); phys != exp {
			t.Errorf("[windowFn call %d] expected phys %#x; got %#x", level, exp, phys)
		}
		windowCallCount++
		return tableBases[level], nil
	}

	pteCallCount := 0
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		if pteCallCount >= pageLevels {
			t.Fatalf("unexpected call to ptePtrFn; already called %d times", pageLevels)
		}

		level := pteCallCount
		wantAddr := tableBases[level] + expIndex[level]<<mem.PointerShift
		if entryAddr != wantAddr {
			t.Errorf("[ptePtrFn call %d] expected entry addr %#x; got %#x", level, wantAddr, entryAddr)
		}

		if level+1 < pageLevels {
			entries[level].SetFrame(tableFrames[level+1])
			entries[level].set(ptePresent)
		}

		pteCallCount++
		return unsafe.Pointer(&entries[level])
	}

	walkFnCallCount := 0
	walk(tableFrames[0], targetAddr, func(level uint8, entry *PTE) bool {
		walkFnCallCount++
		return true
	})

	if pteCallCount != pageLevels {
		t.Errorf("expected ptePtrFn to be called %d times; got %d", pageLevels, pteCallCount)
	}
	if walkFnCallCount != pageLevels {
		t.Errorf("expected walkFn to be called %d times; got %d", pageLevels, walkFnCallCount)
	}
}

func TestWalkAbortsOnWalkFnFalse(t *testing.T) {
	defer func(orig func(uintptr) unsafe.Pointer) { ptePtrFn = orig }(ptePtrFn)
	defer func(orig func(uintptr, mem.Size) (uintptr, *kernel.Error)) { windowFn = orig }(windowFn)

	windowFn = func(phys uintptr, len mem.Size) (uintptr, *kernel.Error) {
		return 0x9000, nil
	}

	var backing PTE
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(&backing)
	}

	calls := 0
	walk(mem.Frame(0), uintptr(0x8080604400), func(level uint8, entry *PTE) bool {
		calls++
		return false
	})

	if calls != 1 {
		t.Errorf("expected walk to stop after the first walkFn call; got %d calls", calls)
	}
}

func TestWalkStopsWhenWindowFails(t *testing.T) {
	defer func(orig func(uintptr, mem.Size) (uintptr, *kernel.Error)) { windowFn = orig }(windowFn)

	errWindow := &kernel.Error{Module: "vmm", Message: "window failure"}
	windowFn = func(phys uintptr, len mem.Size) (uintptr, *kernel.Error) {
		return 0, errWindow
	}

	calls := 0
	walk(mem.Frame(0), uintptr(0x8080604400), func(level uint8, entry *PTE) bool {
		calls++
		return true
	})

	if calls != 0 {
		t.Errorf("expected walkFn to never run when the window fails; got %d calls", calls)
	}
}
