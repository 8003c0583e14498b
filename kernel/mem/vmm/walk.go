package vmm

import (
	"unsafe"

	"vmcore/kernel/mem"
)

var (
	// ptePtrFn returns a pointer to the page table entry at entryAddr. It
	// is a package variable so tests can override it and is automatically
	// inlined by the compiler when compiling the kernel.
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(entryAddr)
	}

	// windowFn resolves a physical table frame to the virtual address
	// through which its contents can be read/written. Overridden by tests.
	windowFn = Window
)

// pageTableWalker is invoked by walk for each level of the page-table
// hierarchy. Returning false aborts the walk.
type pageTableWalker func(pteLevel uint8, pte *PTE) bool

// walk performs a page-table walk for virtAddr starting at the PML4 pointed
// to by rootFrame, invoking walkFn with the entry at each level. Unlike
// gopher-os's recursive self-map, each table is reached by aliasing its
// physical frame through the permanent physical-memory window (§4.D)
// instead of walking an extra level of page-table indirection.
func walk(rootFrame mem.Frame, virtAddr uintptr, walkFn pageTableWalker) {
	tableFrame := rootFrame

	for level := uint8(0); level < pageLevels; level++ {
		tableAddr, err := windowFn(tableFrame.Address(), mem.PageSize)
		if err != nil {
			return
		}

		entryIndex := (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		entryAddr := tableAddr + entryIndex<<mem.PointerShift

		pte := (*PTE)(ptePtrFn(entryAddr))
		if !walkFn(level, pte) {
			return
		}

		if level+1 < pageLevels {
			tableFrame = pte.Frame()
		}
	}
}
