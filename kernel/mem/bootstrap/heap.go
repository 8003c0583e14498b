package bootstrap

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
)

// buildHeapRegion reserves the heap region under PML4 slot 510 (§4.E step
// 4): a PDPT/PD/PT chain whose first ceil(bitmapBytes/PageSize) PT entries
// are present, writable, and addressed at kernelEndAligned + i*4096 — the
// backing store for the PFA bitmap. Entries beyond the bitmap are left
// absent; sbrk builds them lazily as the heap grows, the same way it builds
// any other region's pages.
func buildHeapRegion(kernelEndAligned uintptr, bitmapBytes mem.Size) (mem.Frame, *kernel.Error) {
	bitmapPages := (uint64(bitmapBytes) + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
	ptsNeeded := (bitmapPages + ptesPerTable - 1) / ptesPerTable
	if ptsNeeded == 0 {
		ptsNeeded = 1
	}

	pdptFrame, pdpt, err := newTable()
	if err != nil {
		return mem.InvalidFrame, err
	}
	pdFrame, pd, err := newTable()
	if err != nil {
		return mem.InvalidFrame, err
	}

	for ptIndex := uint64(0); ptIndex < ptsNeeded; ptIndex++ {
		ptFrame, pt, err := newTable()
		if err != nil {
			return mem.InvalidFrame, err
		}

		for entry := 0; entry < ptesPerTable; entry++ {
			pageIndex := ptIndex*ptesPerTable + uint64(entry)
			if pageIndex >= bitmapPages {
				break
			}
			physAddr := kernelEndAligned + uintptr(pageIndex)*uintptr(mem.PageSize)
			pt[entry] = vmm.NewEntry(mem.FrameFromAddress(physAddr), vmm.Kernel)
		}

		pd[ptIndex] = vmm.NewEntry(ptFrame, vmm.Kernel)
	}

	pdpt[0] = vmm.NewEntry(pdFrame, vmm.Kernel)
	return pdptFrame, nil
}
