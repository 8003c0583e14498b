package pfa

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
	"vmcore/multiboot"
)

var errBootAllocOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}

// bootMemAllocator is a rudimentary frame source used only while bootstrap
// is laying down the fixed top-level tables, before the bitmap allocator has
// anywhere to live. It walks the bootloader-reported memory map directly and
// excludes the kernel image's own frames; it cannot free.
type bootMemAllocator struct {
	allocCount     uint64
	lastAllocFrame mem.Frame

	kernelStartFrame, kernelEndFrame mem.Frame
}

func (a *bootMemAllocator) init(kernelStart, kernelEnd uintptr) {
	pageSizeMinus1 := uintptr(mem.PageSize - 1)
	a.kernelStartFrame = mem.Frame((kernelStart &^ pageSizeMinus1) >> mem.PageShift)
	a.kernelEndFrame = mem.Frame(((kernelEnd+pageSizeMinus1)&^pageSizeMinus1)>>mem.PageShift) - 1
}

// allocFrame reserves the next available free frame reported by the
// bootloader's memory map, skipping over the kernel image.
func (a *bootMemAllocator) allocFrame() (mem.Frame, *kernel.Error) {
	var err = errBootAllocOutOfMemory

	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable || region.Length < uint64(mem.PageSize) {
			return true
		}

		pageSizeMinus1 := uint64(mem.PageSize - 1)
		regionStartFrame := mem.Frame(((region.PhysAddress + pageSizeMinus1) &^ pageSizeMinus1) >> mem.PageShift)
		regionEndFrame := mem.Frame(((region.PhysAddress+region.Length)&^pageSizeMinus1)>>mem.PageShift) - 1

		if a.lastAllocFrame >= regionEndFrame && a.allocCount != 0 {
			return true
		}

		switch {
		case (a.lastAllocFrame <= regionStartFrame && a.kernelStartFrame == regionStartFrame) ||
			(a.lastAllocFrame <= regionEndFrame && a.lastAllocFrame+1 == a.kernelStartFrame):
			a.lastAllocFrame = a.kernelEndFrame + 1
		case a.lastAllocFrame < regionStartFrame || a.allocCount == 0:
			a.lastAllocFrame = regionStartFrame
		default:
			a.lastAllocFrame++
		}

		if a.lastAllocFrame > regionEndFrame {
			return true
		}

		err = nil
		return false
	})

	if err != nil {
		return mem.InvalidFrame, errBootAllocOutOfMemory
	}

	a.allocCount++
	return a.lastAllocFrame, nil
}
