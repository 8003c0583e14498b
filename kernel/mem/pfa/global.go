package pfa

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
)

// FrameAllocator is the kernel's single physical frame allocator instance.
// bootstrap.Init populates it and wires AllocFrame into mem.SetFrameAllocator
// so that the walker and region allocators can request frames without
// importing this package directly.
var FrameAllocator Allocator

// AllocFrame delegates to FrameAllocator.AllocBlock. It exists as a free
// function, rather than a method value, so that registering it with
// mem.SetFrameAllocator doesn't confuse escape analysis into believing
// FrameAllocator escapes to the heap.
func AllocFrame() (mem.Frame, *kernel.Error) {
	return FrameAllocator.AllocBlock()
}

// bootAllocator is the frame source bootstrap uses to materialize the fixed
// top-level tables (PML4, the window/kernel/heap PDPTs, PDs and PTs) before
// FrameAllocator has anywhere to put its bitmap. It walks the bootloader
// memory map directly, the same role gopher-os's pmm.Init gives its own
// bootMemAllocator during the window between "paging is live" and "the
// bitmap allocator is initialized".
var bootAllocator bootMemAllocator

// InitBootAllocator prepares the boot-time frame source. Must be called
// before BootFrame.
func InitBootAllocator(kernelStart, kernelEnd uintptr) {
	bootAllocator.init(kernelStart, kernelEnd)
}

// BootFrame reserves the next free frame reported by the bootloader's memory
// map, skipping the kernel image. bootstrap uses it exclusively until
// FrameAllocator.Init runs and mem.SetFrameAllocator is repointed at
// AllocFrame.
func BootFrame() (mem.Frame, *kernel.Error) {
	return bootAllocator.allocFrame()
}

// BootHighWaterMark returns the first physical address above every frame
// bootAllocator has handed out so far (or the end of the kernel image if
// BootFrame was never called). bootstrap uses it once, after installing the
// fixed top-level tables, to mark every frame below it, including all the
// table frames bootstrap itself consumed, as used in the bitmap.
func BootHighWaterMark() uintptr {
	if bootAllocator.allocCount == 0 {
		return bootAllocator.kernelEndFrame.Address() + uintptr(mem.PageSize)
	}
	return bootAllocator.lastAllocFrame.Address() + uintptr(mem.PageSize)
}
