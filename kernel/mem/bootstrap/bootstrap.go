// Package bootstrap assembles the fixed top-level page-table structure
// described in spec.md §4.E and hands control over to the ordinary runtime
// collaborators (the PFA, the three region allocators, the window) once it
// is in place. It is the only code that ever builds a page table without
// going through vmm.PageLookup/PageAllocate, because at the point it runs
// neither the window nor the PFA exist yet for those functions to use.
package bootstrap

import (
	"vmcore/kernel"
	"vmcore/kernel/cpu"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/allocator"
	"vmcore/kernel/mem/pfa"
	"vmcore/kernel/mem/region"
	"vmcore/kernel/mem/vmm"
	"vmcore/multiboot"
)

// defaultDriverRegionSize and defaultDMARegionSize bound the driver and DMA
// regions (spec.md §3: "concrete numeric layout values are environment-
// defined constants"). 1 GiB apiece is more virtual address space than a
// small kernel's driver/DMA mappings will ever fill, and both regions grow
// lazily so the bound costs nothing until touched.
const (
	defaultDriverRegionSize = mem.Size(1) << 30
	defaultDMARegionSize    = mem.Size(1) << 30
)

// Init lays down the kernel's address space and brings up the PFA and the
// three region allocators, following the nine-step sequence of spec.md
// §4.E. kernelStart/kernelEnd bound the loaded kernel image; memorySize is
// the total physical memory the bootloader reported.
func Init(memorySize mem.Size, kernelStart, kernelEnd uintptr) *kernel.Error {
	// Step 1: align kernel_end up to a page.
	pageSizeMinus1 := uintptr(mem.PageSize - 1)
	kernelEndAligned := (kernelEnd + pageSizeMinus1) &^ pageSizeMinus1

	pfa.InitBootAllocator(kernelStart, kernelEndAligned)

	bitmapBytes := pfa.BitmapBytes(memorySize)

	// Step 2: install the physical-memory window at slot 511.
	windowPDPT, err := buildWindow()
	if err != nil {
		return err
	}

	// Step 3: identity-map the kernel image at slot 0.
	kernelPDPT, err := buildKernelIdentity(kernelEndAligned)
	if err != nil {
		return err
	}

	// Step 4: reserve the heap region (PFA bitmap + future sbrk growth) at
	// slot 510.
	heapPDPT, err := buildHeapRegion(kernelEndAligned, bitmapBytes)
	if err != nil {
		return err
	}

	pml4Frame, pml4, err := newTable()
	if err != nil {
		return err
	}
	pml4[vmm.PML4SlotKernel] = vmm.NewEntry(kernelPDPT, vmm.Kernel)
	pml4[vmm.PML4SlotHeap] = vmm.NewEntry(heapPDPT, vmm.Kernel)
	pml4[vmm.PML4SlotWindow] = vmm.NewEntry(windowPDPT, vmm.Kernel)

	// Step 5: switch the current directory to the freshly built PML4 and
	// load it into the hardware root.
	dir := vmm.Directory(pml4Frame)
	vmm.SwitchDirectory(dir)
	cpu.SwitchPDT(pml4Frame.Address())

	// Step 6: initialize the PFA with the bitmap storage at the heap base;
	// every frame starts out used.
	pfa.FrameAllocator.Init(memorySize, vmm.HeapBase)

	// Step 7: mark the bootloader-reported usable ranges free, then
	// re-reserve the kernel image and everything bootstrap itself consumed
	// (identity-mapped tables, window tables, heap tables, the bitmap) so
	// the PFA never hands either range back out.
	multiboot.VisitMemRegions(func(r *multiboot.MemoryMapEntry) bool {
		if r.Type == multiboot.MemAvailable {
			pfa.FrameAllocator.MarkRegionFree(uintptr(r.PhysAddress), mem.Size(r.Length))
		}
		return true
	})

	bootstrapEnd := pfa.BootHighWaterMark()
	pfa.FrameAllocator.MarkRegionUsed(0, mem.Size(bootstrapEnd))
	pfa.FrameAllocator.MarkRegionUsed(kernelStart, mem.Size(kernelEndAligned-kernelStart)+bitmapBytes)

	// From here on, frame requests go through the bitmap allocator and
	// freed page-table frames return to it.
	mem.SetFrameAllocator(pfa.AllocFrame)
	vmm.FreeFrame = pfa.FrameAllocator.FreeBlock

	// Step 8: set the heap cursor to heap_base + bitmap_bytes, and stand up
	// the other two region allocators alongside it.
	// The heap's virtual span is capped by its own spec-mandated bound
	// ("+∞ (bounded)"); physical memory size is a safe, simple bound since
	// the heap can never legitimately need more backing frames than exist.
	region.Heap.Init("heap", dir, vmm.HeapBase, memorySize, vmm.Kernel)
	region.Heap.AdoptPrebuilt(bitmapBytes)

	region.Driver.Init("driver", dir, vmm.DriverBase, defaultDriverRegionSize, vmm.Kernel)
	region.DMA.Init("dma", dir, vmm.DMABase, defaultDMARegionSize, vmm.Kernel|vmm.NotCacheable)

	// The generic allocator facade forwards malloc/realloc/calloc/valloc/
	// free onto the heap region now that it is alive.
	allocator.Kernel = allocator.NewFacade(allocator.NewHeapAllocator(&region.Heap))

	// Step 9: re-walk the kernel .text range and clear the writable bit.
	protectText(dir, kernelStart)

	return nil
}

// protectText clears the writable bit on every PTE covering an executable,
// non-writable ELF section of the loaded kernel image (§4.E step 9, and the
// read-only-text invariant re-verified by property 6).
func protectText(dir vmm.Directory, kernelStart uintptr) {
	multiboot.VisitElfSections(func(name string, flags multiboot.ElfSectionFlag, address uintptr, size uint64) {
		if flags&multiboot.ElfSectionExecutable == 0 || flags&multiboot.ElfSectionWritable != 0 {
			return
		}

		pageSizeMinus1 := uintptr(mem.PageSize - 1)
		start := address &^ pageSizeMinus1
		end := (address + uintptr(size) + pageSizeMinus1) &^ pageSizeMinus1

		for va := start; va < end; va += uintptr(mem.PageSize) {
			pte, err := vmm.PageLookup(dir, va, 0)
			if err != nil {
				continue
			}
			kfmt.Logf(kfmt.LevelDebug, "bootstrap", "marking 0x%x read-only (section %s)", va, name)
			vmm.PageAllocate(pte, vmm.Kernel|vmm.ReadOnly)
		}
	})
}
