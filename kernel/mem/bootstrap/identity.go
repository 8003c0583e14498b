package bootstrap

import (
	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
)

// buildKernelIdentity identity-maps [0, kernelEndAligned) at 4 KiB
// granularity under PML4 slot 0 (§4.E step 3), enforcing the bootstrap's
// self-imposed budget of one PDPT, one PD, and at most three PTs — the same
// sanity checks hexahedron's mem_init applies to kernel_pts before it will
// link mem_lowBasePDPT.
func buildKernelIdentity(kernelEndAligned uintptr) (mem.Frame, *kernel.Error) {
	kernelPages := uint64(kernelEndAligned) / uint64(mem.PageSize)
	kernelPTs := (kernelPages + ptesPerTable - 1) / ptesPerTable
	if kernelPTs == 0 {
		kernelPTs = 1
	}

	if kernelPTs/ptesPerTable/ptesPerTable > 1 {
		kfmt.Fatal(kernel.MemoryManagementError, "bootstrap", "kernel image requires %d PDPTs for its identity map; only 1 is supported", kernelPTs/ptesPerTable/ptesPerTable)
	}
	if kernelPTs/ptesPerTable > 1 {
		kfmt.Fatal(kernel.MemoryManagementError, "bootstrap", "kernel image requires %d PDs for its identity map; only 1 is supported", kernelPTs/ptesPerTable)
	}
	if kernelPTs > 3 {
		kfmt.Fatal(kernel.MemoryManagementError, "bootstrap", "kernel image requires %d PTs for its identity map; only 3 are supported", kernelPTs)
	}

	pdptFrame, pdpt, err := newTable()
	if err != nil {
		return mem.InvalidFrame, err
	}
	pdFrame, pd, err := newTable()
	if err != nil {
		return mem.InvalidFrame, err
	}

	for ptIndex := uint64(0); ptIndex < kernelPTs; ptIndex++ {
		ptFrame, pt, err := newTable()
		if err != nil {
			return mem.InvalidFrame, err
		}

		for entry := 0; entry < ptesPerTable; entry++ {
			physAddr := (ptIndex*ptesPerTable+uint64(entry))*uint64(mem.PageSize)
			if physAddr >= uint64(kernelEndAligned) {
				break
			}
			pt[entry] = vmm.NewEntry(mem.FrameFromAddress(uintptr(physAddr)), vmm.Kernel)
		}

		pd[ptIndex] = vmm.NewEntry(ptFrame, vmm.Kernel)
	}

	pdpt[0] = vmm.NewEntry(pdFrame, vmm.Kernel)
	return pdptFrame, nil
}
