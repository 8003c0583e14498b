package bootstrap

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
)

// buildWindow lays down the permanent physical-memory window: a PDPT whose
// entries each point at a PD filled with 2 MiB large-page entries, together
// covering [0, vmm.WindowSize). Entries are present, writable, and
// supervisor-only (§4.E step 2).
func buildWindow() (mem.Frame, *kernel.Error) {
	pdptFrame, pdpt, err := newTable()
	if err != nil {
		return mem.InvalidFrame, err
	}

	bytesPerPD := vmm.LargePageSize * ptesPerTable // one PD covers 512 * 2 MiB = 1 GiB
	pdCount := int(vmm.WindowSize / bytesPerPD)
	if pdCount > ptesPerTable {
		return mem.InvalidFrame, &kernel.Error{Module: "bootstrap", Message: "physical-memory window exceeds what a single PDPT can address"}
	}

	for pdIndex := 0; pdIndex < pdCount; pdIndex++ {
		pdFrame, pd, err := newTable()
		if err != nil {
			return mem.InvalidFrame, err
		}

		for entry := 0; entry < ptesPerTable; entry++ {
			physAddr := uintptr(pdIndex)*bytesPerPD + uintptr(entry)*vmm.LargePageSize
			pd[entry] = vmm.NewEntry(mem.FrameFromAddress(physAddr), vmm.Kernel|vmm.LargePage)
		}

		pdpt[pdIndex] = vmm.NewEntry(pdFrame, vmm.Kernel)
	}

	return pdptFrame, nil
}
