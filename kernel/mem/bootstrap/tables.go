package bootstrap

import (
	"unsafe"

	"vmcore/kernel"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/pfa"
	"vmcore/kernel/mem/vmm"
)

const ptesPerTable = 512

// tableView overlays a raw 512-entry PTE array on top of frame. It relies on
// bootstrap running entirely within the bootloader's low-memory identity
// map: every frame bootstrap allocates for its own tables comes from
// pfa.BootFrame, which hands out the lowest available frames of the
// bootloader's memory map (skipping the kernel image), and is addressable at
// its own physical address long before vmm's physical-memory window exists
// to alias it any other way.
func tableView(frame mem.Frame) *[ptesPerTable]vmm.PTE {
	return (*[ptesPerTable]vmm.PTE)(unsafe.Pointer(frame.Address()))
}

// newTable reserves a fresh frame from the boot-time allocator and returns
// it zeroed and ready to receive entries.
func newTable() (mem.Frame, *[ptesPerTable]vmm.PTE, *kernel.Error) {
	frame, err := pfa.BootFrame()
	if err != nil {
		return mem.InvalidFrame, nil, err
	}

	table := tableView(frame)
	for i := range table {
		table[i] = 0
	}
	return frame, table, nil
}
