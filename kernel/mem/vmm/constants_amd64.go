package vmm

// pageLevels indicates the number of page table levels supported by the
// amd64 architecture: PML4, PDPT, PD, PT.
const pageLevels = 4

// pageLevelBits defines the number of virtual address bits consumed by each
// page level. Each level uses 9 bits, giving 512 entries per table.
var pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

// pageLevelShifts defines the shift required to extract each page level's
// index from a virtual address.
var pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}

// ptePhysPageMask extracts the 40-bit physical frame number (bits 12-51)
// from a raw page table entry.
const ptePhysPageMask = uintptr(0x000ffffffffff000)

// Bootstrap-owned PML4 slot assignments (§3's fixed virtual memory map).
// Exported so bootstrap, which builds the PML4 directly, can index it
// without duplicating the slot numbers.
const (
	// PML4SlotKernel is where the kernel image is identity-mapped.
	PML4SlotKernel = 0

	// PML4SlotHeap is where the heap region (PFA bitmap + sbrk-grown heap)
	// lives.
	PML4SlotHeap = 510

	// PML4SlotWindow is where the permanent physical-memory window lives.
	PML4SlotWindow = 511

	// PML4SlotDriver and PML4SlotDMA host the driver and DMA regions.
	// Unlike the kernel/heap/window slots, the core leaves their exact
	// placement as an environment-defined constant (spec.md §3); any two
	// otherwise-unused slots work, and both regions are built lazily by the
	// ordinary Create-on-demand walker path rather than bootstrap.
	PML4SlotDriver = 1
	PML4SlotDMA    = 2
)

// WindowSize is the span of the permanent physical-memory window: large
// enough to alias every supported physical address 1:1.
const WindowSize = uintptr(128) << 30 // 128 GiB

// LargePageSize is the page size used exclusively by the physical-memory
// window's PD entries.
const LargePageSize = uintptr(2) << 20 // 2 MiB

// windowBase is the virtual address of the start of the physical-memory
// window: PML4 slot 511 (bits 47-39 = 0x1ff), all lower-level indices zero,
// sign-extended into the canonical negative half of the address space. The
// shift of 39 mirrors pageLevelShifts[0], the PML4 index shift.
const windowBase = uintptr(0xffff000000000000) | (uintptr(PML4SlotWindow) << 39)

// HeapBase is the virtual address of the start of the heap region: PML4
// slot 510, derived the same way as windowBase. Unlike the kernel's slot-0
// identity map, the heap region's physical backing starts at
// kernel_end_aligned, not 0, so HeapBase and its physical address are not
// the same number.
const HeapBase = uintptr(0xffff000000000000) | (uintptr(PML4SlotHeap) << 39)

// DriverBase and DMABase are the virtual address space bases for the
// driver and DMA regions, derived from their PML4 slots like HeapBase/
// windowBase. Slots 1 and 2 lie in the lower half of the address space, so
// bit 47 is clear and no sign extension is applied.
const (
	DriverBase = uintptr(PML4SlotDriver) << 39
	DMABase    = uintptr(PML4SlotDMA) << 39
)
