// Package region implements the core's three bump allocators (driver, DMA,
// heap), each owning a spinlock-guarded cursor over a fixed virtual address
// range. Grounded on hexahedron's mem_allocateDMA/mem_mapDriver (same
// function shape, different per-region page flags) combined with gopher-os's
// sync.Spinlock for the cursor's mutual exclusion.
package region

import (
	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
	"vmcore/kernel/sync"
)

var errRegionExhausted = &kernel.Error{Module: "region", Message: "region allocator exhausted its virtual address range"}

// Allocator is a bump allocator over [base, base+limit) within a fixed
// directory, with a LIFO-only free peephole (§4.F).
type Allocator struct {
	lock sync.Spinlock

	name  string
	dir   vmm.Directory
	base  uintptr
	limit uintptr
	flags vmm.Flag

	cursor uintptr
}

// Init sets up the allocator over [base, base+limit) within dir, tagging new
// mappings with flags.
func (a *Allocator) Init(name string, dir vmm.Directory, base uintptr, limit mem.Size, flags vmm.Flag) {
	a.name = name
	a.dir = dir
	a.base = base
	a.limit = base + uintptr(limit)
	a.flags = flags
	a.cursor = base
}

// Cursor returns the allocator's current cursor without acquiring the lock;
// intended for diagnostics, not for synchronizing with concurrent Alloc/Free
// calls.
func (a *Allocator) Cursor() uintptr { return a.cursor }

// AdoptPrebuilt advances the cursor past size bytes that are already mapped
// by some other means (bootstrap's eager construction of the PFA bitmap's
// backing pages, for the heap region). Unlike Sbrk, it never touches page
// tables, so it never logs Sbrk's "already present" warning for pages that
// were always meant to be there.
func (a *Allocator) AdoptPrebuilt(size mem.Size) {
	a.lock.Acquire()
	defer a.lock.Release()
	a.cursor += pageAlign(size)
}

func pageAlign(size mem.Size) uintptr {
	aligned := (uintptr(size) + uintptr(mem.PageSize) - 1) &^ (uintptr(mem.PageSize) - 1)
	return aligned
}

// Alloc reserves size bytes (rounded up to a page) at the current cursor,
// walking each page with Create and installing a fresh frame under the
// region's flags. It returns the base address of the reserved range.
func (a *Allocator) Alloc(size mem.Size) (uintptr, *kernel.Error) {
	aligned := pageAlign(size)

	a.lock.Acquire()
	defer a.lock.Release()

	if a.cursor+aligned > a.limit {
		kfmt.Fatal(kernel.MemoryManagementError, "region", "%s region exhausted: cursor=0x%x size=0x%x limit=0x%x", a.name, a.cursor, aligned, a.limit)
		return 0, errRegionExhausted
	}

	base := a.cursor
	for va := base; va < base+aligned; va += uintptr(mem.PageSize) {
		pte, err := vmm.PageLookup(a.dir, va, vmm.Create)
		if err != nil {
			return 0, err
		}
		if err := vmm.PageAllocate(pte, a.flags); err != nil {
			return 0, err
		}
	}

	a.cursor += aligned
	return base, nil
}

// Free releases [base, base+size) back to the region if it is exactly the
// most recently allocated range (a LIFO peephole, §9's intentional
// trade-off). A non-LIFO free is logged and otherwise ignored; the pages
// stay mapped.
func (a *Allocator) Free(base uintptr, size mem.Size) {
	aligned := pageAlign(size)

	a.lock.Acquire()
	defer a.lock.Release()

	if base != a.cursor-aligned {
		kfmt.Logf(kfmt.LevelWarn, "region", "%s: non-LIFO free of [0x%x, 0x%x); leaving pages mapped", a.name, base, base+aligned)
		return
	}

	for va := base; va < base+aligned; va += uintptr(mem.PageSize) {
		pte, err := vmm.PageLookup(a.dir, va, 0)
		if err != nil {
			continue
		}
		vmm.PageAllocate(pte, vmm.Free)
	}

	a.cursor = base
}
