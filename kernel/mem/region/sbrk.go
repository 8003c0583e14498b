package region

import (
	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
)

// Sbrk grows or shrinks the heap region's cursor by b bytes, which must be a
// page-size multiple (b=0 is a no-op query). Unlike Alloc/Free, a negative b
// retracts exactly b bytes with no rounding, freeing pages as it goes. It
// returns the cursor's value before the adjustment.
func (a *Allocator) Sbrk(b int64) (uintptr, *kernel.Error) {
	if b%int64(mem.PageSize) != 0 {
		kfmt.Fatal(kernel.KernelBadArgument, "region", "sbrk: %d is not a multiple of the page size", b)
	}

	a.lock.Acquire()
	defer a.lock.Release()

	old := a.cursor
	if b == 0 {
		return old, nil
	}

	if b > 0 {
		if a.cursor+uintptr(b) > a.limit {
			kfmt.Fatal(kernel.OutOfMemory, "region", "%s heap exhausted: cursor=0x%x grow=%d limit=0x%x", a.name, a.cursor, b, a.limit)
		}

		for va := a.cursor; va < a.cursor+uintptr(b); va += uintptr(mem.PageSize) {
			pte, err := vmm.PageLookup(a.dir, va, vmm.Create)
			if err != nil {
				return old, err
			}
			if pte.Present() {
				kfmt.Logf(kfmt.LevelWarn, "region", "%s: sbrk growth found page 0x%x already present", a.name, va)
				continue
			}
			if err := vmm.PageAllocate(pte, a.flags); err != nil {
				kfmt.Fatal(kernel.OutOfMemory, "region", "%s: no physical frame left to back page 0x%x", a.name, va)
				return old, err
			}
		}

		a.cursor += uintptr(b)
		return old, nil
	}

	shrink := uintptr(-b)
	if shrink > a.cursor-a.base {
		kfmt.Fatal(kernel.KernelBadArgument, "region", "%s: sbrk retraction of %d underflows the region base", a.name, -b)
	}

	newCursor := a.cursor - shrink
	for va := newCursor; va < a.cursor; va += uintptr(mem.PageSize) {
		pte, err := vmm.PageLookup(a.dir, va, 0)
		if err != nil {
			continue
		}
		vmm.PageAllocate(pte, vmm.Free)
	}

	a.cursor = newCursor
	return old, nil
}
