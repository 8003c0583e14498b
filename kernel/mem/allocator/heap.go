package allocator

import (
	"unsafe"

	"vmcore/kernel"
	"vmcore/kernel/mem"
	"vmcore/kernel/mem/region"
)

// blockHeader precedes every pointer HeapAllocator hands out. offset is the
// distance from the block's true base (the address region.Allocator.Alloc
// returned) back to the data pointer; it differs between a plain Malloc
// (offset == headerSize) and a Valloc (offset == mem.PageSize, so the data
// pointer itself lands on a page boundary).
type blockHeader struct {
	size   mem.Size
	offset uintptr
}

var headerSize = uintptr(unsafe.Sizeof(blockHeader{}))

func headerAt(ptr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(ptr - headerSize))
}

// HeapAllocator is a BackingAllocator over a region.Allocator bump heap. It
// supports Valloc and profiling (the two optional capabilities hexahedron's
// facade gates on), at the cost of never reusing freed space except via the
// region's own LIFO peephole.
type HeapAllocator struct {
	region *region.Allocator
}

// NewHeapAllocator wraps r (typically region.Heap).
func NewHeapAllocator(r *region.Allocator) *HeapAllocator {
	return &HeapAllocator{region: r}
}

// Info reports HeapAllocator's capabilities.
func (h *HeapAllocator) Info() Capabilities {
	return Capabilities{Name: "region-heap", Version: 1, SupportsValloc: true, SupportsProfile: true}
}

// Malloc reserves size bytes plus a header, returning a pointer past the
// header.
func (h *HeapAllocator) Malloc(size mem.Size) (uintptr, *kernel.Error) {
	base, err := h.region.Alloc(size + mem.Size(headerSize))
	if err != nil {
		return 0, err
	}

	hdr := (*blockHeader)(unsafe.Pointer(base))
	hdr.size = size
	hdr.offset = headerSize
	return base + headerSize, nil
}

// Calloc allocates elements*size bytes, zeroed.
func (h *HeapAllocator) Calloc(elements, size mem.Size) (uintptr, *kernel.Error) {
	total := elements * size
	ptr, err := h.Malloc(total)
	if err != nil {
		return 0, err
	}
	mem.Memset(ptr, 0, total)
	return ptr, nil
}

// Valloc reserves a page for the header followed by a page-aligned data
// region of size bytes.
func (h *HeapAllocator) Valloc(size mem.Size) (uintptr, *kernel.Error) {
	base, err := h.region.Alloc(mem.PageSize + size)
	if err != nil {
		return 0, err
	}

	dataBase := base + uintptr(mem.PageSize)
	hdr := headerAt(dataBase)
	hdr.size = size
	hdr.offset = uintptr(mem.PageSize)
	return dataBase, nil
}

// Realloc grows or shrinks the allocation at ptr, preserving contents up to
// min(oldSize, size). A nil ptr behaves like Malloc.
func (h *HeapAllocator) Realloc(ptr uintptr, size mem.Size) (uintptr, *kernel.Error) {
	if ptr == 0 {
		return h.Malloc(size)
	}

	oldSize := headerAt(ptr).size
	newPtr, err := h.Malloc(size)
	if err != nil {
		return 0, err
	}

	copySize := oldSize
	if size < copySize {
		copySize = size
	}
	kernel.Memcopy(ptr, newPtr, uintptr(copySize))
	h.Free(ptr)
	return newPtr, nil
}

// Free releases the allocation at ptr, honoring the region's LIFO-only free
// peephole (a non-LIFO free is logged by region.Allocator.Free and
// otherwise ignored).
func (h *HeapAllocator) Free(ptr uintptr) {
	if ptr == 0 {
		return
	}
	hdr := headerAt(ptr)
	base := ptr - hdr.offset
	h.region.Free(base, hdr.size+mem.Size(hdr.offset))
}
