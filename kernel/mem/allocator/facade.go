// Package allocator is the generic kmalloc/krealloc/kcalloc/kvalloc/kfree
// facade (spec.md §4.G): a thin forwarder to whichever BackingAllocator is
// installed, with an optional profiling pass and a capability gate on
// valloc. Grounded on original_source/hexahedron/mem/alloc.c.
package allocator

import (
	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
	"vmcore/kernel/sync"
)

// BackingAllocator is whatever heap strategy the facade forwards to.
// HeapAllocator (backed by a region.Allocator bump heap) is the only
// implementation this module ships, but the interface lets a future
// allocator (slab, buddy, ...) swap in without touching the facade.
type BackingAllocator interface {
	Malloc(size mem.Size) (uintptr, *kernel.Error)
	Realloc(ptr uintptr, size mem.Size) (uintptr, *kernel.Error)
	Calloc(elements, size mem.Size) (uintptr, *kernel.Error)
	Valloc(size mem.Size) (uintptr, *kernel.Error)
	Free(ptr uintptr)
	Info() Capabilities
}

var (
	errProfilingUnsupported = &kernel.Error{Module: "allocator", Message: "profiling is not supported by this backing allocator"}
	errProfilingInProgress  = &kernel.Error{Module: "allocator", Message: "profiling is already in progress"}
)

// Facade is the kmalloc-family entry point. The zero value is not usable;
// construct one with NewFacade.
type Facade struct {
	backing BackingAllocator

	lock    sync.Spinlock
	profile *ProfileInfo
}

// NewFacade wraps backing and logs its capability descriptor.
func NewFacade(backing BackingAllocator) *Facade {
	caps := backing.Info()
	kfmt.Logf(kfmt.LevelInfo, "allocator", "backing allocator capabilities: 0x%02x", caps.Pack())
	return &Facade{backing: backing}
}

func (f *Facade) recordRequest(size mem.Size) {
	f.lock.Acquire()
	defer f.lock.Release()
	if f.profile != nil {
		f.profile.record(size)
	}
}

// Malloc allocates size bytes.
func (f *Facade) Malloc(size mem.Size) (uintptr, *kernel.Error) {
	f.recordRequest(size)
	return f.backing.Malloc(size)
}

// Realloc resizes the allocation at ptr to size bytes, preserving its
// contents up to the smaller of the old and new sizes.
func (f *Facade) Realloc(ptr uintptr, size mem.Size) (uintptr, *kernel.Error) {
	f.recordRequest(size)
	return f.backing.Realloc(ptr, size)
}

// Calloc allocates elements*size bytes, zeroed.
func (f *Facade) Calloc(elements, size mem.Size) (uintptr, *kernel.Error) {
	f.recordRequest(elements * size)
	return f.backing.Calloc(elements, size)
}

// Valloc allocates a page-aligned region of size bytes. Callers must not
// rely on this: a backing allocator is free to leave it unsupported, in
// which case this is fatal, matching kvalloc's
// kernel_panic_extended(UNSUPPORTED_FUNCTION_ERROR, ...) contract.
func (f *Facade) Valloc(size mem.Size) (uintptr, *kernel.Error) {
	if !f.backing.Info().SupportsValloc {
		kfmt.Fatal(kernel.UnsupportedFunction, "allocator", "valloc() is not supported in this context")
	}
	f.recordRequest(size)
	return f.backing.Valloc(size)
}

// Free releases the allocation at ptr. A nil ptr is a no-op.
func (f *Facade) Free(ptr uintptr) {
	f.lock.Acquire()
	if f.profile != nil {
		f.profile.Requests++
	}
	f.lock.Release()
	f.backing.Free(ptr)
}

// StartProfiling begins tracking every Malloc/Realloc/Calloc/Valloc/Free
// call. force does not take over or restart an in-progress profiling
// session: this facade has no spinlock-based forcing mechanism (hexahedron's
// own alloc_startProfiling doesn't either, per its "No spinlock support
// added" warning), so force only changes which sentinel comes back.
func (f *Facade) StartProfiling(force bool) *kernel.Error {
	if !f.backing.Info().SupportsProfile {
		kfmt.Logf(kfmt.LevelWarn, "allocator", "attempted to profile memory system, but it is unsupported")
		return errProfilingUnsupported
	}

	f.lock.Acquire()
	defer f.lock.Release()

	if f.profile != nil {
		if force {
			return errProfilingUnsupported
		}
		return errProfilingInProgress
	}

	f.profile = &ProfileInfo{TimeStart: nextTick()}
	return nil
}

// StopProfiling ends the current profiling session and returns its
// accumulated counters, or nil if no session was in progress.
func (f *Facade) StopProfiling() *ProfileInfo {
	f.lock.Acquire()
	defer f.lock.Release()

	if f.profile == nil {
		return nil
	}
	f.profile.TimeEnd = nextTick()
	p := f.profile
	f.profile = nil
	return p
}
