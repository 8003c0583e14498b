package vmm

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
)

var errWindowTooLarge = &kernel.Error{Module: "vmm", Message: "requested window region exceeds the physical-memory window size"}

// Window returns the virtual address that aliases the len bytes of physical
// memory starting at phys, via the permanent physical-memory window
// installed by bootstrap at PML4 slot 511. It is the vm core's replacement
// for gopher-os's per-edit temporary mapping: because the window covers all
// of physical memory with always-present large pages, Window never fails
// for a request that fits within it and never needs an matching "unmap"
// call.
func Window(phys uintptr, len mem.Size) (uintptr, *kernel.Error) {
	if uintptr(len) > WindowSize || phys > WindowSize-uintptr(len) {
		return 0, errWindowTooLarge
	}
	return phys | windowBase, nil
}

// WindowUnmap is a deliberate no-op: the window is a permanent alias, so
// there is nothing to tear down. It exists so callers that are used to a
// map/unmap pair (e.g. code ported from a temporary-mapping design) have
// somewhere to put the call without special-casing the window.
func WindowUnmap(uintptr) {}
