package allocator

import (
	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem/allocator/bitfield"
)

// Capabilities is the backing allocator's capability descriptor
// ({name, version, supports_valloc, supports_profile} in spec.md §4.G),
// the Go counterpart of hexahedron's allocator_info_t.
type Capabilities struct {
	Name    string
	Version uint32

	SupportsValloc  bool `bitfield:",1"`
	SupportsProfile bool `bitfield:",1"`
}

// Pack encodes the capability descriptor into a single word via
// bitfield.Pack, the same tag-driven packing mazarin's PageFlags uses.
// Facade logs this alongside the backing allocator's name when it is
// installed, so a capability mismatch shows up in the boot log rather than
// only at the call site that hits it.
func (c Capabilities) Pack() uint64 {
	packed, err := bitfield.Pack(&c, &bitfield.Config{NumBits: 8})
	if err != nil {
		kfmt.Fatal(kernel.MemoryManagementError, "allocator", "capability descriptor failed to pack: %s", err.Error())
	}
	return packed
}
