package vmm

// Flag controls the behavior of PageLookup/PageAllocate/MapAddress, per the
// flag table in §4.C. These are operation-level flags, not raw PTE bits;
// applyOp and PageLookup translate them into the hardware bits that end up
// in a PTE.
type Flag uintptr

const (
	// Create instructs PageLookup to allocate missing interior tables
	// instead of reporting the address as absent.
	Create Flag = 1 << iota

	// Kernel clears the user-accessible bit on the resulting leaf entry;
	// by default every mapping is user-accessible.
	Kernel

	// ReadOnly clears the writable bit on the resulting leaf entry.
	ReadOnly

	// WriteThrough sets the writethrough bit on the resulting leaf entry.
	WriteThrough

	// NotCacheable sets the uncacheable bit on the resulting leaf entry.
	NotCacheable

	// NotPresent clears the present bit on the resulting leaf entry.
	NotPresent

	// NoAlloc tells PageAllocate not to obtain a backing frame from the
	// PFA even if the entry currently has none.
	NoAlloc

	// Free tells PageAllocate to release the entry's frame back to the
	// PFA and clear the entry instead of installing one.
	Free

	// LargePage marks the resulting entry as a large-page terminal. Used
	// only by bootstrap when building the physical-memory window's PD
	// entries; never set by the per-4KiB-page walker path.
	LargePage
)
