package region

// The core's three standing region allocators (§4.F). bootstrap.Init
// populates each with its virtual address span and per-region page flags;
// nothing else constructs an Allocator.
var (
	Driver Allocator
	DMA    Allocator
	Heap   Allocator
)
