package allocator

// Kernel is the vm core's single generic allocator facade, installed by
// bootstrap.Init once the heap region exists. Higher layers call
// Kernel.Malloc/Realloc/Calloc/Valloc/Free rather than touching
// region.Heap directly.
var Kernel *Facade
