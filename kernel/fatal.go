package kernel

// BugCode identifies the class of an unrecoverable kernel condition. The
// code is looked up by the log sink to produce the "*** STOP:" line of a
// fatal-stop report.
type BugCode uint32

// Bug codes used by the vm core. Every call to a fatal-stop sink must use
// one of these.
const (
	// MemoryManagementError covers PFA/vmm/region invariant violations that
	// cannot be attributed to a caller-supplied argument.
	MemoryManagementError BugCode = iota

	// KernelBadArgument is raised when a caller passes a value that
	// violates a documented precondition: an sbrk size that is not a page
	// multiple, or an sbrk retraction below the heap region's base.
	KernelBadArgument

	// UnsupportedFunction is raised when a caller invokes an operation a
	// backing allocator's capability descriptor does not support.
	UnsupportedFunction

	// OutOfMemory is raised when the kernel heap cannot grow because the
	// backing physical frame allocator is exhausted.
	OutOfMemory
)

var bugCodeStrings = [...]string{
	MemoryManagementError: "MEMORY_MANAGEMENT_ERROR",
	KernelBadArgument:     "KERNEL_BAD_ARGUMENT_ERROR",
	UnsupportedFunction:   "UNSUPPORTED_FUNCTION_ERROR",
	OutOfMemory:           "OUT_OF_MEMORY",
}

// String returns the bugcode's name as used in fatal-stop reports.
func (c BugCode) String() string {
	if int(c) >= len(bugCodeStrings) {
		return "UNKNOWN_BUGCODE"
	}
	return bugCodeStrings[c]
}
