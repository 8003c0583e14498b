package allocator

import (
	"sync/atomic"

	"vmcore/kernel/mem"
)

// ProfileInfo mirrors hexahedron's profile_info_t: request count, cumulative
// bytes, the smallest/largest single request seen, and the profiling
// window's bounds.
type ProfileInfo struct {
	Requests            uint64
	BytesAllocated      mem.Size
	MostBytesAllocated  mem.Size
	LeastBytesAllocated mem.Size
	TimeStart           uint64
	TimeEnd             uint64
}

// tick is a logical monotonic counter standing in for hexahedron's now():
// this module's ambient stack has no wall clock (§ AMBIENT STACK — no
// `time` package before a scheduler exists), so TimeStart/TimeEnd record
// call order rather than wall-clock duration.
var tick uint64

func nextTick() uint64 {
	return atomic.AddUint64(&tick, 1)
}

func (p *ProfileInfo) record(size mem.Size) {
	p.Requests++
	p.BytesAllocated += size
	if size > p.MostBytesAllocated {
		p.MostBytesAllocated = size
	}
	if p.LeastBytesAllocated == 0 || size < p.LeastBytesAllocated {
		p.LeastBytesAllocated = size
	}
}
