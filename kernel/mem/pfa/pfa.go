// Package pfa implements the physical frame allocator: a single flat bitmap
// tracking the in-use/free state of every physical frame in the machine.
//
// The bit convention mirrors gopher-os's per-pool bitmap_allocator.go
// (big-endian within each 64-bit word: bit 63 is frame 0 of the word, bit 0
// is frame 63) but flattens the design to one pool spanning the entire
// address space, per the single-bitmap design the core calls for.
package pfa

import (
	"reflect"
	"unsafe"

	"vmcore/kernel"
	"vmcore/kernel/kfmt"
	"vmcore/kernel/mem"
)

var (
	errOutOfMemory = &kernel.Error{Module: "pfa", Message: "out of memory"}
)

// wordBits is the number of frames tracked by a single bitmap word.
const wordBits = 64

// Allocator is a bitmap-backed physical frame allocator covering a single
// contiguous frame-number space [0, frameCount).
type Allocator struct {
	bitmap    []uint64
	bitmapHdr reflect.SliceHeader

	frameCount uint64

	// lastFreeHint accelerates the linear scan: AllocBlock starts here and
	// advances it past any block it returns; FreeBlock rewinds it when
	// freeing an index below the hint.
	lastFreeHint uint64

	// doubleFree is set once a FreeBlock call targets an already-free bit.
	// It is sticky, diagnostic-only state: a double free never changes
	// correctness, it just means something upstream is confused.
	doubleFree bool
}

// BitmapBytes returns the number of bytes required to back a bitmap that
// tracks memorySize worth of frames, rounded up to a whole page so it can be
// carved out of the heap region by bootstrap.
func BitmapBytes(memorySize mem.Size) mem.Size {
	frames := (uint64(memorySize) + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
	words := (frames + wordBits - 1) / wordBits
	bytes := mem.Size(words * 8)
	return (bytes + mem.PageSize - 1) &^ (mem.PageSize - 1)
}

// Init sizes the allocator for memorySize worth of physical address space,
// using bitmapStorage (a page-aligned, already-mapped virtual address with
// at least BitmapBytes(memorySize) bytes available) as the bitmap backing
// store. Every frame starts out marked used; callers free ranges with
// MarkRegionFree once the bootloader-reported usable ranges are known.
func (a *Allocator) Init(memorySize mem.Size, bitmapStorage uintptr) {
	a.frameCount = uint64(memorySize) / uint64(mem.PageSize)
	words := (a.frameCount + wordBits - 1) / wordBits

	a.bitmapHdr = reflect.SliceHeader{Data: bitmapStorage, Len: int(words), Cap: int(words)}
	a.bitmap = *(*[]uint64)(unsafe.Pointer(&a.bitmapHdr))

	for i := range a.bitmap {
		a.bitmap[i] = ^uint64(0)
	}

	a.lastFreeHint = 0
	a.doubleFree = false
}

// frameMask returns the word index and big-endian-within-word bit mask for
// a frame number.
func frameMask(frame uint64) (word int, mask uint64) {
	word = int(frame / wordBits)
	bit := frame % wordBits
	mask = uint64(1) << (wordBits - 1 - bit)
	return
}

func (a *Allocator) isFree(frame uint64) bool {
	word, mask := frameMask(frame)
	return a.bitmap[word]&mask == 0
}

func (a *Allocator) setUsed(frame uint64) {
	word, mask := frameMask(frame)
	a.bitmap[word] |= mask
}

func (a *Allocator) setFree(frame uint64) {
	word, mask := frameMask(frame)
	a.bitmap[word] &^= mask
}

// MarkRegionFree flips to free every frame entirely contained within
// [base, base+length). Partial boundary frames are left untouched (free
// rounds inward) so a range reported as usable by the bootloader never frees
// memory that overlaps a reserved neighbor.
func (a *Allocator) MarkRegionFree(base uintptr, length mem.Size) {
	start, end := a.innerFrameRange(base, length)
	for f := start; f < end; f++ {
		a.setFree(f)
	}
}

// MarkRegionUsed flips to used every frame that overlaps [base, base+length)
// at all. Partial boundary frames are included (used rounds outward) so a
// reserved range never leaves a partially-covered frame available.
func (a *Allocator) MarkRegionUsed(base uintptr, length mem.Size) {
	start, end := a.outerFrameRange(base, length)
	for f := start; f < end && f < a.frameCount; f++ {
		a.setUsed(f)
	}
}

func (a *Allocator) innerFrameRange(base uintptr, length mem.Size) (start, end uint64) {
	pageSizeMinus1 := uintptr(mem.PageSize - 1)
	start = uint64((base + pageSizeMinus1) &^ pageSizeMinus1 >> mem.PageShift)
	endAddr := base + uintptr(length)
	end = uint64(endAddr &^ pageSizeMinus1 >> mem.PageShift)
	if end > a.frameCount {
		end = a.frameCount
	}
	return
}

func (a *Allocator) outerFrameRange(base uintptr, length mem.Size) (start, end uint64) {
	pageSizeMinus1 := uintptr(mem.PageSize - 1)
	start = uint64(base &^ pageSizeMinus1 >> mem.PageShift)
	endAddr := base + uintptr(length) + pageSizeMinus1
	end = uint64(endAddr &^ pageSizeMinus1 >> mem.PageShift)
	return
}

// AllocBlock reserves and returns the next available frame, scanning
// linearly from the last-free hint. The hint advances past the returned
// frame on success.
func (a *Allocator) AllocBlock() (mem.Frame, *kernel.Error) {
	for f := a.lastFreeHint; f < a.frameCount; f++ {
		if a.isFree(f) {
			a.setUsed(f)
			a.lastFreeHint = f + 1
			return mem.Frame(f), nil
		}
	}

	// wrap around: the hint may have started past a freed low region
	for f := uint64(0); f < a.lastFreeHint && f < a.frameCount; f++ {
		if a.isFree(f) {
			a.setUsed(f)
			a.lastFreeHint = f + 1
			return mem.Frame(f), nil
		}
	}

	return mem.InvalidFrame, errOutOfMemory
}

// FreeBlock releases frame back to the pool. Freeing a frame that is already
// free is a double-free: the bitmap state does not change (it is already
// clear) but the condition is logged as a warning, matching the core's
// policy of tolerating conditions that waste space rather than threaten an
// address-space invariant.
func (a *Allocator) FreeBlock(frame mem.Frame) {
	f := uint64(frame)
	if f >= a.frameCount {
		return
	}

	if a.isFree(f) {
		a.doubleFree = true
		kfmt.Logf(kfmt.LevelWarn, "pfa", "double free of frame %d", f)
		return
	}

	a.setFree(f)
	if f < a.lastFreeHint {
		a.lastFreeHint = f
	}
}

// AllocContiguous reserves n consecutive free frames and returns the first
// frame of the run. It scans the bitmap one frame at a time from frame 0;
// it does not skip whole bitmap words. Ties on equal-length free runs
// resolve to the lowest address, which falls out naturally from scanning
// low to high.
func (a *Allocator) AllocContiguous(n uint64) (mem.Frame, *kernel.Error) {
	if n == 0 {
		return mem.InvalidFrame, errOutOfMemory
	}

	var runStart uint64
	var runLen uint64
	for f := uint64(0); f < a.frameCount; f++ {
		if a.isFree(f) {
			if runLen == 0 {
				runStart = f
			}
			runLen++
			if runLen == n {
				for i := uint64(0); i < n; i++ {
					a.setUsed(runStart + i)
				}
				if runStart < a.lastFreeHint && runStart+n > a.lastFreeHint {
					a.lastFreeHint = runStart + n
				}
				return mem.Frame(runStart), nil
			}
		} else {
			runLen = 0
		}
	}

	return mem.InvalidFrame, errOutOfMemory
}

// DoubleFreeObserved reports whether a double-free has ever been recorded.
func (a *Allocator) DoubleFreeObserved() bool { return a.doubleFree }

// FrameCount returns the total number of frames tracked by this allocator.
func (a *Allocator) FrameCount() uint64 { return a.frameCount }
