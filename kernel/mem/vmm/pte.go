package vmm

import "vmcore/kernel/mem"

// pteBit is a single hardware-defined bit within a page table entry, laid
// out exactly as spec'd: present, writable, user, writethrough,
// uncacheable, accessed, dirty, size, global, frame (40 bits), nx.
type pteBit uintptr

const (
	ptePresent pteBit = 1 << iota
	pteWritable
	pteUser
	pteWriteThrough
	pteNoCache
	pteAccessed
	pteDirty
	pteSize // 1 = large page terminal at this level
	pteGlobal
)

const pteNX = pteBit(1) << 63

// PTE describes a single 64-bit page table entry.
type PTE uintptr

func (pte PTE) has(bits pteBit) bool {
	return uintptr(pte)&uintptr(bits) == uintptr(bits)
}

func (pte *PTE) set(bits pteBit) {
	*pte = PTE(uintptr(*pte) | uintptr(bits))
}

func (pte *PTE) clear(bits pteBit) {
	*pte = PTE(uintptr(*pte) &^ uintptr(bits))
}

// Frame returns the physical frame this entry points to.
func (pte PTE) Frame() mem.Frame {
	return mem.Frame((uintptr(pte) & ptePhysPageMask) >> mem.PageShift)
}

// SetFrame updates the entry to point at frame, preserving its flag bits.
func (pte *PTE) SetFrame(frame mem.Frame) {
	*pte = PTE((uintptr(*pte) &^ ptePhysPageMask) | frame.Address())
}

// Present reports whether the present bit is set.
func (pte PTE) Present() bool { return pte.has(ptePresent) }

// Writable reports whether the writable bit is set.
func (pte PTE) Writable() bool { return pte.has(pteWritable) }

// LargePage reports whether the size bit marks this entry as a large-page
// terminal (only meaningful at the PDPT and PD levels).
func (pte PTE) LargePage() bool { return pte.has(pteSize) }

// applyOp translates an operation Flag set (spec §4.C's CREATE/KERNEL/
// READONLY/...) into the hardware bits of a fresh leaf entry. User access is
// on by default; Flag(Kernel) turns it off, matching "default is user=1".
func applyOp(pte *PTE, flags Flag) {
	pte.set(pteUser)

	if flags&NotPresent == 0 {
		pte.set(ptePresent)
	}
	pte.set(pteWritable)
	if flags&ReadOnly != 0 {
		pte.clear(pteWritable)
	}
	if flags&Kernel != 0 {
		pte.clear(pteUser)
	}
	if flags&WriteThrough != 0 {
		pte.set(pteWriteThrough)
	}
	if flags&NotCacheable != 0 {
		pte.set(pteNoCache)
	}
	if flags&LargePage != 0 {
		pte.set(pteSize)
	}
}

// NewEntry builds a fresh page table entry pointing at frame with flags
// applied. It exists for callers outside the package (bootstrap) that build
// raw table entries directly instead of going through PageLookup/
// PageAllocate's walker path.
func NewEntry(frame mem.Frame, flags Flag) PTE {
	var pte PTE
	pte.SetFrame(frame)
	applyOp(&pte, flags)
	return pte
}
