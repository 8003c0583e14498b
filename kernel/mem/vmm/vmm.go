// Package vmm implements the four-level page-table walker/mutator and the
// permanent physical-memory window it uses to read and write table
// contents.
package vmm

import (
	"vmcore/kernel"
	"vmcore/kernel/mem"
)

var (
	// currentDirectory is the per-CPU current-directory pointer (§3).
	// Per-process address spaces are not modeled yet, so this is a single
	// global rather than truly per-CPU state; SwitchDirectory is the
	// single mutation point an implementer would parameterize per-CPU.
	currentDirectory mem.Frame

	errAbsent           = &kernel.Error{Module: "vmm", Message: "virtual address does not resolve to a present mapping"}
	errNonCanonical     = &kernel.Error{Module: "vmm", Message: "virtual address is not canonical"}
	errLargePageStraddle = &kernel.Error{Module: "vmm", Message: "walk encountered a large-page terminal above the leaf level"}
)

// Directory identifies a PML4 by the physical frame that backs it.
type Directory mem.Frame

// CurrentDirectory returns the directory installed by the most recent call
// to SwitchDirectory.
func CurrentDirectory() Directory { return Directory(currentDirectory) }

// SwitchDirectory installs dir as the current directory. Bootstrap is the
// only caller during the boot sequence described in §4.E step 5; later
// callers would be a per-CPU context switch, not yet modeled.
func SwitchDirectory(dir Directory) { currentDirectory = mem.Frame(dir) }

// PageLookup returns the leaf PTE that corresponds to va within dir. If
// flags contains Create, missing interior tables are allocated from the PFA,
// zeroed, and linked present+writable+user. Non-canonical addresses and
// walks that encounter a large-page terminal above the leaf level both
// report absence without mutating any table.
func PageLookup(dir Directory, va uintptr, flags Flag) (*PTE, *kernel.Error) {
	if !mem.Canonical(va) {
		return nil, errNonCanonical
	}

	var (
		leaf *PTE
		err  *kernel.Error
	)

	walk(mem.Frame(dir), va, func(level uint8, pte *PTE) bool {
		if level == pageLevels-1 {
			leaf = pte
			return true
		}

		if pte.LargePage() {
			err = errLargePageStraddle
			return false
		}

		if !pte.Present() {
			if flags&Create == 0 {
				err = errAbsent
				return false
			}

			frame, allocErr := mem.AllocFrame()
			if allocErr != nil {
				err = allocErr
				return false
			}

			*pte = 0
			pte.SetFrame(frame)
			pte.set(ptePresent)
			pte.set(pteWritable)
			pte.set(pteUser)

			tableAddr, winErr := windowFn(frame.Address(), mem.PageSize)
			if winErr != nil {
				err = winErr
				return false
			}
			mem.Memset(tableAddr, 0, mem.PageSize)
		}

		return true
	})

	if err != nil {
		return nil, err
	}
	return leaf, nil
}

// PageAllocate sets bits on an existing leaf PTE according to flags. If the
// PTE has no backing frame and flags does not contain NoAlloc, a frame is
// obtained from the PFA and installed. If flags contains Free, the entry is
// released via PageFree instead.
func PageAllocate(pte *PTE, flags Flag) *kernel.Error {
	if flags&Free != 0 {
		PageFree(pte)
		return nil
	}

	if !pte.Present() && flags&NoAlloc == 0 {
		frame, err := mem.AllocFrame()
		if err != nil {
			return err
		}
		pte.SetFrame(frame)
	}

	applyOp(pte, flags)
	return nil
}

// PageFree clears present|writable|user on pte, returns its frame to the
// PFA, and zeros the frame field.
func PageFree(pte *PTE) {
	if pte.Present() {
		frame := pte.Frame()
		FreeFrame(frame)
	}
	pte.clear(ptePresent | pteWritable | pteUser)
	pte.SetFrame(0)
}

// FreeFrame is the indirection PageFree uses to return a frame to the PFA.
// It is a package variable, not a direct pfa.FreeBlock call, so that vmm
// does not import pfa (which would create an import cycle through
// bootstrap); bootstrap.Init wires it during Init.
var FreeFrame = func(mem.Frame) {}

// MapAddress maps virtual address va to physical address phys within dir:
// lookup-or-create the leaf entry, then install phys with NoAlloc so the
// walker doesn't also hand out a fresh frame.
func MapAddress(dir Directory, phys, va uintptr, flags Flag) *kernel.Error {
	pte, err := PageLookup(dir, va, flags|Create)
	if err != nil {
		return err
	}

	*pte = 0
	pte.SetFrame(mem.FrameFromAddress(phys))
	return PageAllocate(pte, flags|NoAlloc)
}

// VirtToPhys returns the physical address that va resolves to within dir,
// preserving va's low 12-bit offset. It returns an error for an absent or
// non-canonical mapping.
func VirtToPhys(dir Directory, va uintptr) (uintptr, *kernel.Error) {
	pte, err := PageLookup(dir, va, 0)
	if err != nil {
		return 0, err
	}
	if !pte.Present() {
		return 0, errAbsent
	}

	return pte.Frame().Address() + pageOffset(va), nil
}

func pageOffset(va uintptr) uintptr {
	return va & ((1 << pageLevelShifts[pageLevels-1]) - 1)
}
