package vmm

import (
	"testing"
	"unsafe"

	"vmcore/kernel"
	"vmcore/kernel/mem"
)

// fakeVA is the virtual address whose walk newFakeTables pre-links.
const fakeVA = uintptr(0x8080604400)

// fakeTables backs a small in-process page-table hierarchy: one 512-entry
// PTE array per level, where the entry fakeVA indexes at each level is
// pre-linked to the next level's table via a distinct synthetic frame
// number, so walk()'s Window-based resolution can be exercised without any
// real physical memory.
type fakeTables struct {
	levels [pageLevels]*[512]PTE
	frames [pageLevels]mem.Frame
}

func newFakeTables() *fakeTables {
	ft := &fakeTables{}
	for i := 0; i < pageLevels; i++ {
		ft.levels[i] = new([512]PTE)
		ft.frames[i] = mem.Frame(100 + i)
	}
	for i := 0; i < pageLevels-1; i++ {
		index := (fakeVA >> pageLevelShifts[i]) & ((1 << pageLevelBits[i]) - 1)
		ft.levels[i][index].SetFrame(ft.frames[i+1])
		ft.levels[i][index].set(ptePresent)
	}
	return ft
}

func (ft *fakeTables) install(t *testing.T) func() {
	origWindow := windowFn
	origPtePtr := ptePtrFn

	windowFn = func(phys uintptr, len mem.Size) (uintptr, *kernel.Error) {
		for i, f := range ft.frames {
			if f.Address() == phys {
				return uintptr(unsafe.Pointer(ft.levels[i])), nil
			}
		}
		t.Fatalf("windowFn called with unexpected phys addr %#x", phys)
		return 0, nil
	}

	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(entryAddr)
	}

	return func() {
		windowFn = origWindow
		ptePtrFn = origPtePtr
	}
}

func TestPageLookupAbsentWithoutCreate(t *testing.T) {
	ft := newFakeTables()
	defer ft.install(t)()

	_, err := PageLookup(Directory(ft.frames[0]), uintptr(0), 0)
	if err == nil {
		t.Fatal("expected an error for an absent mapping without Create")
	}
}

func TestPageLookupNonCanonicalAddress(t *testing.T) {
	ft := newFakeTables()
	defer ft.install(t)()

	nonCanonical := uintptr(1) << 60
	_, err := PageLookup(Directory(ft.frames[0]), nonCanonical, Create)
	if err != errNonCanonical {
		t.Fatalf("expected errNonCanonical; got %v", err)
	}
}

func TestMapAddressAndVirtToPhys(t *testing.T) {
	ft := newFakeTables()
	defer ft.install(t)()

	defer mem.SetFrameAllocator(nil)

	nextFrame := mem.Frame(200)
	mem.SetFrameAllocator(func() (mem.Frame, *kernel.Error) {
		f := nextFrame
		nextFrame++
		return f, nil
	})

	dir := Directory(ft.frames[0])
	virt := fakeVA
	phys := uintptr(0x7000)

	if err := MapAddress(dir, phys, virt, Kernel); err != nil {
		t.Fatalf("MapAddress failed: %v", err)
	}

	got, err := VirtToPhys(dir, virt)
	if err != nil {
		t.Fatalf("VirtToPhys failed: %v", err)
	}

	wantOffset := virt & (uintptr(mem.PageSize) - 1)
	if want := (phys &^ (uintptr(mem.PageSize) - 1)) + wantOffset; got != want {
		t.Errorf("expected phys addr %#x; got %#x", want, got)
	}
}

func TestPageFreeClearsEntry(t *testing.T) {
	var pte PTE
	pte.SetFrame(mem.Frame(5))
	pte.set(ptePresent | pteWritable | pteUser)

	freed := mem.Frame(0)
	origFree := FreeFrame
	defer func() { FreeFrame = origFree }()
	FreeFrame = func(f mem.Frame) { freed = f }

	PageFree(&pte)

	if freed != mem.Frame(5) {
		t.Errorf("expected frame 5 to be freed; got %d", freed)
	}
	if pte.Present() || pte.Writable() {
		t.Error("expected present/writable bits to be cleared after PageFree")
	}
	if pte.Frame() != mem.Frame(0) {
		t.Errorf("expected frame field to be cleared; got %d", pte.Frame())
	}
}

func TestSwitchDirectory(t *testing.T) {
	SwitchDirectory(Directory(mem.Frame(42)))
	if got := CurrentDirectory(); got != Directory(mem.Frame(42)) {
		t.Errorf("expected current directory to be 42; got %d", got)
	}
}
