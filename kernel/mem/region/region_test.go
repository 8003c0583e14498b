package region

import (
	"testing"

	"vmcore/kernel/mem"
	"vmcore/kernel/mem/vmm"
)

func TestPageAlign(t *testing.T) {
	specs := []struct {
		size mem.Size
		want uintptr
	}{
		{size: 0, want: 0},
		{size: 1, want: uintptr(mem.PageSize)},
		{size: mem.Size(mem.PageSize), want: uintptr(mem.PageSize)},
		{size: mem.Size(mem.PageSize) + 1, want: 2 * uintptr(mem.PageSize)},
	}

	for i, spec := range specs {
		if got := pageAlign(spec.size); got != spec.want {
			t.Errorf("[spec %d] expected %#x; got %#x", i, spec.want, got)
		}
	}
}

func TestInit(t *testing.T) {
	var a Allocator
	a.Init("test", vmm.Directory(mem.Frame(1)), 0x1000, mem.Size(4*mem.PageSize), vmm.Kernel)

	if got := a.Cursor(); got != 0x1000 {
		t.Errorf("expected fresh cursor to equal base 0x1000; got %#x", got)
	}
	if a.limit != 0x1000+4*uintptr(mem.PageSize) {
		t.Errorf("expected limit to be base+size; got %#x", a.limit)
	}
}
