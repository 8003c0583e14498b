package vmm

import (
	"testing"

	"vmcore/kernel/mem"
)

func TestWindow(t *testing.T) {
	got, err := Window(uintptr(0x1000), mem.PageSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uintptr(0x1000) | windowBase; got != want {
		t.Errorf("expected %#x; got %#x", want, got)
	}
}

func TestWindowRejectsOutOfRange(t *testing.T) {
	_, err := Window(WindowSize, mem.PageSize)
	if err != errWindowTooLarge {
		t.Fatalf("expected errWindowTooLarge; got %v", err)
	}

	_, err = Window(WindowSize-uintptr(mem.PageSize)/2, mem.PageSize)
	if err != errWindowTooLarge {
		t.Fatalf("expected errWindowTooLarge for a request straddling the window edge; got %v", err)
	}
}

func TestWindowUnmapIsNoop(t *testing.T) {
	// WindowUnmap has nothing to verify beyond "does not panic".
	WindowUnmap(uintptr(0x1000))
}
