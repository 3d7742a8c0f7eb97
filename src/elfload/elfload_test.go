package elfload

import (
	"testing"

	"config"
	"mem"
	"pagetable"
	"testelf"
	"vm"
)

func TestLoadMapsSegmentAndReturnsEntryPoints(t *testing.T) {
	alloc := mem.NewAllocator(0, 64)
	as := vm.New(alloc)

	code := []byte{0x13, 0x00, 0x00, 0x00} // addi x0, x0, 0 (nop)
	image := testelf.Build(0x1000, 0x1000, code, 0x2000)

	got, ok := Load(as, image)
	if !ok {
		t.Fatal("expected Load to accept a well-formed ELF64 RISC-V image")
	}
	if got.Entry != 0x1000 {
		t.Fatalf("Entry = %#x, want 0x1000", got.Entry)
	}
	if got.HeapBottom < 0x1000+0x2000 {
		t.Fatalf("HeapBottom = %#x, want at least past the loaded segment", got.HeapBottom)
	}
	expectedStackTop := uint64(config.PortalVPN) << uint(pagetable.Sv39.PageBits)
	if got.StackTop != expectedStackTop {
		t.Fatalf("StackTop = %#x, want %#x", got.StackTop, expectedStackTop)
	}

	readBack, ok := as.ReadBytes(0x1000, len(code))
	if !ok || string(readBack) != string(code) {
		t.Fatalf("ReadBytes(0x1000) = %q,%v want %q,true", readBack, ok, code)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	alloc := mem.NewAllocator(0, 64)
	as := vm.New(alloc)
	if _, ok := Load(as, []byte("not an elf")); ok {
		t.Fatal("expected Load to reject non-ELF bytes")
	}
}

func TestLoadMapsUserStackBelowPortal(t *testing.T) {
	alloc := mem.NewAllocator(0, 64)
	as := vm.New(alloc)
	image := testelf.Build(0x1000, 0x1000, []byte{0, 0, 0, 0}, 0x1000)

	_, ok := Load(as, image)
	if !ok {
		t.Fatal("expected Load to succeed")
	}

	stackBottomVPN := uint64(config.PortalVPN) - config.UserStackPages
	if _, _, ok := as.Translate(stackBottomVPN<<uint(pagetable.Sv39.PageBits), pagetable.RV|pagetable.W); !ok {
		t.Fatal("expected the user stack region to be mapped read/write/user")
	}
}
