package pagetable

import (
	"testing"

	"mem"
)

func TestParseFlags(t *testing.T) {
	f, ok := ParseFlags("_XWRV")
	if !ok {
		t.Fatal("expected \"_XWRV\" to parse")
	}
	if f&(X|W|R|V) != X|W|R|V {
		t.Fatalf("flags = %b, want X|W|R|V set", f)
	}
	if f&U != 0 {
		t.Fatal("expected U to be absent")
	}

	if _, ok := ParseFlags("bogus"); ok {
		t.Fatal("expected a garbage mnemonic to fail to parse")
	}
	if _, ok := ParseFlags("UXWR"); ok {
		t.Fatal("expected a short mnemonic to fail to parse")
	}
}

func TestMakePTERoundTrip(t *testing.T) {
	ppn := mem.PPN(0x1234)
	pte := Sv39.MakePTE(ppn, V|R|W)
	if Sv39.PPN(pte) != ppn {
		t.Fatalf("PPN() = %#x, want %#x", Sv39.PPN(pte), ppn)
	}
	if !pte.Valid() || !pte.IsLeaf() {
		t.Fatal("expected a valid leaf PTE")
	}
	if pte.Owned() {
		t.Fatal("expected OWNED to be unset")
	}
}

func TestVPNIndexAndFloorCeil(t *testing.T) {
	vpn := uint64(0)
	for level := 0; level < Sv39.Levels; level++ {
		vpn |= uint64(level+1) << uint(level*Sv39.LevelBits)
	}
	for level := 0; level < Sv39.Levels; level++ {
		if got := Sv39.VPNIndex(vpn, level); got != uint64(level+1) {
			t.Errorf("VPNIndex(level=%d) = %d, want %d", level, got, level+1)
		}
	}

	if got := Sv39.Floor(0x1fff); got != 1 {
		t.Errorf("Floor(0x1fff) = %d, want 1", got)
	}
	if got := Sv39.Floor(0x2000); got != 2 {
		t.Errorf("Floor(0x2000) = %d, want 2", got)
	}
	if got := Sv39.Ceil(0x1001); got != 2 {
		t.Errorf("Ceil(0x1001) = %d, want 2", got)
	}
	if got := Sv39.Ceil(0x1000); got != 1 {
		t.Errorf("Ceil(0x1000) = %d, want 1", got)
	}
}

func TestWalkCreatesAndFindsLeaf(t *testing.T) {
	alloc := mem.NewAllocator(0, 64)
	root, ok := alloc.Alloc()
	if !ok {
		t.Fatal("failed to allocate root page table")
	}

	vpn := uint64(0x2_0001) // root index 0, non-zero indices at the two lower levels
	slot := Walk(Sv39, alloc, root, vpn, true)
	if !slot.Valid() {
		t.Fatal("expected Walk(create=true) to produce a valid slot")
	}
	leafPPN, ok := alloc.Alloc()
	if !ok {
		t.Fatal("failed to allocate leaf frame")
	}
	slot.Set(Sv39.MakePTE(leafPPN, V|R))

	again := Walk(Sv39, alloc, root, vpn, false)
	if !again.Valid() {
		t.Fatal("expected Walk(create=false) to find the previously-created leaf")
	}
	if Sv39.PPN(again.Get()) != leafPPN {
		t.Fatalf("PPN() = %#x, want %#x", Sv39.PPN(again.Get()), leafPPN)
	}

	missing := Walk(Sv39, alloc, root, vpn+1, false)
	if missing.Valid() && missing.Get().Valid() {
		t.Fatal("expected Walk(create=false) on an unmapped vpn to find no valid PTE")
	}
}

func TestWalkAllEnumeratesLeaves(t *testing.T) {
	alloc := mem.NewAllocator(0, 64)
	root, _ := alloc.Alloc()

	vpns := []uint64{0x10, 0x1_0010, 0x2_0020}
	for _, vpn := range vpns {
		slot := Walk(Sv39, alloc, root, vpn, true)
		leafPPN, _ := alloc.Alloc()
		slot.Set(Sv39.MakePTE(leafPPN, V|R))
	}

	entries := WalkAll(Sv39, alloc, root)
	if len(entries) != len(vpns) {
		t.Fatalf("WalkAll returned %d entries, want %d", len(entries), len(vpns))
	}
	seen := map[uint64]bool{}
	for _, e := range entries {
		seen[e.VPN] = true
	}
	for _, vpn := range vpns {
		if !seen[vpn] {
			t.Errorf("WalkAll missing vpn %#x", vpn)
		}
	}
}
