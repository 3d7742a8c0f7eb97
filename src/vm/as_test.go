package vm

import (
	"testing"

	"mem"
	"pagetable"
)

func newAlloc(nframes int) *mem.Allocator {
	return mem.NewAllocator(0, nframes)
}

func TestMapThenTranslateAndReadBytes(t *testing.T) {
	alloc := newAlloc(64)
	as := New(alloc)

	data := []byte("hello, sv39")
	as.Map(1, 2, data, 0, pagetable.R|pagetable.W|pagetable.U)

	got, ok := as.ReadBytes(1<<12, len(data))
	if !ok {
		t.Fatal("expected ReadBytes to succeed on a mapped page")
	}
	if string(got) != string(data) {
		t.Fatalf("ReadBytes = %q, want %q", got, data)
	}
}

func TestWriteBytesAcrossPageBoundary(t *testing.T) {
	alloc := newAlloc(64)
	as := New(alloc)
	as.Map(0, 2, nil, 0, pagetable.R|pagetable.W|pagetable.U)

	src := make([]byte, 4100)
	for i := range src {
		src[i] = byte(i)
	}
	if !as.WriteBytes(0, src) {
		t.Fatal("expected WriteBytes spanning two pages to succeed")
	}
	got, ok := as.ReadBytes(0, len(src))
	if !ok {
		t.Fatal("expected ReadBytes spanning two pages to succeed")
	}
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], src[i])
		}
	}
}

func TestTranslateFailsWithoutRequiredPermission(t *testing.T) {
	alloc := newAlloc(64)
	as := New(alloc)
	as.Map(0, 1, nil, 0, pagetable.R|pagetable.U) // read-only

	if ok := as.WriteBytes(0, []byte{1}); ok {
		t.Fatal("expected write to a read-only page to fail")
	}
}

func TestMapPanicsOnAlreadyValidVPN(t *testing.T) {
	alloc := newAlloc(64)
	as := New(alloc)
	as.Map(5, 6, nil, 0, pagetable.R|pagetable.U)

	defer func() {
		if recover() == nil {
			t.Fatal("expected Map of an already-valid vpn to panic")
		}
	}()
	as.Map(5, 6, nil, 0, pagetable.R|pagetable.U)
}

func TestUnmapFreesOwnedPages(t *testing.T) {
	alloc := newAlloc(64)
	as := New(alloc)
	before := alloc.Allocated()

	as.Map(0, 4, nil, 0, pagetable.R|pagetable.W|pagetable.U)
	afterMap := alloc.Allocated()
	if afterMap <= before {
		t.Fatal("expected Map to allocate frames")
	}

	as.Unmap(0, 4)
	if alloc.Allocated() != before {
		t.Fatalf("Allocated() = %d after Unmap, want %d (back to baseline)", alloc.Allocated(), before)
	}
}

func TestDropFreesEverythingOwned(t *testing.T) {
	alloc := newAlloc(64)
	before := alloc.Allocated()

	as := New(alloc)
	as.Map(0, 3, nil, 0, pagetable.R|pagetable.W|pagetable.U)
	as.Drop()

	if alloc.Allocated() != before {
		t.Fatalf("Allocated() = %d after Drop, want %d", alloc.Allocated(), before)
	}
}

func TestCloneIntoCopiesOwnedAndExtern(t *testing.T) {
	alloc := newAlloc(64)
	src := New(alloc)
	dst := New(alloc)

	src.Map(0, 1, []byte("owned"), 0, pagetable.R|pagetable.W|pagetable.U)
	src.MapExtern(10, 11, 3, pagetable.R|pagetable.U)

	src.CloneInto(dst)

	got, ok := dst.ReadBytes(0, 5)
	if !ok || string(got) != "owned" {
		t.Fatalf("cloned owned page = %q,%v want \"owned\",true", got, ok)
	}

	if _, _, ok := dst.Translate(10<<12, pagetable.RV); !ok {
		t.Fatal("expected cloned extern mapping to translate")
	}
}

func TestSharePortalCopiesTopLevelEntry(t *testing.T) {
	alloc := newAlloc(64)
	kernelAS := New(alloc)
	portalVPN := uint64(1) << 26 // top-level index != 0, low levels 0
	kernelAS.MapExtern(portalVPN, portalVPN+1, 7, pagetable.R|pagetable.W)

	userAS := New(alloc)
	userAS.SharePortal(portalVPN, kernelAS)

	if _, _, ok := userAS.Translate(portalVPN<<12, pagetable.R); !ok {
		t.Fatal("expected the shared portal VPN to translate in the user address space")
	}
}
