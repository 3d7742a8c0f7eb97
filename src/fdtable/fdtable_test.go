package fdtable

import "testing"

type fakeHandle struct {
	name    string
	closed  *int
	readOK  bool
	writeOK bool
	data    []byte
}

func (f *fakeHandle) Readable() bool { return f.readOK }
func (f *fakeHandle) Writable() bool { return f.writeOK }
func (f *fakeHandle) Read(buf []byte) (int, bool) {
	n := copy(buf, f.data)
	return n, true
}
func (f *fakeHandle) Write(buf []byte) (int, bool) {
	f.data = append(f.data, buf...)
	return len(buf), true
}
func (f *fakeHandle) Close() {
	if f.closed != nil {
		*f.closed++
	}
}

// Clone returns the same handle: the fake models one shared underlying
// resource, so a dup sees writes made through the original.
func (f *fakeHandle) Clone() Handle {
	return f
}

func TestInstallUsesLowestFreeSlot(t *testing.T) {
	tbl := New()
	a := tbl.Install(&fakeHandle{name: "a"})
	b := tbl.Install(&fakeHandle{name: "b"})
	if a != 0 || b != 1 {
		t.Fatalf("Install slots = %d,%d want 0,1", a, b)
	}

	tbl.Close(0)
	c := tbl.Install(&fakeHandle{name: "c"})
	if c != 0 {
		t.Fatalf("Install after Close(0) = %d, want 0 (reuse lowest free slot)", c)
	}
}

func TestInstallAtClosesExistingHandle(t *testing.T) {
	tbl := New()
	closed := 0
	tbl.InstallAt(2, &fakeHandle{name: "old", closed: &closed})
	tbl.InstallAt(2, &fakeHandle{name: "new"})

	if closed != 1 {
		t.Fatalf("closed = %d, want 1", closed)
	}
	h, ok := tbl.Get(2)
	if !ok || h.(*fakeHandle).name != "new" {
		t.Fatalf("Get(2) = %v,%v want new handle", h, ok)
	}
}

func TestGetMissingSlot(t *testing.T) {
	tbl := New()
	if _, ok := tbl.Get(5); ok {
		t.Fatal("expected Get on an empty table to fail")
	}
}

func TestCloseAllEmptiesEverySlot(t *testing.T) {
	tbl := New()
	mk := func(name string) *fakeHandle {
		return &fakeHandle{name: name}
	}
	h0 := mk("zero")
	h1 := mk("one")
	h2 := mk("two")
	tbl.Install(h0)
	tbl.Install(h1)
	tbl.Install(h2)

	tbl.CloseAll()
	for i := 0; i < 3; i++ {
		if _, ok := tbl.Get(i); ok {
			t.Fatalf("expected slot %d to be empty after CloseAll", i)
		}
	}
}

func TestDupSharesUnderlyingResource(t *testing.T) {
	tbl := New()
	fd := tbl.Install(&fakeHandle{name: "orig", readOK: true, writeOK: true})
	dup, ok := tbl.Dup(fd)
	if !ok {
		t.Fatal("expected Dup to succeed")
	}

	orig, _ := tbl.Get(fd)
	orig.Write([]byte("hi"))

	dh, _ := tbl.Get(dup)
	buf := make([]byte, 2)
	n, _ := dh.Read(buf)
	if n != 2 || string(buf) != "hi" {
		t.Fatalf("dup did not see original's data: n=%d buf=%q", n, buf)
	}
}

func TestCloneProducesIndependentTableOverSameHandles(t *testing.T) {
	tbl := New()
	tbl.Install(&fakeHandle{name: "shared", readOK: true, writeOK: true})

	clone := tbl.Clone()
	if _, ok := clone.Get(0); !ok {
		t.Fatal("expected cloned table to carry over slot 0")
	}

	clone.Close(0)
	if _, ok := tbl.Get(0); !ok {
		t.Fatal("closing a slot in the clone must not affect the original table")
	}
}
