package vm

import (
	"mem"
	"pagetable"
)

// Translate walks the page table and, if the final PTE is valid and
// (pte.flags & required) == required, returns the backing frame for
// vaddr's page, the offset within it, and ok=true; otherwise ok=false.
// This is the sole legal path from syscall handlers to user memory (spec
// §4.2): every user-supplied pointer is translated through here with
// either RV or WV (plus U where applicable) before being dereferenced.
func (as *AddressSpace) Translate(vaddr uint64, required pagetable.Flags) (frame *mem.Frame, pageOffset int, ok bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	vpn := as.meta.Floor(vaddr)
	slot := pagetable.Walk(as.meta, as.alloc, as.root, vpn, false)
	if !slot.Valid() {
		return nil, 0, false
	}
	pte := slot.Get()
	if !pte.Valid() || !pte.HasAll(required) {
		return nil, 0, false
	}
	return as.alloc.Deref(as.meta.PPN(pte)), int(as.meta.PageOffset(vaddr)), true
}

// ReadBytes copies n bytes starting at the user virtual address vaddr into
// dst, translating page by page with RV (read+user) permission, re-
// translating across page boundaries per spec §9 ("bound count by the
// remaining bytes in the last translated page, and re-translate across
// page boundaries"). It fails as soon as one page in the range does not
// translate.
func (as *AddressSpace) ReadBytes(vaddr uint64, n int) ([]byte, bool) {
	out := make([]byte, 0, n)
	for len(out) < n {
		frame, off, ok := as.Translate(vaddr+uint64(len(out)), pagetable.RV)
		if !ok {
			return nil, false
		}
		room := len(frame) - off
		take := n - len(out)
		if take > room {
			take = room
		}
		out = append(out, frame[off:off+take]...)
	}
	return out, true
}

// WriteBytes copies src into user memory starting at vaddr, translating
// page by page with WV (write+user) permission.
func (as *AddressSpace) WriteBytes(vaddr uint64, src []byte) bool {
	written := 0
	for written < len(src) {
		frame, off, ok := as.Translate(vaddr+uint64(written), pagetable.WV)
		if !ok {
			return false
		}
		room := len(frame) - off
		take := len(src) - written
		if take > room {
			take = room
		}
		copy(frame[off:off+take], src[written:written+take])
		written += take
	}
	return true
}

// ReadString reads a NUL-terminated string from user memory, capped at
// maxLen bytes — used by path arguments such as open()'s path_ptr.
func (as *AddressSpace) ReadString(vaddr uint64, maxLen int) (string, bool) {
	buf := make([]byte, 0, 64)
	for i := 0; i < maxLen; i++ {
		b, ok := as.ReadBytes(vaddr+uint64(i), 1)
		if !ok {
			return "", false
		}
		if b[0] == 0 {
			return string(buf), true
		}
		buf = append(buf, b[0])
	}
	return "", false
}
