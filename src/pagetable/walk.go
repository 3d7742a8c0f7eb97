package pagetable

import "mem"

// entriesPerPage is how many PTE slots a single page-table page holds —
// derived from LevelBits (each level indexes 2^LevelBits entries) for the
// Meta in use; for Sv39 this is 512.
func entriesPerPage(m Meta) int { return 1 << uint(m.LevelBits) }

// Slot identifies one PTE's storage location: the frame backing the
// page-table page that holds it, plus its index within that frame. Callers
// read/write the PTE through Get/Set rather than a raw pointer, so the walk
// logic never needs unsafe.
type Slot struct {
	frame *mem.Frame
	idx   int
}

// Get reads the current PTE value.
func (s Slot) Get() PTE { return PTE(s.frame.Uint64At(s.idx)) }

// Set overwrites the PTE value.
func (s Slot) Set(p PTE) { s.frame.SetUint64At(s.idx, uint64(p)) }

// Valid reports whether this Slot denotes a real location (the zero Slot
// does not).
func (s Slot) Valid() bool { return s.frame != nil }

// Walk descends the page-table tree rooted at root looking for the PTE
// describing vpn. When create is true, missing intermediate tables are
// allocated (zeroed, non-leaf, V-only PTEs) as the walk proceeds; when
// false, the walk stops and returns a zero Slot as soon as it hits a
// missing or non-present intermediate entry.
func Walk(m Meta, alloc *mem.Allocator, root mem.PPN, vpn uint64, create bool) Slot {
	cur := root
	for level := m.Levels - 1; level >= 0; level-- {
		idx := int(m.VPNIndex(vpn, level))
		frame := alloc.Deref(cur)
		pte := PTE(frame.Uint64At(idx))

		if level == 0 {
			return Slot{frame: frame, idx: idx}
		}

		if !pte.Valid() {
			if !create {
				return Slot{}
			}
			childPPN, allocated := alloc.Alloc()
			if !allocated {
				return Slot{}
			}
			pte = m.MakePTE(childPPN, V)
			frame.SetUint64At(idx, uint64(pte))
		}
		if pte.IsLeaf() {
			// A huge/leaf mapping exists above the target level; the
			// pedagogical kernel never creates these, so treat it as
			// "not found at the requested granularity".
			return Slot{}
		}
		cur = m.PPN(pte)
	}
	return Slot{}
}

// WalkAll returns every present leaf Slot reachable from root together with
// its VPN, used by CloneInto and by the leak-freedom accounting in tests.
func WalkAll(m Meta, alloc *mem.Allocator, root mem.PPN) []struct {
	VPN  uint64
	Slot Slot
} {
	var out []struct {
		VPN  uint64
		Slot Slot
	}
	var rec func(ppn mem.PPN, level int, prefix uint64)
	rec = func(ppn mem.PPN, level int, prefix uint64) {
		frame := alloc.Deref(ppn)
		n := entriesPerPage(m)
		for idx := 0; idx < n; idx++ {
			pte := PTE(frame.Uint64At(idx))
			if !pte.Valid() {
				continue
			}
			vpn := prefix | (uint64(idx) << uint(level*m.LevelBits))
			if level == 0 {
				out = append(out, struct {
					VPN  uint64
					Slot Slot
				}{VPN: vpn, Slot: Slot{frame: frame, idx: idx}})
				continue
			}
			if pte.IsLeaf() {
				continue
			}
			rec(m.PPN(pte), level-1, vpn)
		}
	}
	rec(root, m.Levels-1, 0)
	return out
}
