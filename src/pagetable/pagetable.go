// Package pagetable implements a generic multi-level page-table tree,
// parameterised over MMU metadata (address width, page size, per-level
// index bits, PPN bit position, leaf predicate) as required by spec §3.
// The one concrete instantiation used by this kernel is Sv39 (the Sv39 Meta
// value below);
// the generic shape exists so the walk/alloc/free logic is written once
// and is not entangled with the bit layout of one particular MMU.
package pagetable

import (
	"mem"
)

// Flags are the PTE bits the kernel cares about. Bit positions match the
// RISC-V Sv39 PTE layout: V R W X U G A D occupy bits 0..7 in that order;
// OWNED is a kernel-private bit borrowed from the two reserved-for-software
// (RSW) bits, exactly as spec §3 describes.
type Flags uint16

const (
	V Flags = 1 << iota
	R
	W
	X
	U
	G
	A
	D
	OWNED
)

// RV and WV are the permission masks syscall handlers pass to Translate
// when reading or writing user memory (spec §4.2).
const (
	RV = V | R | U
	WV = V | W | U
)

// ParseFlags reads a 5-character mnemonic of the form "U_WRV" (positional:
// U, X, W, R, V; '_' means absent) into a Flags value, so call sites state
// their intended permissions inline (spec §4.2). OWNED is never settable
// through the mnemonic: Map sets it, MapExtern does not.
func ParseFlags(mnemonic string) (Flags, bool) {
	if len(mnemonic) != 5 {
		return 0, false
	}
	positions := [5]struct {
		bit  Flags
		char byte
	}{
		{U, 'U'}, {X, 'X'}, {W, 'W'}, {R, 'R'}, {V, 'V'},
	}
	var f Flags
	for i, p := range positions {
		switch mnemonic[i] {
		case '_':
			continue
		case p.char:
			f |= p.bit
		default:
			return 0, false
		}
	}
	return f, true
}

// PTE is a single 64-bit page-table entry: flags in the low bits, PPN
// shifted up by PPNShift.
type PTE uint64

// Meta describes one MMU's geometry. All address/level arithmetic in this
// package is expressed in terms of a Meta value instead of hard-coded
// constants, so a different MMU could reuse Walk/Map/Unmap by supplying a
// different Meta.
type Meta struct {
	VAddrBits int // total virtual address width
	PageBits  int // page offset width (log2 page size)
	LevelBits int // index bits per page-table level
	Levels    int // number of page-table levels
	PPNShift  int // bit position of the PPN field within a PTE
}

// Sv39 is this kernel's one MMU instantiation: 39-bit VAs, 4 KiB pages,
// three 9-bit levels, PPN starting at bit 10 (spec §3).
var Sv39 = Meta{VAddrBits: 39, PageBits: 12, LevelBits: 9, Levels: 3, PPNShift: 10}

func (m Meta) vpnBits() int { return m.VAddrBits - m.PageBits }

// VPNIndex extracts the index bits for the given level (0 = leaf level,
// Levels-1 = root level) out of a full virtual page number.
func (m Meta) VPNIndex(vpn uint64, level int) uint64 {
	shift := uint(level * m.LevelBits)
	mask := uint64(1)<<uint(m.LevelBits) - 1
	return (vpn >> shift) & mask
}

// Floor returns the virtual page number containing vaddr.
func (m Meta) Floor(vaddr uint64) uint64 {
	return vaddr >> uint(m.PageBits)
}

// Ceil returns the virtual page number one past the page containing
// vaddr-1, i.e. the page-rounded-up VPN — used for the exclusive end of a
// mapping range.
func (m Meta) Ceil(vaddr uint64) uint64 {
	pageSize := uint64(1) << uint(m.PageBits)
	return (vaddr + pageSize - 1) >> uint(m.PageBits)
}

// PageOffset returns the low, non-page-number bits of a virtual address.
func (m Meta) PageOffset(vaddr uint64) uint64 {
	mask := uint64(1)<<uint(m.PageBits) - 1
	return vaddr & mask
}

// rawFlags returns the low 9 bits of the PTE: V R W X U G A D plus OWNED.
func (p PTE) rawFlags() Flags { return Flags(uint64(p) & 0x1ff) }

// Flags exposes the PTE's flag bits.
func (p PTE) Flags() Flags { return p.rawFlags() }

// Valid reports V=1.
func (p PTE) Valid() bool { return p.rawFlags()&V != 0 }

// IsLeaf reports whether at least one of R/W/X is set — the invariant a
// non-leaf PTE must never violate (spec §8 property 1).
func (p PTE) IsLeaf() bool { return p.rawFlags()&(R|W|X) != 0 }

// Owned reports the kernel-private OWNED bit.
func (p PTE) Owned() bool { return p.rawFlags()&OWNED != 0 }

// HasAll reports whether every bit in want is set.
func (p PTE) HasAll(want Flags) bool { return p.rawFlags()&want == want }

// PPN extracts the physical page number a leaf or non-leaf PTE points at.
func (m Meta) PPN(p PTE) mem.PPN {
	return mem.PPN(uint64(p) >> uint(m.PPNShift))
}

// MakePTE builds a PTE pointing at ppn with the given flags.
func (m Meta) MakePTE(ppn mem.PPN, f Flags) PTE {
	return PTE(uint64(ppn)<<uint(m.PPNShift) | uint64(f))
}
