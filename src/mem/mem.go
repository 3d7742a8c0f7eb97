// Package mem is the physical frame allocator and kernel heap. On real
// hardware "physical memory" is the DRAM behind the MMU; since this kernel
// is driven under `go test` rather than on actual silicon, physical memory
// is modeled as an arena of fixed-size frames indexed by PPN, the same
// Dmap-style indirection biscuit's mem.Physmem_t uses to go from a physical
// address to a dereferenceable page.
package mem

import (
	"sync"

	"config"
)

// PPN is a physical page number.
type PPN uint64

// Frame is one physical page's backing bytes.
type Frame [config.PageSize]byte

// OOM is sent on this channel when the allocator runs dry, mirroring
// biscuit's oommsg notification idiom: any interested party (here, the
// logging goroutine kernel.Boot starts) gets a chance to react before the
// allocator gives up and the caller panics.
type OOM struct {
	Need   int
	Resume chan bool
}

// Allocator hands out and reclaims physical frames. All kernel-owned page
// frames — page tables and user/kernel mapped pages alike — come from here,
// so invariant 3 in spec §8 (leak-freedom) can be checked by comparing
// Allocated() against the sum of OWNED pages across all address spaces.
type Allocator struct {
	mu        sync.Mutex
	frames    []Frame
	free      []PPN
	base      PPN
	allocated int

	OomCh chan OOM
}

// NewAllocator builds an allocator over nframes physical pages starting at
// physical page number base (base lets tests and the kernel reserve a
// low region for the image/boot stack without the allocator handing it
// back out).
func NewAllocator(base PPN, nframes int) *Allocator {
	a := &Allocator{
		frames: make([]Frame, nframes),
		free:   make([]PPN, 0, nframes),
		base:   base,
		OomCh:  make(chan OOM, 1),
	}
	for i := nframes - 1; i >= 0; i-- {
		a.free = append(a.free, base+PPN(i))
	}
	return a
}

// Alloc reserves one frame, zeroes it, and returns its PPN. ok is false if
// the allocator is out of memory; callers that cannot tolerate OOM (most
// kernel paths) escalate to klog.Panicf per spec §7.
func (a *Allocator) Alloc() (PPN, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.free) == 0 {
		select {
		case a.OomCh <- OOM{Need: 1}:
		default:
		}
		return 0, false
	}
	n := len(a.free) - 1
	ppn := a.free[n]
	a.free = a.free[:n]
	a.allocated++
	idx := ppn - a.base
	a.frames[idx] = Frame{}
	return ppn, true
}

// Free returns a frame to the allocator. Freeing an unallocated or
// out-of-range PPN is a kernel invariant violation, not a syscall error, so
// it panics rather than returning a bool; callers that may pass bad input
// (there are none inside this kernel — PPNs only ever come from Alloc) must
// validate before calling.
func (a *Allocator) Free(ppn PPN) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := int64(ppn) - int64(a.base)
	if idx < 0 || idx >= int64(len(a.frames)) {
		panic("mem: free of out-of-range ppn")
	}
	for _, f := range a.free {
		if f == ppn {
			panic("mem: free of unallocated ppn")
		}
	}
	a.free = append(a.free, ppn)
	a.allocated--
}

// Deref returns the backing bytes for a PPN, the arena equivalent of
// biscuit's Physmem.Dmap.
func (a *Allocator) Deref(ppn PPN) *Frame {
	idx := int64(ppn) - int64(a.base)
	if idx < 0 || idx >= int64(len(a.frames)) {
		panic("mem: deref of out-of-range ppn")
	}
	return &a.frames[idx]
}

// Allocated reports the number of frames currently handed out.
func (a *Allocator) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

// NumFree reports the number of frames still available.
func (a *Allocator) NumFree() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.free)
}

// Uint64At reads the little-endian uint64 stored at the given 8-byte-aligned
// slot within the frame. Page-table pages reinterpret their frame as an
// array of such slots (one per PTE) instead of reaching for unsafe.Pointer.
func (f *Frame) Uint64At(slot int) uint64 {
	off := slot * 8
	b := f[off : off+8]
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// SetUint64At writes v into the given 8-byte slot of the frame.
func (f *Frame) SetUint64At(slot int, v uint64) {
	off := slot * 8
	b := f[off : off+8]
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
}
