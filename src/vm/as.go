// Package vm implements the Sv39 address-space manager (spec §4.2):
// page-table construction, ELF loading support, copy-on-new-process
// cloning, and translation with permission checks. This generalizes
// biscuit's Vm_t/Pmap_t pair onto the generic pagetable package.
package vm

import (
	"fmt"
	"sync"

	"mem"
	"pagetable"
)

// AddressSpace owns one page-table tree and every kernel-allocated
// (OWNED) leaf frame reachable from it. Several AddressSpaces share the
// same physical frame allocator.
type AddressSpace struct {
	mu    sync.Mutex
	alloc *mem.Allocator
	meta  pagetable.Meta
	root  mem.PPN
}

// New allocates a fresh, empty root page table.
func New(alloc *mem.Allocator) *AddressSpace {
	root, ok := alloc.Alloc()
	if !ok {
		panic("vm: out of memory allocating root page table")
	}
	return &AddressSpace{alloc: alloc, meta: pagetable.Sv39, root: root}
}

// RootPPN returns the physical page number of the root page table, the
// value installed (shifted and tagged) into satp.
func (as *AddressSpace) RootPPN() mem.PPN {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.root
}

// Map allocates zeroed physical pages for every VPN in [vpnStart, vpnEnd),
// walks/creates intermediate page tables as needed, installs leaf PTEs with
// flags|OWNED, and copies data starting at offsetInFirstPage of the first
// page. It panics if any target VPN is already valid (spec §4.2): this
// mirrors the teaching kernel, which never re-maps without first
// unmapping.
func (as *AddressSpace) Map(vpnStart, vpnEnd uint64, data []byte, offsetInFirstPage int, flags pagetable.Flags) {
	as.mu.Lock()
	defer as.mu.Unlock()

	off := offsetInFirstPage
	pageSize := 1 << uint(as.meta.PageBits)
	for vpn := vpnStart; vpn < vpnEnd; vpn++ {
		slot := pagetable.Walk(as.meta, as.alloc, as.root, vpn, true)
		if !slot.Valid() {
			panic("vm: out of memory creating page table")
		}
		if slot.Get().Valid() {
			panic(fmt.Sprintf("vm: map of already-valid vpn %#x", vpn))
		}
		ppn, ok := as.alloc.Alloc()
		if !ok {
			panic("vm: out of memory mapping page")
		}
		if len(data) > 0 {
			frame := as.alloc.Deref(ppn)
			n := off
			if n >= pageSize {
				n = 0
			}
			room := pageSize - n
			take := room
			if take > len(data) {
				take = len(data)
			}
			copy(frame[n:n+take], data[:take])
			data = data[take:]
			off = 0
		}
		slot.Set(as.meta.MakePTE(ppn, flags|pagetable.OWNED|pagetable.V))
	}
}

// MapExtern installs leaf PTEs pointing at caller-supplied physical pages
// without the OWNED bit — used for identity-mapping the kernel image, the
// heap, MMIO, and the shared portal page (spec §4.2).
func (as *AddressSpace) MapExtern(vpnStart, vpnEnd uint64, startingPPN mem.PPN, flags pagetable.Flags) {
	as.mu.Lock()
	defer as.mu.Unlock()

	for vpn := vpnStart; vpn < vpnEnd; vpn++ {
		slot := pagetable.Walk(as.meta, as.alloc, as.root, vpn, true)
		if !slot.Valid() {
			panic("vm: out of memory creating page table")
		}
		if slot.Get().Valid() {
			panic(fmt.Sprintf("vm: map_extern of already-valid vpn %#x", vpn))
		}
		ppn := startingPPN + mem.PPN(vpn-vpnStart)
		slot.Set(as.meta.MakePTE(ppn, flags|pagetable.V))
	}
}

// Unmap walks the range and, for each leaf PTE whose OWNED bit is set,
// frees the backing physical page; PTEs without OWNED only have their
// entry cleared. Intermediate tables left with no valid children are
// freed too (spec §4.2).
func (as *AddressSpace) Unmap(vpnStart, vpnEnd uint64) {
	as.mu.Lock()
	defer as.mu.Unlock()

	for vpn := vpnStart; vpn < vpnEnd; vpn++ {
		slot := pagetable.Walk(as.meta, as.alloc, as.root, vpn, false)
		if !slot.Valid() {
			continue
		}
		pte := slot.Get()
		if !pte.Valid() {
			continue
		}
		if pte.Owned() {
			as.alloc.Free(as.meta.PPN(pte))
		}
		slot.Set(0)
	}
	pruneEmptyTables(as.meta, as.alloc, as.root, as.meta.Levels-1, true)
}

// pruneEmptyTables frees non-leaf page-table pages left with no valid
// entries after an Unmap, recursing bottom-up. The root page table is
// never freed here (AddressSpace.Drop owns that).
func pruneEmptyTables(m pagetable.Meta, alloc *mem.Allocator, ppn mem.PPN, level int, isRoot bool) bool {
	if level == 0 {
		frame := alloc.Deref(ppn)
		for idx := 0; idx < 1<<uint(m.LevelBits); idx++ {
			if pagetable.PTE(frame.Uint64At(idx)).Valid() {
				return false
			}
		}
		return !isRoot
	}
	frame := alloc.Deref(ppn)
	anyValid := false
	for idx := 0; idx < 1<<uint(m.LevelBits); idx++ {
		pte := pagetable.PTE(frame.Uint64At(idx))
		if !pte.Valid() {
			continue
		}
		if !pte.IsLeaf() {
			childEmpty := pruneEmptyTables(m, alloc, m.PPN(pte), level-1, false)
			if childEmpty {
				alloc.Free(m.PPN(pte))
				frame.SetUint64At(idx, 0)
				continue
			}
		}
		anyValid = true
	}
	return !anyValid && !isRoot
}

// Drop frees the root page table and every OWNED leaf frame still
// reachable from it, used by exec to discard the old image and by spawn
// when loading the new image fails.
func (as *AddressSpace) Drop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	for _, e := range pagetable.WalkAll(as.meta, as.alloc, as.root) {
		if e.Slot.Get().Owned() {
			as.alloc.Free(as.meta.PPN(e.Slot.Get()))
		}
	}
	freeAllTables(as.meta, as.alloc, as.root, as.meta.Levels-1)
}

func freeAllTables(m pagetable.Meta, alloc *mem.Allocator, ppn mem.PPN, level int) {
	if level == 0 {
		alloc.Free(ppn)
		return
	}
	frame := alloc.Deref(ppn)
	for idx := 0; idx < 1<<uint(m.LevelBits); idx++ {
		pte := pagetable.PTE(frame.Uint64At(idx))
		if pte.Valid() && !pte.IsLeaf() {
			freeAllTables(m, alloc, m.PPN(pte), level-1)
		}
	}
	alloc.Free(ppn)
}

// SharePortal copies the top-level page-table entry covering portalVPN
// from kernelRoot's root page table into this address space's root,
// sharing the kernel's portal sub-tree instead of walking/creating a
// parallel one (spec §4.1: "each new address space copies exactly the
// top-level page-table entry for the portal VPN from the kernel's root").
func (as *AddressSpace) SharePortal(portalVPN uint64, kernelRoot *AddressSpace) {
	as.mu.Lock()
	defer as.mu.Unlock()

	idx := int(as.meta.VPNIndex(portalVPN, as.meta.Levels-1))
	kernelRoot.mu.Lock()
	srcFrame := kernelRoot.alloc.Deref(kernelRoot.root)
	raw := srcFrame.Uint64At(idx)
	kernelRoot.mu.Unlock()

	dstFrame := as.alloc.Deref(as.root)
	dstFrame.SetUint64At(idx, raw)
}

// CloneInto performs a deep copy into other: for each present leaf in as,
// allocate a fresh physical page in other, copy contents, and preserve
// flags (including OWNED); non-owned mappings are recreated as non-owned
// (spec §4.2, used by fork).
func (as *AddressSpace) CloneInto(other *AddressSpace) {
	as.mu.Lock()
	defer as.mu.Unlock()

	for _, e := range pagetable.WalkAll(as.meta, as.alloc, as.root) {
		pte := e.Slot.Get()
		if pte.Owned() {
			other.Map(e.VPN, e.VPN+1, as.alloc.Deref(as.meta.PPN(pte))[:], 0, pte.Flags()&^pagetable.OWNED)
		} else {
			other.MapExtern(e.VPN, e.VPN+1, as.meta.PPN(pte), pte.Flags())
		}
	}
}
