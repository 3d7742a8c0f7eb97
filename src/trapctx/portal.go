package trapctx

import (
	"config"
	"mem"
	"pagetable"
	"vm"
)

// Portal is the single physical page mapped at the fixed virtual page
// config.PortalVPN (the highest VPN) identically into the kernel space and
// every user space, holding the trampoline that performs the satp swap,
// register save/restore, and sret (spec §4.1). Because the instruction
// stream at that VPN is identical across spaces, switching satp mid-
// execution is safe as long as every instruction between the satp write
// and the next legal fetch lives on this page.
type Portal struct {
	PPN mem.PPN
}

// NewPortal allocates the portal's backing frame and maps it into the
// kernel address space with execute permission, returning a handle other
// address spaces can share via AddressSpace.SharePortal.
func NewPortal(alloc *mem.Allocator, kernelSpace *vm.AddressSpace) *Portal {
	ppn, ok := alloc.Alloc()
	if !ok {
		panic("trapctx: out of memory allocating portal page")
	}
	kernelSpace.MapExtern(config.PortalVPN, config.PortalVPN+1, ppn, pagetable.X|pagetable.R)
	return &Portal{PPN: ppn}
}

// Install shares the portal's top-level page-table entry into a newly
// created address space, the one piece of per-process setup the portal
// mechanism requires (spec §4.1, §9).
func (p *Portal) Install(as *vm.AddressSpace, kernelSpace *vm.AddressSpace) {
	as.SharePortal(config.PortalVPN, kernelSpace)
}
