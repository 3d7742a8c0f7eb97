package syscall

import (
	"config"
	"kerr"
	"pagetable"
	"proc"
)

// Memory-protection bits mmap's prot argument is built from (spec §6).
const (
	ProtRead  = 1 << 0
	ProtWrite = 1 << 1
	ProtExec  = 1 << 2
)

// sysMmap implements mmap(addr, length, prot) (spec §6 Memory group):
// anonymous, fixed-address, page-aligned mappings only — no file-backed
// mappings, no address hinting. It fails if addr isn't page-aligned or if
// any page in the range is already mapped (spec: "fail if already-mapped
// or the requested range straddles an existing mapping").
func (h *Handlers) sysMmap(tid proc.ThreadId, addr, length uint64, prot int) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	if length == 0 || addr%config.PageSize != 0 {
		return int64(kerr.EGENERIC)
	}
	meta := pagetable.Sv39
	vpnStart := meta.Floor(addr)
	vpnEnd := meta.Ceil(addr + length)
	for vpn := vpnStart; vpn < vpnEnd; vpn++ {
		if _, _, valid := p.AS.Translate(vpn<<uint(config.PageBits), pagetable.V); valid {
			return int64(kerr.EGENERIC)
		}
	}

	var flags pagetable.Flags = pagetable.U
	if prot&ProtRead != 0 {
		flags |= pagetable.R
	}
	if prot&ProtWrite != 0 {
		flags |= pagetable.W
	}
	if prot&ProtExec != 0 {
		flags |= pagetable.X
	}
	p.AS.Map(vpnStart, vpnEnd, nil, 0, flags)
	return int64(addr)
}

// sysMunmap implements munmap(addr, length): every page in the range must
// already be mapped, or the whole call fails without unmapping anything
// (spec §6: "fail ... if the requested range straddles an existing
// mapping" — the symmetric failure mode on the tear-down side).
func (h *Handlers) sysMunmap(tid proc.ThreadId, addr, length uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	if length == 0 || addr%config.PageSize != 0 {
		return int64(kerr.EGENERIC)
	}
	meta := pagetable.Sv39
	vpnStart := meta.Floor(addr)
	vpnEnd := meta.Ceil(addr + length)
	for vpn := vpnStart; vpn < vpnEnd; vpn++ {
		if _, _, valid := p.AS.Translate(vpn<<uint(config.PageBits), pagetable.V); !valid {
			return int64(kerr.EGENERIC)
		}
	}
	p.AS.Unmap(vpnStart, vpnEnd)
	return int64(kerr.OK)
}
