// Package elfload loads a 64-bit RISC-V ELF executable into a fresh
// address space (spec §6): each PT_LOAD segment is mapped with flags
// derived from its R/W/X bits, file bytes are copied in, and the tail of
// mem_size beyond file_size is left zeroed BSS. Grounded on the teacher's
// cmd/chentry use of debug/elf for ELF introspection, generalized here
// from header-patching to full segment loading per `original_source` ch8
// `Process::from_elf`.
package elfload

import (
	"bytes"
	"debug/elf"

	"config"
	"pagetable"
	"vm"
)

// Loaded describes where a freshly loaded program ended up.
type Loaded struct {
	Entry      uint64
	HeapBottom uint64
	StackTop   uint64
}

// segFlags derives Sv39 leaf flags from an ELF program header's R/W/X bits,
// always adding U (user-accessible) since every loaded segment belongs to
// a user address space.
func segFlags(f elf.ProgFlag) pagetable.Flags {
	flags := pagetable.U
	if f&elf.PF_R != 0 {
		flags |= pagetable.R
	}
	if f&elf.PF_W != 0 {
		flags |= pagetable.W
	}
	if f&elf.PF_X != 0 {
		flags |= pagetable.X
	}
	return flags
}

// Load parses image as an ELF64 RISC-V executable, maps every PT_LOAD
// segment into as, maps a fixed user stack below the portal page, and
// returns the entry point, initial heap_bottom/program_brk, and the
// initial stack pointer (spec §6: "initial sp points one page past the
// top" of the 2-page stack).
func Load(as *vm.AddressSpace, image []byte) (Loaded, bool) {
	f, err := elf.NewFile(bytes.NewReader(image))
	if err != nil {
		return Loaded{}, false
	}
	if f.Class != elf.ELFCLASS64 || f.Machine != elf.EM_RISCV {
		return Loaded{}, false
	}

	meta := pagetable.Sv39
	var maxEnd uint64
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return Loaded{}, false
		}
		vpnStart := meta.Floor(prog.Vaddr)
		vpnEnd := meta.Ceil(prog.Vaddr + prog.Memsz)
		off := int(meta.PageOffset(prog.Vaddr))
		as.Map(vpnStart, vpnEnd, data, off, segFlags(prog.Flags))
		end := prog.Vaddr + prog.Memsz
		if end > maxEnd {
			maxEnd = end
		}
	}

	heapBottom := meta.Ceil(maxEnd) << uint(meta.PageBits)

	stackTopVPN := uint64(config.PortalVPN)
	stackBottomVPN := stackTopVPN - config.UserStackPages
	as.Map(stackBottomVPN, stackTopVPN, nil, 0, pagetable.U|pagetable.R|pagetable.W)
	stackTop := stackTopVPN << uint(meta.PageBits)

	return Loaded{
		Entry:      f.Entry,
		HeapBottom: heapBottom,
		StackTop:   stackTop,
	}, true
}
