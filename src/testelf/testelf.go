// Package testelf builds minimal well-formed ELF64 RISC-V executables for
// use as fixtures in other packages' tests, the same role cmd/chentry's
// debug/elf usage plays for a real binary, just assembled from nothing
// instead of patched.
package testelf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Build returns a one-segment ELF64 RISC-V executable: code is loaded
// R|W|X at vaddr, entry is the program's entry point (normally vaddr),
// and memSize extends the segment's p_memsz past len(code) to leave room
// for BSS (pass len(code) for no BSS).
func Build(vaddr, entry uint64, code []byte, memSize uint64) []byte {
	if memSize < uint64(len(code)) {
		memSize = uint64(len(code))
	}

	const ehSize = 64
	const phSize = 56
	dataOff := uint64(ehSize + phSize)

	eh := elf.Header64{
		Ident:     [16]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)},
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     ehSize,
		Shoff:     0,
		Flags:     0,
		Ehsize:    ehSize,
		Phentsize: phSize,
		Phnum:     1,
		Shentsize: 0,
		Shnum:     0,
		Shstrndx:  0,
	}
	ph := elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_W | elf.PF_X),
		Off:    dataOff,
		Vaddr:  vaddr,
		Paddr:  vaddr,
		Filesz: uint64(len(code)),
		Memsz:  memSize,
		Align:  0x1000,
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &eh)
	binary.Write(&buf, binary.LittleEndian, &ph)
	buf.Write(code)
	return buf.Bytes()
}
