// Package fs implements the block-backed file system (spec §4.6): super
// block, inode/data bitmaps, inode table, directory, pipes, and file
// handles, all sitting on a blockdev.Cache.
package fs

import (
	"encoding/binary"

	"config"
)

// Magic identifies a formatted disk image.
const Magic uint32 = 0x3b800001

// SuperBlock is block 0 of the disk image (spec §6).
type SuperBlock struct {
	Magic            uint32
	TotalBlocks      uint32
	InodeBitmapBlocks uint32
	InodeAreaBlocks   uint32
	DataBitmapBlocks  uint32
	DataAreaBlocks    uint32
}

// Block offsets, in order: super block (1 block), inode bitmap, inode
// area, data bitmap, data area (spec §6: "The remainder is those four
// regions in that order").
func (s SuperBlock) inodeBitmapStart() uint64 { return 1 }
func (s SuperBlock) inodeAreaStart() uint64 {
	return s.inodeBitmapStart() + uint64(s.InodeBitmapBlocks)
}
func (s SuperBlock) dataBitmapStart() uint64 {
	return s.inodeAreaStart() + uint64(s.InodeAreaBlocks)
}
func (s SuperBlock) dataAreaStart() uint64 {
	return s.dataBitmapStart() + uint64(s.DataBitmapBlocks)
}

func (s SuperBlock) encode() [config.BlockSize]byte {
	var b [config.BlockSize]byte
	binary.LittleEndian.PutUint32(b[0:4], s.Magic)
	binary.LittleEndian.PutUint32(b[4:8], s.TotalBlocks)
	binary.LittleEndian.PutUint32(b[8:12], s.InodeBitmapBlocks)
	binary.LittleEndian.PutUint32(b[12:16], s.InodeAreaBlocks)
	binary.LittleEndian.PutUint32(b[16:20], s.DataBitmapBlocks)
	binary.LittleEndian.PutUint32(b[20:24], s.DataAreaBlocks)
	return b
}

func decodeSuper(b []byte) (SuperBlock, bool) {
	var s SuperBlock
	s.Magic = binary.LittleEndian.Uint32(b[0:4])
	if s.Magic != Magic {
		return SuperBlock{}, false
	}
	s.TotalBlocks = binary.LittleEndian.Uint32(b[4:8])
	s.InodeBitmapBlocks = binary.LittleEndian.Uint32(b[8:12])
	s.InodeAreaBlocks = binary.LittleEndian.Uint32(b[12:16])
	s.DataBitmapBlocks = binary.LittleEndian.Uint32(b[16:20])
	s.DataAreaBlocks = binary.LittleEndian.Uint32(b[20:24])
	return s, true
}

// layout picks a super block given a target total block count, sizing the
// inode area as one inode per 4 blocks of backing store, biscuit-mkfs
// style approximation, rounded so every region is a whole number of
// blocks.
func layout(totalBlocks uint32) SuperBlock {
	inodeCount := totalBlocks / 4
	if inodeCount < 16 {
		inodeCount = 16
	}
	inodeAreaBlocks := (inodeCount*InodeSize + config.BlockSize - 1) / config.BlockSize
	inodeBitmapBlocks := (inodeCount + bitsPerBlock - 1) / bitsPerBlock
	used := 1 + inodeBitmapBlocks + inodeAreaBlocks
	remaining := totalBlocks - uint32(used)
	// data bitmap sized to cover `remaining` blocks if every remaining
	// block were data; solve blocks_data + blocks_data_bitmap == remaining.
	dataBitmapBlocks := (remaining + bitsPerBlock) / (bitsPerBlock + 1)
	if dataBitmapBlocks == 0 {
		dataBitmapBlocks = 1
	}
	dataAreaBlocks := remaining - dataBitmapBlocks
	return SuperBlock{
		Magic:             Magic,
		TotalBlocks:       totalBlocks,
		InodeBitmapBlocks: inodeBitmapBlocks,
		InodeAreaBlocks:   uint32(inodeAreaBlocks),
		DataBitmapBlocks:  dataBitmapBlocks,
		DataAreaBlocks:    dataAreaBlocks,
	}
}
