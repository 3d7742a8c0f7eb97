package fs

import (
	"encoding/binary"

	"config"
)

// InodeType tags whether an inode is a regular file or a directory.
type InodeType uint8

const (
	TypeFile InodeType = iota
	TypeDirectory
)

// InodeSize is the fixed on-disk record size of one inode: 4 (size) + 1
// (type) + 1 (padding) + 2 (link count) + 28*4 (direct) + 4 (indirect) +
// 4 (double indirect) = 128 bytes, four inodes per 512-byte block.
const InodeSize = 128

const ptrsPerBlock = config.BlockSize / 4 // 128 uint32 pointers per index block

// diskInode is the on-disk inode record (spec §3).
type diskInode struct {
	Size           uint32
	Typ            InodeType
	Direct         [config.InodeDirect]uint32
	Indirect       uint32
	DoubleIndirect uint32
	LinkCount      uint32
}

func (d diskInode) encode() [InodeSize]byte {
	var b [InodeSize]byte
	binary.LittleEndian.PutUint32(b[0:4], d.Size)
	b[4] = byte(d.Typ)
	binary.LittleEndian.PutUint16(b[6:8], uint16(d.LinkCount))
	off := 8
	for _, p := range d.Direct {
		binary.LittleEndian.PutUint32(b[off:off+4], p)
		off += 4
	}
	binary.LittleEndian.PutUint32(b[off:off+4], d.Indirect)
	off += 4
	binary.LittleEndian.PutUint32(b[off:off+4], d.DoubleIndirect)
	return b
}

func decodeInode(b []byte) diskInode {
	var d diskInode
	d.Size = binary.LittleEndian.Uint32(b[0:4])
	d.Typ = InodeType(b[4])
	d.LinkCount = uint32(binary.LittleEndian.Uint16(b[6:8]))
	off := 8
	for i := range d.Direct {
		d.Direct[i] = binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
	}
	d.Indirect = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	d.DoubleIndirect = binary.LittleEndian.Uint32(b[off : off+4])
	return d
}

// Inode is a reference to one on-disk inode, bound to the FS that owns its
// bitmaps and cache.
type Inode struct {
	fs    *FS
	Index uint32
}

func (fs *FS) inodeBlockAndOffset(index uint32) (blockID uint64, offInBlock int) {
	perBlock := uint32(config.BlockSize / InodeSize)
	blockID = fs.super.inodeAreaStart() + uint64(index/perBlock)
	offInBlock = int(index%perBlock) * InodeSize
	return
}

func (fs *FS) readDiskInode(index uint32) diskInode {
	blockID, off := fs.inodeBlockAndOffset(index)
	var blk [config.BlockSize]byte
	fs.cache.Read(blockID, blk[:])
	return decodeInode(blk[off : off+InodeSize])
}

func (fs *FS) writeDiskInode(index uint32, d diskInode) {
	blockID, off := fs.inodeBlockAndOffset(index)
	var blk [config.BlockSize]byte
	fs.cache.Read(blockID, blk[:])
	enc := d.encode()
	copy(blk[off:off+InodeSize], enc[:])
	fs.cache.Write(blockID, blk[:])
}

// Type returns the inode's type tag.
func (ino *Inode) Type() InodeType {
	return ino.fs.readDiskInode(ino.Index).Typ
}

// Size returns the inode's current byte size.
func (ino *Inode) Size() uint32 {
	return ino.fs.readDiskInode(ino.Index).Size
}

// LinkCount returns the inode's current link count (spec §3 invariant 4).
func (ino *Inode) LinkCount() uint32 {
	return ino.fs.readDiskInode(ino.Index).LinkCount
}

func (ino *Inode) adjustLinkCount(delta int32) uint32 {
	d := ino.fs.readDiskInode(ino.Index)
	d.LinkCount = uint32(int32(d.LinkCount) + delta)
	ino.fs.writeDiskInode(ino.Index, d)
	return d.LinkCount
}

// blockIDFor returns the absolute device block id holding file-block
// number blockNo, allocating any missing index/data blocks along the way
// when alloc is true. ok is false if an allocation is needed but the data
// bitmap is exhausted (spec §4.6: "out-of-space ... returns -1").
func (ino *Inode) blockIDFor(d *diskInode, blockNo uint32, alloc bool) (uint64, bool) {
	if blockNo < config.InodeDirect {
		if d.Direct[blockNo] == 0 && alloc {
			nb, ok := ino.fs.dataBitmap.alloc(ino.fs.cache)
			if !ok {
				return 0, false
			}
			d.Direct[blockNo] = uint32(nb)
		}
		if d.Direct[blockNo] == 0 {
			return 0, false
		}
		return ino.fs.super.dataAreaStart() + uint64(d.Direct[blockNo]), true
	}
	blockNo -= config.InodeDirect
	if blockNo < ptrsPerBlock {
		indirectID, ok := ino.ensureIndexBlock(&d.Indirect, alloc)
		if !ok {
			return 0, false
		}
		return ino.ptrSlot(indirectID, int(blockNo), alloc)
	}
	blockNo -= ptrsPerBlock
	outer := blockNo / ptrsPerBlock
	inner := blockNo % ptrsPerBlock
	doubleID, ok := ino.ensureIndexBlock(&d.DoubleIndirect, alloc)
	if !ok {
		return 0, false
	}
	innerID, ok := ino.ensurePtrSlotBlock(doubleID, int(outer), alloc)
	if !ok {
		return 0, false
	}
	return ino.ptrSlot(innerID, int(inner), alloc)
}

// ensureIndexBlock allocates the index block referenced by *ptr if it is
// zero and alloc is requested, returning the absolute device block id.
func (ino *Inode) ensureIndexBlock(ptr *uint32, alloc bool) (uint64, bool) {
	if *ptr == 0 {
		if !alloc {
			return 0, false
		}
		nb, ok := ino.fs.dataBitmap.alloc(ino.fs.cache)
		if !ok {
			return 0, false
		}
		*ptr = uint32(nb)
		var zero [config.BlockSize]byte
		ino.fs.cache.Write(ino.fs.super.dataAreaStart()+uint64(nb), zero[:])
	}
	return ino.fs.super.dataAreaStart() + uint64(*ptr), true
}

// ensurePtrSlotBlock reads slot idx out of the index block at blockID,
// allocating a fresh index block for it if empty.
func (ino *Inode) ensurePtrSlotBlock(blockID uint64, idx int, alloc bool) (uint64, bool) {
	var blk [config.BlockSize]byte
	ino.fs.cache.Read(blockID, blk[:])
	off := idx * 4
	v := binary.LittleEndian.Uint32(blk[off : off+4])
	if v == 0 {
		if !alloc {
			return 0, false
		}
		nb, ok := ino.fs.dataBitmap.alloc(ino.fs.cache)
		if !ok {
			return 0, false
		}
		binary.LittleEndian.PutUint32(blk[off:off+4], uint32(nb))
		ino.fs.cache.Write(blockID, blk[:])
		var zero [config.BlockSize]byte
		ino.fs.cache.Write(ino.fs.super.dataAreaStart()+uint64(nb), zero[:])
		v = uint32(nb)
	}
	return ino.fs.super.dataAreaStart() + uint64(v), true
}

// ptrSlot reads (or allocates) the data-block pointer at index idx within
// the index block at blockID.
func (ino *Inode) ptrSlot(blockID uint64, idx int, alloc bool) (uint64, bool) {
	var blk [config.BlockSize]byte
	ino.fs.cache.Read(blockID, blk[:])
	off := idx * 4
	v := binary.LittleEndian.Uint32(blk[off : off+4])
	if v == 0 {
		if !alloc {
			return 0, false
		}
		nb, ok := ino.fs.dataBitmap.alloc(ino.fs.cache)
		if !ok {
			return 0, false
		}
		binary.LittleEndian.PutUint32(blk[off:off+4], uint32(nb))
		ino.fs.cache.Write(blockID, blk[:])
		v = uint32(nb)
	}
	return ino.fs.super.dataAreaStart() + uint64(v), true
}

// ReadAt reads len(buf) bytes starting at byte offset off, through direct,
// indirect, and double-indirect pointers (spec §4.6). It returns the
// number of bytes actually read, which may be less than len(buf) if off+
// len(buf) exceeds the current size.
func (ino *Inode) ReadAt(off uint32, buf []byte) int {
	ino.fs.mu.Lock()
	defer ino.fs.mu.Unlock()
	d := ino.fs.readDiskInode(ino.Index)
	if off >= d.Size {
		return 0
	}
	end := off + uint32(len(buf))
	if end > d.Size {
		end = d.Size
	}
	n := 0
	for cur := off; cur < end; {
		blockNo := cur / config.BlockSize
		within := cur % config.BlockSize
		blockID, ok := ino.blockIDFor(&d, blockNo, false)
		take := config.BlockSize - within
		if cur+take > end {
			take = end - cur
		}
		if ok {
			var blk [config.BlockSize]byte
			ino.fs.cache.Read(blockID, blk[:])
			copy(buf[n:n+int(take)], blk[within:within+take])
		}
		n += int(take)
		cur += take
	}
	return n
}

// WriteAt writes buf at byte offset off. Writing past the current size
// grows the inode first via increaseSize, allocating any required data
// blocks (spec §4.6). It returns ok=false if growth ran out of free data
// blocks.
func (ino *Inode) WriteAt(off uint32, buf []byte) (int, bool) {
	ino.fs.mu.Lock()
	defer ino.fs.mu.Unlock()
	d := ino.fs.readDiskInode(ino.Index)
	needed := off + uint32(len(buf))
	if needed > d.Size {
		if !ino.increaseSizeLocked(&d, needed) {
			return 0, false
		}
	}
	n := 0
	for cur := off; cur < off+uint32(len(buf)); {
		blockNo := cur / config.BlockSize
		within := cur % config.BlockSize
		blockID, ok := ino.blockIDFor(&d, blockNo, true)
		if !ok {
			ino.fs.writeDiskInode(ino.Index, d)
			return n, false
		}
		take := config.BlockSize - within
		remaining := uint32(len(buf)) - uint32(n)
		if take > remaining {
			take = remaining
		}
		var blk [config.BlockSize]byte
		ino.fs.cache.Read(blockID, blk[:])
		copy(blk[within:within+take], buf[n:n+int(take)])
		ino.fs.cache.Write(blockID, blk[:])
		n += int(take)
		cur += take
	}
	ino.fs.writeDiskInode(ino.Index, d)
	return n, true
}

// increaseSizeLocked grows d's size field to newSize, allocating the data
// blocks newly covered by the larger size. Caller holds fs.mu.
func (ino *Inode) increaseSizeLocked(d *diskInode, newSize uint32) bool {
	oldBlocks := (d.Size + config.BlockSize - 1) / config.BlockSize
	newBlocks := (newSize + config.BlockSize - 1) / config.BlockSize
	for b := oldBlocks; b < newBlocks; b++ {
		if _, ok := ino.blockIDFor(d, b, true); !ok {
			return false
		}
	}
	d.Size = newSize
	return true
}

// ClearSize releases all of the inode's data blocks and resets its size to
// zero (spec §4.6, used by unlink and by O_TRUNC).
func (ino *Inode) ClearSize() {
	ino.fs.mu.Lock()
	defer ino.fs.mu.Unlock()
	d := ino.fs.readDiskInode(ino.Index)
	nblocks := (d.Size + config.BlockSize - 1) / config.BlockSize
	for b := uint32(0); b < nblocks; b++ {
		if id, ok := ino.blockIDFor(&d, b, false); ok {
			ino.fs.dataBitmap.dealloc(ino.fs.cache, int(id-ino.fs.super.dataAreaStart()))
		}
	}
	for i := range d.Direct {
		d.Direct[i] = 0
	}
	d.Indirect = 0
	d.DoubleIndirect = 0
	d.Size = 0
	ino.fs.writeDiskInode(ino.Index, d)
}
