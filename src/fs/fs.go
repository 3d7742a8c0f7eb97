package fs

import (
	"sync"

	"blockdev"
	"config"
	"kerr"
	"ustr"
)

// rootInodeIndex is the fixed inode index of the root directory, allocated
// by Format before any other inode (spec §4.6).
const rootInodeIndex = 0

// FS is a mounted file system: the super block, the two bitmap allocators,
// the block cache sitting under all of it, and the root directory (spec
// §4.6 — "single-level directory, no subdirectories").
type FS struct {
	mu         sync.Mutex
	cache      *blockdev.Cache
	super      SuperBlock
	inodeBitmap bitmap
	dataBitmap  bitmap
}

// Format lays out a fresh file system across dev's blocks, writes the
// super block, zeroes both bitmaps, and creates the root directory inode.
// It returns the mounted FS ready for use (grounded on biscuit's
// mkfs.go — spec §4.6).
func Format(dev blockdev.Device) *FS {
	total := uint32(dev.NumBlocks())
	super := layout(total)
	cache := blockdev.NewCache(dev, config.BlockCacheSize)

	fs := &FS{
		cache: cache,
		super: super,
		inodeBitmap: bitmap{
			blockStart: super.inodeBitmapStart(),
			nblocks:    super.InodeBitmapBlocks,
		},
		dataBitmap: bitmap{
			blockStart: super.dataBitmapStart(),
			nblocks:    super.DataBitmapBlocks,
		},
	}

	var zero [config.BlockSize]byte
	for b := super.inodeBitmapStart(); b < super.dataAreaStart(); b++ {
		cache.Write(b, zero[:])
	}
	encSuper := super.encode()
	cache.Write(0, encSuper[:])

	rootIdx, ok := fs.inodeBitmap.alloc(fs.cache)
	if !ok || uint32(rootIdx) != rootInodeIndex {
		panic("fs: root inode must be index 0 on a freshly formatted image")
	}
	fs.writeDiskInode(rootInodeIndex, diskInode{Typ: TypeDirectory, LinkCount: 1})

	// Pointer value 0 in an inode or index block means "no block", so data
	// index 0 is reserved here and never handed out to a file.
	if dataIdx, ok := fs.dataBitmap.alloc(fs.cache); !ok || dataIdx != 0 {
		panic("fs: data index 0 must be free on a freshly formatted image")
	}

	cache.SyncAll()
	return fs
}

// Mount reads an existing super block off dev and returns the FS wrapping
// it, or ok=false if the magic doesn't match (spec §4.6).
func Mount(dev blockdev.Device) (*FS, bool) {
	cache := blockdev.NewCache(dev, config.BlockCacheSize)
	var blk [config.BlockSize]byte
	cache.Read(0, blk[:])
	super, ok := decodeSuper(blk[:])
	if !ok {
		return nil, false
	}
	return &FS{
		cache: cache,
		super: super,
		inodeBitmap: bitmap{
			blockStart: super.inodeBitmapStart(),
			nblocks:    super.InodeBitmapBlocks,
		},
		dataBitmap: bitmap{
			blockStart: super.dataBitmapStart(),
			nblocks:    super.DataBitmapBlocks,
		},
	}, true
}

// Sync flushes every dirty cached block to the underlying device.
func (fs *FS) Sync() { fs.cache.SyncAll() }

// Root returns the root directory.
func (fs *FS) Root() *Dir {
	return &Dir{ino: &Inode{fs: fs, Index: rootInodeIndex}}
}

// inodeAt wraps an existing inode index as an *Inode bound to fs.
func (fs *FS) inodeAt(index uint32) *Inode {
	return &Inode{fs: fs, Index: index}
}

// CreateFile allocates a fresh inode of type TypeFile and links it into
// the root directory under name. It fails with EGENERIC if name already
// exists or inodes/data are exhausted (spec §6 IO group: open with
// O_CREAT).
func (fs *FS) CreateFile(name ustr.Ustr) (*Inode, kerr.Errno) {
	if !name.Valid() {
		return nil, kerr.EGENERIC
	}
	fs.mu.Lock()
	idx, ok := fs.inodeBitmap.alloc(fs.cache)
	fs.mu.Unlock()
	if !ok {
		return nil, kerr.EGENERIC
	}
	fs.writeDiskInode(uint32(idx), diskInode{Typ: TypeFile, LinkCount: 1})
	ino := fs.inodeAt(uint32(idx))
	if errno := fs.Root().Link(name, uint32(idx)); errno != kerr.OK {
		fs.freeInode(uint32(idx))
		return nil, errno
	}
	return ino, kerr.OK
}

// Open resolves name in the root directory, returning its inode. The
// create/trunc flags match open(2) semantics (spec §6): O_CREAT makes a
// fresh zero-length file if name is absent, O_TRUNC clears an existing
// file's contents.
func (fs *FS) Open(name ustr.Ustr, flags int) (*Inode, kerr.Errno) {
	if idx, ok := fs.Root().Lookup(name); ok {
		ino := fs.inodeAt(idx)
		if flags&OTrunc != 0 {
			ino.ClearSize()
		}
		return ino, kerr.OK
	}
	if flags&OCreat == 0 {
		return nil, kerr.EGENERIC
	}
	return fs.CreateFile(name)
}

// Unlink removes name from the root directory, decrementing the target
// inode's link count and freeing it once that count reaches zero (spec §3
// invariant: "An inode is freed when its link count reaches zero").
func (fs *FS) Unlink(name ustr.Ustr) kerr.Errno {
	idx, ok := fs.Root().Lookup(name)
	if !ok {
		return kerr.EGENERIC
	}
	if errno := fs.Root().Unlink(name); errno != kerr.OK {
		return errno
	}
	ino := fs.inodeAt(idx)
	if ino.adjustLinkCount(-1) == 0 {
		ino.ClearSize()
		fs.freeInode(idx)
	}
	return kerr.OK
}

// Link adds a second name for an existing inode (spec §6: link()),
// incrementing its link count.
func (fs *FS) Link(existing, newName ustr.Ustr) kerr.Errno {
	idx, ok := fs.Root().Lookup(existing)
	if !ok {
		return kerr.EGENERIC
	}
	if errno := fs.Root().Link(newName, idx); errno != kerr.OK {
		return errno
	}
	fs.inodeAt(idx).adjustLinkCount(1)
	return kerr.OK
}

func (fs *FS) freeInode(index uint32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.inodeBitmap.dealloc(fs.cache, int(index))
}

// OpenFile wraps an inode as a fd-table-ready *File with the read/write
// permission bits open() was called with.
func OpenFile(ino *Inode, flags int) *File {
	return &File{
		ino:      ino,
		readable: flags&OWronly == 0,
		writable: flags&OWronly != 0 || flags&ORdwr != 0,
	}
}
