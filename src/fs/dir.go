package fs

import (
	"encoding/binary"

	"config"
	"kerr"
	"ustr"
)

// dirent is one fixed-size directory record: a name and the inode index it
// names (spec §4.6). The root directory is the sole directory in the file
// system (spec §1 Non-goals: no subdirectories).
type dirent struct {
	Name  ustr.Ustr
	Inode uint32
}

func encodeDirent(d dirent) [config.DirentSize]byte {
	var b [config.DirentSize]byte
	copy(b[:config.DirentNameMax], d.Name)
	binary.LittleEndian.PutUint32(b[config.DirentNameMax+1:config.DirentNameMax+5], d.Inode)
	return b
}

func decodeDirent(b []byte) (dirent, bool) {
	inode := binary.LittleEndian.Uint32(b[config.DirentNameMax+1 : config.DirentNameMax+5])
	if inode == 0 {
		return dirent{}, false
	}
	nameEnd := 0
	for nameEnd < config.DirentNameMax && b[nameEnd] != 0 {
		nameEnd++
	}
	name := make(ustr.Ustr, nameEnd)
	copy(name, b[:nameEnd])
	return dirent{Name: name, Inode: inode}, true
}

// direntsPerBlock is how many fixed records fit in one data block.
const direntsPerBlock = config.BlockSize / config.DirentSize

// Dir wraps the root directory's inode with name-indexed operations. The
// file system has exactly one directory (spec §4.6), so Dir has no parent
// pointer and no path walking.
type Dir struct {
	ino *Inode
}

// Lookup scans the directory for name, returning its inode index.
func (d *Dir) Lookup(name ustr.Ustr) (uint32, bool) {
	found := uint32(0)
	ok := false
	d.forEach(func(ent dirent) bool {
		if ent.Name.Eq(name) {
			found, ok = ent.Inode, true
			return false
		}
		return true
	})
	return found, ok
}

// Readdir returns every live entry in the directory, in on-disk order.
func (d *Dir) Readdir() []ustr.Ustr {
	var names []ustr.Ustr
	d.forEach(func(ent dirent) bool {
		names = append(names, ent.Name)
		return true
	})
	return names
}

// forEach walks every occupied slot in directory-record order, calling fn
// until it returns false or the entries run out.
func (d *Dir) forEach(fn func(dirent) bool) {
	size := d.ino.Size()
	nslots := size / config.DirentSize
	var rec [config.DirentSize]byte
	for i := uint32(0); i < nslots; i++ {
		d.ino.ReadAt(i*config.DirentSize, rec[:])
		ent, ok := decodeDirent(rec[:])
		if !ok {
			continue
		}
		if !fn(ent) {
			return
		}
	}
}

// Link adds a (name, inode) record, reusing the first empty slot if one
// exists, growing the directory's inode otherwise. It fails with EGENERIC
// if name already exists (spec §4.6 invariant: unique names within a
// directory) or if growth runs out of space.
func (d *Dir) Link(name ustr.Ustr, inode uint32) kerr.Errno {
	if _, exists := d.Lookup(name); exists {
		return kerr.EGENERIC
	}
	size := d.ino.Size()
	nslots := size / config.DirentSize
	var rec [config.DirentSize]byte
	for i := uint32(0); i < nslots; i++ {
		d.ino.ReadAt(i*config.DirentSize, rec[:])
		if _, ok := decodeDirent(rec[:]); !ok {
			enc := encodeDirent(dirent{Name: name, Inode: inode})
			d.ino.WriteAt(i*config.DirentSize, enc[:])
			return kerr.OK
		}
	}
	enc := encodeDirent(dirent{Name: name, Inode: inode})
	if _, ok := d.ino.WriteAt(size, enc[:]); !ok {
		return kerr.EGENERIC
	}
	return kerr.OK
}

// Unlink clears the record naming name. The caller is responsible for the
// inode link-count decrement and any resulting free (spec §4.6).
func (d *Dir) Unlink(name ustr.Ustr) kerr.Errno {
	size := d.ino.Size()
	nslots := size / config.DirentSize
	var rec [config.DirentSize]byte
	var zero [config.DirentSize]byte
	for i := uint32(0); i < nslots; i++ {
		d.ino.ReadAt(i*config.DirentSize, rec[:])
		ent, ok := decodeDirent(rec[:])
		if !ok || !ent.Name.Eq(name) {
			continue
		}
		d.ino.WriteAt(i*config.DirentSize, zero[:])
		return kerr.OK
	}
	return kerr.EGENERIC
}
