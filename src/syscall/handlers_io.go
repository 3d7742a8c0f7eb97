package syscall

import (
	"encoding/binary"

	"fs"
	"kerr"
	"proc"
	"ustr"
)

// pathMax bounds how far ReadString will walk looking for the NUL
// terminator of a user-supplied path (spec §3: names are at most
// ustr.NameMax bytes, so anything longer is simply not a valid name).
const pathMax = ustr.NameMax + 1

func (h *Handlers) process(tid proc.ThreadId) (*proc.Process, bool) {
	t, ok := h.M.Thread(tid)
	if !ok {
		return nil, false
	}
	return h.M.Process(t.Proc)
}

// sysRead implements read(fd, buf, count) (spec §6 IO group): it copies at
// most count bytes from the fd's handle into the user buffer at buf.
func (h *Handlers) sysRead(tid proc.ThreadId, fd int, bufPtr, count uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	handle, ok := p.Fds.Get(fd)
	if !ok || !handle.Readable() {
		return int64(kerr.EGENERIC)
	}
	tmp := make([]byte, count)
	n, ok := handle.Read(tmp)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	if !p.AS.WriteBytes(bufPtr, tmp[:n]) {
		return int64(kerr.EGENERIC)
	}
	return int64(n)
}

// sysWrite implements write(fd, buf, count).
func (h *Handlers) sysWrite(tid proc.ThreadId, fd int, bufPtr, count uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	handle, ok := p.Fds.Get(fd)
	if !ok || !handle.Writable() {
		return int64(kerr.EGENERIC)
	}
	data, ok := p.AS.ReadBytes(bufPtr, int(count))
	if !ok {
		return int64(kerr.EGENERIC)
	}
	n, ok := handle.Write(data)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(n)
}

// sysOpen implements open(path, flags) (spec §6: O_CREAT/O_TRUNC honored
// by fs.Open).
func (h *Handlers) sysOpen(tid proc.ThreadId, pathPtr uint64, flags int) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	pathStr, ok := p.AS.ReadString(pathPtr, pathMax)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	name := ustr.New(pathStr)
	ino, errno := h.FS.Open(name, flags)
	if errno != kerr.OK {
		return int64(errno)
	}
	file := fs.OpenFile(ino, flags)
	return int64(p.Fds.Install(file))
}

// sysClose implements close(fd).
func (h *Handlers) sysClose(tid proc.ThreadId, fd int) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	if !p.Fds.Close(fd) {
		return int64(kerr.EGENERIC)
	}
	return int64(kerr.OK)
}

// sysPipe implements pipe(fds_ptr): writes the reader fd at fds_ptr and
// the writer fd at fds_ptr+4 (spec §6).
func (h *Handlers) sysPipe(tid proc.ThreadId, fdsPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	reader, writer := fs.NewPipePair()
	rfd := p.Fds.Install(reader)
	wfd := p.Fds.Install(writer)

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(rfd))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wfd))
	if !p.AS.WriteBytes(fdsPtr, buf[:]) {
		return int64(kerr.EGENERIC)
	}
	return int64(kerr.OK)
}

// sysDup implements dup(fd): a second fd holding a clone of fd's handle
// (same inode or pipe; a file clone keeps its own offset) (spec §6).
func (h *Handlers) sysDup(tid proc.ThreadId, fd int) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	newFd, ok := p.Fds.Dup(fd)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(newFd)
}

// sysFstat implements fstat(fd, stat_ptr): kerr.DevConsole/DevFile/DevPipe
// tag stat's first word so a user
// program can tell what kind of thing a fd is (spec §6 fstat()); size in
// the second word is only meaningful for a regular file.
func (h *Handlers) sysFstat(tid proc.ThreadId, fd int, statPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	handle, ok := p.Fds.Get(fd)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	var dev uint64
	var size uint64
	switch v := handle.(type) {
	case *fs.File:
		dev = kerr.DevFile
		size = uint64(v.Size())
	case *fs.PipeReader, *fs.PipeWriter:
		dev = kerr.DevPipe
	case *fs.Console:
		dev = kerr.DevConsole
	default:
		dev = kerr.DevConsole
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], dev)
	binary.LittleEndian.PutUint64(buf[8:16], size)
	if !p.AS.WriteBytes(statPtr, buf[:]) {
		return int64(kerr.EGENERIC)
	}
	return int64(kerr.OK)
}

// sysLinkat implements link(oldpath, newpath): a second directory entry
// for the same inode (spec §6).
func (h *Handlers) sysLinkat(tid proc.ThreadId, oldPtr, newPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	oldStr, ok := p.AS.ReadString(oldPtr, pathMax)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	newStr, ok := p.AS.ReadString(newPtr, pathMax)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(h.FS.Link(ustr.New(oldStr), ustr.New(newStr)))
}

// sysUnlinkat implements unlink(path).
func (h *Handlers) sysUnlinkat(tid proc.ThreadId, pathPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	pathStr, ok := p.AS.ReadString(pathPtr, pathMax)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(h.FS.Unlink(ustr.New(pathStr)))
}
