package syscall

import (
	"encoding/binary"

	"kerr"
	"proc"
	"ustr"
)

// sysExit implements exit(code) (spec §6 Process group). The dispatcher
// still writes a0/advances sepc afterward, which is harmless: nothing ever
// resumes an Exited thread's context again.
func (h *Handlers) sysExit(tid proc.ThreadId, code int64) int64 {
	h.M.Exit(tid, code)
	return 0
}

// sysFork implements fork() (spec §4.3): returns the child's pid to the
// parent; the child's own a0 was already set to 0 when its thread was
// created.
func (h *Handlers) sysFork(tid proc.ThreadId) int64 {
	child, errno := h.M.Fork(tid)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(child)
}

// sysExec implements exec(path) by reading the ELF image straight out of
// the root directory under that name and loading it in place of the
// calling process's program (spec §6; the kernel has no argv/envp, only a
// bare path).
func (h *Handlers) sysExec(tid proc.ThreadId, pathPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	image, errno := h.readWholeFile(p, pathPtr)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(h.M.Exec(tid, image))
}

// sysSpawn implements spawn(path): fork+exec without cloning the parent's
// address space (spec §4.3).
func (h *Handlers) sysSpawn(tid proc.ThreadId, pathPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	image, errno := h.readWholeFile(p, pathPtr)
	if errno != kerr.OK {
		return int64(errno)
	}
	child, spawnErrno := h.M.Spawn(tid, image)
	if spawnErrno != kerr.OK {
		return int64(spawnErrno)
	}
	return int64(child)
}

// readWholeFile resolves pathPtr in the root directory and reads its
// entire contents, the small amount of file-system plumbing exec/spawn
// need; it reads user memory and the FS on the handler side, so package
// proc does not resolve paths itself.
func (h *Handlers) readWholeFile(p *proc.Process, pathPtr uint64) ([]byte, kerr.Errno) {
	pathStr, ok := p.AS.ReadString(pathPtr, pathMax)
	if !ok {
		return nil, kerr.EGENERIC
	}
	ino, errno := h.FS.Open(ustr.New(pathStr), 0)
	if errno != kerr.OK {
		return nil, errno
	}
	size := ino.Size()
	buf := make([]byte, size)
	ino.ReadAt(0, buf)
	return buf, kerr.OK
}

// sysWait implements wait(pid)/waitpid(pid, *status) (spec §4.3): on
// success the exit code is written to statusPtr (if non-zero) and the
// child's pid is returned; not-found/not-yet-exited returns the -1
// sentinel documented in spec §9.
func (h *Handlers) sysWait(tid proc.ThreadId, pid int64, statusPtr uint64) int64 {
	resultPid, code, found := h.M.Wait(tid, pid)
	if !found {
		return -1
	}
	if statusPtr != 0 {
		if p, ok := h.process(tid); ok {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(code))
			p.AS.WriteBytes(statusPtr, buf[:])
		}
	}
	return resultPid
}

// sysGetpid implements getpid().
func (h *Handlers) sysGetpid(tid proc.ThreadId) int64 {
	t, ok := h.M.Thread(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(t.Proc)
}

// sysSbrk implements sbrk(delta), returning the old program break.
func (h *Handlers) sysSbrk(tid proc.ThreadId, delta int64) int64 {
	old, errno := h.M.Sbrk(tid, delta)
	if errno != kerr.OK {
		return int64(errno)
	}
	return old
}
