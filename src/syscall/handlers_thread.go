package syscall

import (
	"kerr"
	"proc"
)

// sysThreadCreate implements thread_create(entry, arg) (spec §6 Thread
// group), returning the new thread's id.
func (h *Handlers) sysThreadCreate(tid proc.ThreadId, entry, arg uint64) int64 {
	child, errno := h.M.ThreadCreate(tid, entry, arg)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(child)
}

// sysGettid implements gettid().
func (h *Handlers) sysGettid(tid proc.ThreadId) int64 {
	return int64(h.M.Gettid(tid))
}

// sysWaittid implements waittid(tid): joins and reaps target once it has
// exited; not-yet-exited (or any rejected join) returns the -1 sentinel
// (spec §9).
func (h *Handlers) sysWaittid(tid proc.ThreadId, target uint64) int64 {
	code, errno := h.M.WaitTid(tid, proc.ThreadId(target))
	if errno != kerr.OK {
		return int64(errno)
	}
	return code
}
