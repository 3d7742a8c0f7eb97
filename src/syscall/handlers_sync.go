package syscall

import (
	"kerr"
	"proc"
)

// sysMutexCreate implements mutex_create() (spec §6 Sync group).
func (h *Handlers) sysMutexCreate(tid proc.ThreadId) int64 {
	id, errno := h.M.MutexCreate(tid)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(id)
}

// sysMutexLock implements mutex_lock(id). Whether the caller acquired the
// mutex immediately or was parked, the call itself reports success; the
// parked/running distinction is carried entirely by the scheduler's thread
// state, not by this return value (spec §4.4).
func (h *Handlers) sysMutexLock(tid proc.ThreadId, id int) int64 {
	_, errno := h.M.MutexLock(tid, id)
	return int64(errno)
}

func (h *Handlers) sysMutexUnlock(tid proc.ThreadId, id int) int64 {
	return int64(h.M.MutexUnlock(tid, id))
}

// sysSemaphoreCreate implements semaphore_create(n).
func (h *Handlers) sysSemaphoreCreate(tid proc.ThreadId, n int64) int64 {
	id, errno := h.M.SemaphoreCreate(tid, n)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(id)
}

func (h *Handlers) sysSemaphoreDown(tid proc.ThreadId, id int) int64 {
	_, errno := h.M.SemaphoreDown(tid, id)
	return int64(errno)
}

func (h *Handlers) sysSemaphoreUp(tid proc.ThreadId, id int) int64 {
	return int64(h.M.SemaphoreUp(tid, id))
}

// sysCondvarCreate implements condvar_create().
func (h *Handlers) sysCondvarCreate(tid proc.ThreadId) int64 {
	id, errno := h.M.CondvarCreate(tid)
	if errno != kerr.OK {
		return int64(errno)
	}
	return int64(id)
}

// sysCondvarWait implements condvar_wait(cid, mid): always blocks the
// caller (spec §4.4). It is woken by a later signal/broadcast as Ready, not
// as the mutex's holder; kernel.Run re-acquires mid for it via a synthetic
// mutex_lock continuation (proc.Manager.ResolvePendingRelock) before the
// thread's trap return, so by the time condvar_wait's caller actually
// resumes in user code it again holds mid.
func (h *Handlers) sysCondvarWait(tid proc.ThreadId, cid, mid int) int64 {
	return int64(h.M.CondvarWait(tid, cid, mid))
}

func (h *Handlers) sysCondvarSignal(tid proc.ThreadId, id int) int64 {
	return int64(h.M.CondvarSignal(tid, id))
}
