package syscall

import (
	"fs"
	"kerr"
	"proc"
)

// Handlers binds the syscall dispatcher to the process manager and the one
// mounted file system, the two collaborators every handler group needs
// (spec §6).
type Handlers struct {
	M  *proc.Manager
	FS *fs.FS

	counts traceCounters
}

// NewHandlers wires a dispatcher to manager m and the mounted file system.
func NewHandlers(m *proc.Manager, filesystem *fs.FS) *Handlers {
	return &Handlers{M: m, FS: filesystem}
}

// Dispatch executes exactly one syscall on behalf of tid: it reads the
// syscall id and arguments out of the thread's saved register file (a7,
// a0..a5), routes to the matching handler group, writes the result back
// into a0, and advances sepc past the ecall instruction (spec §4.1, §4.7).
// ok is false if tid names no live thread.
func (h *Handlers) Dispatch(tid proc.ThreadId) bool {
	t, ok := h.M.Thread(tid)
	if !ok {
		return false
	}
	id := ID(t.Ctx.Local.SyscallID())
	h.counts.Add(id, 1)
	if proc, ok := h.M.Process(t.Proc); ok {
		proc.Accnt.AddSyscall()
	}

	// sigreturn fully replaces the register file with the context saved
	// when the handler was dispatched; it must not also get the generic
	// a0/sepc treatment below, which would clobber the restore.
	if id == SigReturn {
		h.sysSigreturn(tid)
		return true
	}

	var args [6]uint64
	for i := range args {
		args[i] = t.Ctx.Local.SyscallArg(i)
	}

	result := h.call(tid, id, args)

	t.Ctx.Local.SetA0(uint64(result))
	t.Ctx.Local.MoveNext()

	// Signal delivery happens after the syscall body completes and
	// before user resumption (spec §5(iii)).
	if p, ok := h.M.Process(t.Proc); ok {
		if exitCode, killed := p.Sig.Deliver(&t.Ctx.Local); killed {
			h.M.Exit(tid, int64(exitCode))
		}
	}
	return true
}

func (h *Handlers) call(tid proc.ThreadId, id ID, a [6]uint64) int64 {
	switch id {
	case IoRead:
		return h.sysRead(tid, int(a[0]), a[1], a[2])
	case IoWrite:
		return h.sysWrite(tid, int(a[0]), a[1], a[2])
	case IoOpen:
		return h.sysOpen(tid, a[0], int(a[1]))
	case IoClose:
		return h.sysClose(tid, int(a[0]))
	case IoPipe:
		return h.sysPipe(tid, a[0])
	case IoDup:
		return h.sysDup(tid, int(a[0]))
	case IoFstat:
		return h.sysFstat(tid, int(a[0]), a[1])
	case IoLinkat:
		return h.sysLinkat(tid, a[0], a[1])
	case IoUnlinkat:
		return h.sysUnlinkat(tid, a[0])

	case ProcExit:
		return h.sysExit(tid, int64(a[0]))
	case ProcFork:
		return h.sysFork(tid)
	case ProcExec:
		return h.sysExec(tid, a[0])
	case ProcSpawn:
		return h.sysSpawn(tid, a[0])
	case ProcWait:
		return h.sysWait(tid, int64(int32(a[0])), a[1])
	case ProcWaitpid:
		return h.sysWait(tid, int64(int32(a[0])), a[1])
	case ProcGetpid:
		return h.sysGetpid(tid)
	case ProcSbrk:
		return h.sysSbrk(tid, int64(a[0]))

	case SchedYield:
		return h.sysSchedYield(tid)
	case SchedSetPriority:
		return h.sysSetPriority(tid, a[0])

	case ClockGettime:
		return h.sysClockGettime(tid, int(a[0]), a[1])

	case MemMmap:
		return h.sysMmap(tid, a[0], a[1], int(a[2]))
	case MemMunmap:
		return h.sysMunmap(tid, a[0], a[1])

	case SigKill:
		return h.sysKill(tid, int64(int32(a[0])), uint32(a[1]))
	case SigAction:
		return h.sysSigaction(tid, uint32(a[0]), a[1], a[2])
	case SigProcMask:
		return h.sysSigprocmask(tid, uint32(a[0]))

	case ThreadCreate:
		return h.sysThreadCreate(tid, a[0], a[1])
	case ThreadGettid:
		return h.sysGettid(tid)
	case ThreadWaittid:
		return h.sysWaittid(tid, a[0])

	case SyncMutexCreate:
		return h.sysMutexCreate(tid)
	case SyncMutexLock:
		return h.sysMutexLock(tid, int(a[0]))
	case SyncMutexUnlock:
		return h.sysMutexUnlock(tid, int(a[0]))
	case SyncSemaphoreCreate:
		return h.sysSemaphoreCreate(tid, int64(a[0]))
	case SyncSemaphoreDown:
		return h.sysSemaphoreDown(tid, int(a[0]))
	case SyncSemaphoreUp:
		return h.sysSemaphoreUp(tid, int(a[0]))
	case SyncCondvarCreate:
		return h.sysCondvarCreate(tid)
	case SyncCondvarSignal:
		return h.sysCondvarSignal(tid, int(a[0]))
	case SyncCondvarWait:
		return h.sysCondvarWait(tid, int(a[0]), int(a[1]))

	case Trace:
		return h.sysTrace(tid, int(a[0]), a[1], a[2])
	}
	return int64(kerr.EUNSUPPORTED)
}
