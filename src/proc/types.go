// Package proc implements the process/thread manager and stride
// scheduler (spec §4.3): dense ProcId/ThreadId arenas, the process tree,
// the ready queue, and the fork/exec/wait/exit/sbrk/spawn lifecycle
// operations, bridging usync's blocked/woken-tid results into Ready/
// Blocked state transitions. Grounded on the teacher's tinfo.Tnote_t
// alive/killed bookkeeping idiom for thread state, generalized onto the
// stride-scheduled, multi-address-space design `original_source` ch8
// describes.
package proc

import (
	"fdtable"
	"signal"
	"trapctx"
	"usync"
	"vm"
)

// ProcId and ThreadId are dense, monotonically allocated identifiers
// (spec §3).
type ProcId uint64
type ThreadId uint64

// ThreadState is a thread's scheduling state (spec §4.3 state machine).
type ThreadState int

const (
	Ready ThreadState = iota
	Running
	Blocked
	Exited
)

// Thread is one schedulable execution unit: a register file plus satp and
// a state tag (spec §3 — "Process as resource container, Thread as
// execution unit").
type Thread struct {
	Id       ThreadId
	Proc     ProcId
	Ctx      trapctx.ForeignContext
	State    ThreadState
	ExitCode int
	IsMain   bool
	// Killed marks a thread torn down by process Kill while it sat in a
	// sync-primitive wait queue: it is logically dead but the queue still
	// references it (spec §9, §5 cancellation note), so every dequeue path
	// must skip Killed entries instead of dispatching them.
	Killed bool

	// PendingRelock, when >= 0, names a mutex id this thread must acquire
	// before it may resume in user code: the synthetic mutex_lock
	// continuation spec §4.4 requires a woken condvar waiter to run before
	// its trap return, so that the wait always resumes holding the mutex.
	// -1 means no continuation is pending.
	PendingRelock int
}

// Process is the resource container: address space, fd table, signal
// state, sync-primitive handle tables, heap bounds, and scheduling state
// (spec §3).
type Process struct {
	Id ProcId
	AS *vm.AddressSpace

	Fds *fdtable.Table
	Sig *signal.State

	Mutexes    []*usync.Mutex
	Semaphores []*usync.Semaphore
	Condvars   []*usync.Condvar

	HeapBottom uint64
	ProgramBrk uint64

	Stride   uint64
	Priority uint64

	// NextThreadStackSlot is the next never-before-used stack slot index
	// ThreadCreate will hand out. Slot 0 belongs to the process's main
	// thread, mapped directly by elfload.Load, so this starts at 1. It only
	// ever increases: reusing a slot freed by WaitTid would hand out a VPN
	// range a still-live thread's stack may occupy, which vm.Map rejects.
	NextThreadStackSlot int

	ParentId  ProcId
	HasParent bool
	Children  map[ProcId]bool

	Exited   bool
	ExitCode int

	// Accnt is the process's usage counters (spec SPEC_FULL DOMAIN STACK:
	// adapted from biscuit's accnt.Accnt_t, narrowed to what a kernel with
	// no wall clock can actually measure). No syscall reads them back; the
	// Trace group's counts come from package syscall's own counters.
	Accnt *Accnt
}

// installMutex / installSemaphore / installCondvar place v in the lowest
// free slot of the process's corresponding sparse vector, mirroring
// fdtable.Table.Install's reuse-lowest-free-slot discipline.
func (p *Process) installMutex(v *usync.Mutex) int {
	for i, s := range p.Mutexes {
		if s == nil {
			p.Mutexes[i] = v
			return i
		}
	}
	p.Mutexes = append(p.Mutexes, v)
	return len(p.Mutexes) - 1
}

func (p *Process) installSemaphore(v *usync.Semaphore) int {
	for i, s := range p.Semaphores {
		if s == nil {
			p.Semaphores[i] = v
			return i
		}
	}
	p.Semaphores = append(p.Semaphores, v)
	return len(p.Semaphores) - 1
}

func (p *Process) installCondvar(v *usync.Condvar) int {
	for i, s := range p.Condvars {
		if s == nil {
			p.Condvars[i] = v
			return i
		}
	}
	p.Condvars = append(p.Condvars, v)
	return len(p.Condvars) - 1
}
