// Package syscall implements the single syscall-dispatch entry point
// (spec §4.7) and the per-call-group handlers (IO, Process, Scheduling,
// Clock, Memory, Signal, Thread, SyncMutex, Trace) it fans out to. Every
// handler validates and translates user pointers exclusively through
// vm.AddressSpace's Translate/ReadBytes/WriteBytes/ReadString (spec
// §4.2), and returns a plain int64 register value — kerr.Errno's negative
// constants double as that value directly, so no separate error channel
// crosses the syscall boundary (spec §7).
package syscall

// ID is a syscall number, read out of the a7 register (spec §4.7).
type ID uint64

const (
	IoRead ID = iota
	IoWrite
	IoOpen
	IoClose
	IoPipe
	IoDup
	IoFstat
	IoLinkat
	IoUnlinkat

	ProcExit
	ProcFork
	ProcExec
	ProcSpawn
	ProcWait
	ProcWaitpid
	ProcGetpid
	ProcSbrk

	SchedYield
	SchedSetPriority

	ClockGettime

	MemMmap
	MemMunmap

	SigKill
	SigAction
	SigProcMask
	SigReturn

	ThreadCreate
	ThreadGettid
	ThreadWaittid

	SyncMutexCreate
	SyncMutexLock
	SyncMutexUnlock
	SyncSemaphoreCreate
	SyncSemaphoreDown
	SyncSemaphoreUp
	SyncCondvarCreate
	SyncCondvarSignal
	SyncCondvarWait

	Trace
)

// Clock ids used by the Clock group (spec §6); open flags live in package fs.
const (
	ClockMonotonic = 1
)

// Trace request codes (spec §6 Trace/debug group).
const (
	TraceReadByte  = 0
	TraceWriteByte = 1
	TraceCount     = 2
)
