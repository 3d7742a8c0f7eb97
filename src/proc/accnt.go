package proc

import "sync/atomic"

// Accnt accumulates per-process usage counters: syscalls made and
// scheduler quanta received. Adapted from biscuit's accnt.Accnt_t, which
// tracks user/system nanoseconds off the host wall clock — this kernel has
// no wall clock of its own (mtime only advances when the SBI firmware
// says so), so the two counters that survive are the ones the scheduler
// and dispatcher can count without reading a clock.
type Accnt struct {
	Syscalls uint64
	Quanta   uint64
}

// AddSyscall records one more syscall dispatched on this process's behalf.
func (a *Accnt) AddSyscall() { atomic.AddUint64(&a.Syscalls, 1) }

// AddQuantum records one more scheduler quantum handed to this process.
func (a *Accnt) AddQuantum() { atomic.AddUint64(&a.Quanta, 1) }
