// Package kernel implements kernel_main's one-time setup and the
// scheduling loop it hands control to (spec §5, §6 Boot contract). The
// boot stub that gets the machine into this function with a valid stack
// and the real SBI/CPU backends are external collaborators (spec §1);
// this package is driven, in tests and in cmd/kernel, by any
// sbi.Firmware and trapctx.CPU implementation — a host fake for tests, a
// hand-written assembly-backed one on real hardware.
package kernel

import (
	"blockdev"
	"fs"
	"kerr"
	"klog"
	"mem"
	"pagetable"
	"proc"
	"sbi"
	"syscall"
	"trapctx"
	"vm"
)

// Kernel bundles every global singleton kernel_main creates exactly once,
// before any user program runs (spec §5: "each has exactly one init point
// during kernel_main ... interiors are read-modify-write under their own
// locks thereafter").
type Kernel struct {
	Alloc    *mem.Allocator
	KernelAS *vm.AddressSpace
	Portal   *trapctx.Portal
	FW       sbi.Firmware
	CPU      trapctx.CPU
	FS       *fs.FS
	Procs    *proc.Manager
	Syscalls *syscall.Handlers
	Log      *klog.Logger
}

// Boot performs kernel_main's setup up to, but not including, loading the
// initial user program: the heap allocator, the kernel address space with
// the low imageFrames physical pages identity-mapped as the kernel image
// (spec §5 — "identity-mapped kernel image, heap, MMIO"), the portal, the
// mounted (or freshly formatted) file system, and the syscall dispatcher.
// Splitting image loading out lets callers pick the init program after
// Boot returns, via LoadInit.
func Boot(fw sbi.Firmware, cpu trapctx.CPU, dev blockdev.Device, imageFrames, heapFrames int) *Kernel {
	alloc := mem.NewAllocator(mem.PPN(imageFrames), heapFrames)
	kernelAS := vm.New(alloc)

	imageFlags, _ := pagetable.ParseFlags("_XWRV")
	kernelAS.MapExtern(0, uint64(imageFrames), 0, imageFlags)

	portal := trapctx.NewPortal(alloc, kernelAS)

	fsys, ok := fs.Mount(dev)
	if !ok {
		fsys = fs.Format(dev)
	}

	procs := proc.New(alloc, kernelAS, portal, fw, fsys)
	handlers := syscall.NewHandlers(procs, fsys)

	log := klog.New(fw)
	go func() {
		for msg := range alloc.OomCh {
			log.Warn("allocator out of memory: need %d more frame(s)", msg.Need)
		}
	}()

	return &Kernel{
		Alloc:    alloc,
		KernelAS: kernelAS,
		Portal:   portal,
		FW:       fw,
		CPU:      cpu,
		FS:       fsys,
		Procs:    procs,
		Syscalls: handlers,
		Log:      log,
	}
}

// LoadInit loads image as the first process and returns its pid/tid
// (spec §5: "loads the initial user program ... and enters the scheduling
// loop").
func (k *Kernel) LoadInit(image []byte, priority uint64) (proc.ProcId, proc.ThreadId, bool) {
	return k.Procs.LoadInitProcess(image, priority)
}

// Run drives the scheduling loop (spec §5): pick the ready thread with the
// least stride, resume it through the portal until it traps, and dispatch
// on the trap cause. A completed syscall that neither blocked nor exited
// the thread, and a timer interrupt, both return the thread to the back of
// the ready queue; any other trap cause terminates the thread with
// kerr.EKILLED (spec §7 — "a non-syscall trap ... terminates the
// thread"). Run returns once the ready queue is empty — on real hardware,
// driven by a CPU.Execute that genuinely blocks for interrupts, this loop
// never returns.
func (k *Kernel) Run() {
	for {
		tid, ok := k.Procs.Dispatch()
		if !ok {
			return
		}
		t, ok := k.Procs.Thread(tid)
		if !ok {
			continue
		}

		// A thread woken from condvar_wait carries a pending mutex_lock
		// continuation (spec §4.4): synthesize it here, in the trap-return
		// path, before the thread's own context ever runs again. If the
		// mutex is still contended, tid is re-parked and this round is
		// skipped in favor of whatever Dispatch picks next.
		if k.Procs.ResolvePendingRelock(tid) {
			continue
		}

		cause, stval := k.CPU.Execute(&t.Ctx)

		switch cause {
		case trapctx.CauseUserEnvCall:
			k.Syscalls.Dispatch(tid)
			if still, ok := k.Procs.Thread(tid); ok && still.State == proc.Running {
				k.Procs.Yield(tid)
			}
		case trapctx.CauseTimerInterrupt:
			k.Procs.Yield(tid)
		default:
			k.Log.Warn("thread %d killed by trap %v (stval=%#x)", tid, cause, stval)
			k.Procs.Exit(tid, int64(kerr.EKILLED))
		}
	}
}
