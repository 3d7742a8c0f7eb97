package proc

import (
	"sync"

	"config"
	"elfload"
	"fdtable"
	"fs"
	"mem"
	"pagetable"
	"sbi"
	"signal"
	"trapctx"
	"vm"
)

// Manager owns every process and thread and the stride scheduler's ready
// queue (spec §4.3 — "processes, threads, parent/children, threads_of,
// ready_queue, current").
type Manager struct {
	mu sync.Mutex

	Alloc    *mem.Allocator
	KernelAS *vm.AddressSpace
	Portal   *trapctx.Portal
	FW       sbi.Firmware
	FS       *fs.FS

	procs     map[ProcId]*Process
	threads   map[ThreadId]*Thread
	threadsOf map[ProcId][]ThreadId
	ready     []ThreadId

	current    ThreadId
	hasCurrent bool

	nextProc   ProcId
	nextThread ThreadId

	rootProc ProcId
	hasRoot  bool
}

// New returns an empty manager wired to the shared allocator, kernel
// address space, portal, and firmware (spec §6 external collaborators).
func New(alloc *mem.Allocator, kernelAS *vm.AddressSpace, portal *trapctx.Portal, fw sbi.Firmware, filesystem *fs.FS) *Manager {
	return &Manager{
		Alloc:     alloc,
		KernelAS:  kernelAS,
		Portal:    portal,
		FW:        fw,
		FS:        filesystem,
		procs:     make(map[ProcId]*Process),
		threads:   make(map[ThreadId]*Thread),
		threadsOf: make(map[ProcId][]ThreadId),
	}
}

func (m *Manager) allocProcId() ProcId {
	id := m.nextProc
	m.nextProc++
	return id
}

func (m *Manager) allocThreadId() ThreadId {
	id := m.nextThread
	m.nextThread++
	return id
}

// newBareProcess builds a Process with a fresh address space sharing the
// portal, empty fd table, fresh signal state, and default priority/stride
// (spec §3 invariant: priority >= 2).
func (m *Manager) newBareProcess() *Process {
	as := vm.New(m.Alloc)
	m.Portal.Install(as, m.KernelAS)
	return &Process{
		Id:                  m.allocProcId(),
		AS:                  as,
		Fds:                 fdtable.New(),
		Sig:                 signal.New(),
		Priority:            config.MinPriority,
		NextThreadStackSlot: 1,
		Children:            make(map[ProcId]bool),
		Accnt:               &Accnt{},
	}
}

// newThread registers a thread for proc's process, in state Ready, and
// returns its id. Callers set up Ctx before or after calling this.
func (m *Manager) newThread(proc ProcId, ctx trapctx.ForeignContext, isMain bool) *Thread {
	t := &Thread{
		Id:            m.allocThreadId(),
		Proc:          proc,
		Ctx:           ctx,
		State:         Ready,
		IsMain:        isMain,
		PendingRelock: -1,
	}
	m.threads[t.Id] = t
	m.threadsOf[proc] = append(m.threadsOf[proc], t.Id)
	m.ready = append(m.ready, t.Id)
	return t
}

// LoadInitProcess builds the first process from an ELF image: a fresh
// address space, stdio console placeholders at fd 0/1/2, and a single main
// thread entering at the ELF's entry point (spec §6, §3). It becomes the
// root process new orphans are re-parented to (spec §4.3 exit note).
func (m *Manager) LoadInitProcess(image []byte, priority uint64) (ProcId, ThreadId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	proc := m.newBareProcess()
	loaded, ok := elfload.Load(proc.AS, image)
	if !ok {
		return 0, 0, false
	}
	proc.HeapBottom = loaded.HeapBottom
	proc.ProgramBrk = loaded.HeapBottom
	proc.Priority = priority

	con := fs.NewConsole(m.FW)
	proc.Fds.Install(con)
	proc.Fds.Install(con.Clone())
	proc.Fds.Install(con.Clone())

	local := trapctx.NewUserLocal(loaded.Entry)
	local.SetSP(loaded.StackTop)
	ctx := trapctx.ForeignContext{Local: local, Satp: trapctx.Satp(uint64(proc.AS.RootPPN()))}

	thread := m.newThread(proc.Id, ctx, true)

	m.procs[proc.Id] = proc
	m.rootProc = proc.Id
	m.hasRoot = true

	return proc.Id, thread.Id, true
}

// Process / Thread look up a live record by id.
func (m *Manager) Process(id ProcId) (*Process, bool) {
	p, ok := m.procs[id]
	return p, ok
}

func (m *Manager) Thread(id ThreadId) (*Thread, bool) {
	t, ok := m.threads[id]
	return t, ok
}

// Current returns the currently running thread, if any.
func (m *Manager) Current() (ThreadId, bool) {
	return m.current, m.hasCurrent
}

// strideLess reports whether a's stride precedes b's under wraparound-
// tolerant unsigned subtraction (spec §9: "comparisons are done on u64
// subtraction interpreted as signed").
func strideLess(a, b uint64) bool {
	return int64(a-b) < 0
}

// Dispatch picks the ready thread whose process has the smallest stride,
// breaking ties by ready-queue arrival order, removes it from the ready
// queue, marks it Running, advances its process's stride by
// BIG_STRIDE/priority, and returns it (spec §4.3). ok is false if the
// ready queue is empty.
func (m *Manager) Dispatch() (ThreadId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := -1
	var bestStride uint64
	for i, tid := range m.ready {
		t := m.threads[tid]
		proc := m.procs[t.Proc]
		if best == -1 || strideLess(proc.Stride, bestStride) {
			best = i
			bestStride = proc.Stride
		}
	}
	if best == -1 {
		return 0, false
	}
	tid := m.ready[best]
	m.ready = append(m.ready[:best], m.ready[best+1:]...)

	t := m.threads[tid]
	t.State = Running
	proc := m.procs[t.Proc]
	proc.Stride += config.BigStride / proc.Priority
	proc.Accnt.AddQuantum()

	m.current = tid
	m.hasCurrent = true
	if m.FW != nil {
		m.FW.SetTimer(m.FW.Mtime() + config.QuantumTicks)
	}
	return tid, true
}

// Yield returns a Running thread to Ready at the back of the queue (spec
// §4.3: timer interrupt or sched_yield).
func (m *Manager) Yield(tid ThreadId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeueReady(tid)
}

func (m *Manager) requeueReady(tid ThreadId) {
	t, ok := m.threads[tid]
	if !ok || t.State == Exited || t.Killed {
		return
	}
	t.State = Ready
	m.ready = append(m.ready, tid)
	if m.hasCurrent && m.current == tid {
		m.hasCurrent = false
	}
}

// Block transitions a Running thread to Blocked, parked on some
// usync.Mutex/Semaphore/Condvar wait queue by the caller (spec §4.4's
// "dispatcher calls make_current_blocked").
func (m *Manager) Block(tid ThreadId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockLocked(tid)
}

// Wake requeues a thread dequeued from a sync-primitive wait FIFO as
// Ready, unless it was Killed while parked (spec §9: "scheduler must skip
// Exited threads when dequeueing").
func (m *Manager) Wake(tid ThreadId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeueReady(tid)
}

// ReadyLen reports how many threads are currently Ready, used by tests
// checking queue invariants (spec §8 property 5).
func (m *Manager) ReadyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ready)
}

// ThreadsOf returns the (live or exited) thread ids belonging to proc, in
// creation order.
func (m *Manager) ThreadsOf(proc ProcId) []ThreadId {
	out := make([]ThreadId, len(m.threadsOf[proc]))
	copy(out, m.threadsOf[proc])
	return out
}

// Translate is a convenience wrapper validating flags for the current
// process's address space; handlers use it (or the raw AddressSpace
// methods) to cross the syscall/user-memory boundary (spec §4.2).
func (p *Process) Translate(vaddr uint64, required pagetable.Flags) (*mem.Frame, int, bool) {
	return p.AS.Translate(vaddr, required)
}
