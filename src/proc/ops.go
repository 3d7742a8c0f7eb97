package proc

import (
	"elfload"
	"kerr"
	"pagetable"
	"trapctx"
	"vm"
)

// Fork clones the calling thread's process: a deep-copied address space, a
// handle-cloned fd table, cloned signal dispositions, empty sync lists,
// and a single child thread whose register file mirrors the parent's
// current thread but with a0 = 0 (spec §4.3). It returns the child's
// ProcId; the parent's a0 is filled by the caller (the syscall dispatcher)
// once the handler returns.
func (m *Manager) Fork(tid ThreadId) (ProcId, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parentThread, ok := m.threads[tid]
	if !ok {
		return 0, kerr.EGENERIC
	}
	parent, ok := m.procs[parentThread.Proc]
	if !ok {
		return 0, kerr.EGENERIC
	}

	child := &Process{
		Id:                  m.allocProcId(),
		AS:                  vm.New(m.Alloc),
		Fds:                 parent.Fds.Clone(),
		Sig:                 parent.Sig.Clone(),
		Priority:            parent.Priority,
		HeapBottom:          parent.HeapBottom,
		ProgramBrk:          parent.ProgramBrk,
		NextThreadStackSlot: 1,
		ParentId:            parent.Id,
		HasParent:           true,
		Children:            make(map[ProcId]bool),
		Accnt:               &Accnt{},
	}
	m.Portal.Install(child.AS, m.KernelAS)
	parent.AS.CloneInto(child.AS)

	childCtx := parentThread.Ctx
	childCtx.Local.Regs[trapctx.RegA0] = 0
	childCtx.Satp = trapctx.Satp(uint64(child.AS.RootPPN()))

	m.procs[child.Id] = child
	parent.Children[child.Id] = true
	m.newThread(child.Id, childCtx, true)

	return child.Id, kerr.OK
}

// Exec loads image as the new program for tid's process: a fresh address
// space replaces the old one, the calling thread's register file is reset
// to an entry-point context, and PID, parent link, fd table, signal
// dispositions, and stride/priority are preserved (spec §4.3). The old
// address space is dropped.
func (m *Manager) Exec(tid ThreadId, image []byte) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[tid]
	if !ok {
		return kerr.EGENERIC
	}
	proc, ok := m.procs[t.Proc]
	if !ok {
		return kerr.EGENERIC
	}

	newAS := vm.New(m.Alloc)
	m.Portal.Install(newAS, m.KernelAS)
	loaded, ok := elfload.Load(newAS, image)
	if !ok {
		return kerr.EGENERIC
	}

	proc.AS.Drop()
	proc.AS = newAS
	proc.HeapBottom = loaded.HeapBottom
	proc.ProgramBrk = loaded.HeapBottom
	proc.NextThreadStackSlot = 1

	local := trapctx.NewUserLocal(loaded.Entry)
	local.SetSP(loaded.StackTop)
	t.Ctx = trapctx.ForeignContext{Local: local, Satp: trapctx.Satp(uint64(newAS.RootPPN()))}

	return kerr.OK
}

// Spawn builds a child process directly from image without cloning the
// parent's address space — fork immediately followed by exec, but atomic
// (spec §4.3: "no cloning of the parent's address space, for efficiency").
// Fd table and signal dispositions are still inherited, matching what a
// fork+exec sequence would have preserved.
func (m *Manager) Spawn(tid ThreadId, image []byte) (ProcId, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parentThread, ok := m.threads[tid]
	if !ok {
		return 0, kerr.EGENERIC
	}
	parent, ok := m.procs[parentThread.Proc]
	if !ok {
		return 0, kerr.EGENERIC
	}

	child := &Process{
		Id:                  m.allocProcId(),
		AS:                  vm.New(m.Alloc),
		Fds:                 parent.Fds.Clone(),
		Sig:                 parent.Sig.Clone(),
		Priority:            parent.Priority,
		NextThreadStackSlot: 1,
		ParentId:            parent.Id,
		HasParent:           true,
		Children:            make(map[ProcId]bool),
		Accnt:               &Accnt{},
	}
	m.Portal.Install(child.AS, m.KernelAS)

	loaded, ok := elfload.Load(child.AS, image)
	if !ok {
		child.AS.Drop()
		return 0, kerr.EGENERIC
	}
	child.HeapBottom = loaded.HeapBottom
	child.ProgramBrk = loaded.HeapBottom

	local := trapctx.NewUserLocal(loaded.Entry)
	local.SetSP(loaded.StackTop)
	ctx := trapctx.ForeignContext{Local: local, Satp: trapctx.Satp(uint64(child.AS.RootPPN()))}

	m.procs[child.Id] = child
	parent.Children[child.Id] = true
	m.newThread(child.Id, ctx, true)

	return child.Id, kerr.OK
}

// Wait implements wait(pid, *code) (spec §4.3): pid == -1 scans children
// for any Exited one; otherwise a specific child is looked up. found=false
// with result -1 covers both "no such child" and "that child (or any
// child, for pid==-1) exists but hasn't exited yet" — the pedagogical
// sentinel spec §9 documents; the caller loops and yields.
func (m *Manager) Wait(tid ThreadId, pid int64) (resultPid int64, code int64, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[tid]
	if !ok {
		return -1, 0, false
	}
	proc := m.procs[t.Proc]

	if pid == -1 {
		for childID := range proc.Children {
			child := m.procs[childID]
			if child.Exited {
				return m.reapChild(proc, child)
			}
		}
		return -1, 0, false
	}

	childID := ProcId(pid)
	if !proc.Children[childID] {
		return -1, 0, false
	}
	child, ok := m.procs[childID]
	if !ok || !child.Exited {
		return -1, 0, false
	}
	return m.reapChild(proc, child)
}

// reapChild removes child's process-tree record and the Manager's own
// bookkeeping, returning its pid/exit-code (spec §3: "destroyed when every
// thread has Exited and the parent has consumed the exit code via wait").
func (m *Manager) reapChild(parent *Process, child *Process) (int64, int64, bool) {
	delete(parent.Children, child.Id)
	delete(m.procs, child.Id)
	delete(m.threadsOf, child.Id)
	return int64(child.Id), int64(child.ExitCode), true
}

// Exit marks tid Exited with code. If it was the process's last live
// thread, the process itself becomes Exited with that code and its
// children are re-parented to the root process (spec §4.3). In that case
// Exit also closes every fd through Fds.CloseAll (reverse slot order),
// which drops the process's pipe references and lets readers see EOF.
func (m *Manager) Exit(tid ThreadId, code int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitLocked(tid, code)
}

func (m *Manager) exitLocked(tid ThreadId, code int64) {
	t, ok := m.threads[tid]
	if !ok || t.State == Exited {
		return
	}
	t.State = Exited
	t.ExitCode = int(code)

	proc, ok := m.procs[t.Proc]
	if !ok {
		return
	}
	anyAlive := false
	for _, otherID := range m.threadsOf[proc.Id] {
		other := m.threads[otherID]
		if other.State != Exited {
			anyAlive = true
			break
		}
	}
	if anyAlive {
		return
	}

	proc.Exited = true
	proc.ExitCode = int(code)
	proc.Fds.CloseAll()

	if m.hasRoot {
		for childID := range proc.Children {
			child := m.procs[childID]
			child.ParentId = m.rootProc
			if root, ok := m.procs[m.rootProc]; ok {
				root.Children[childID] = true
			}
		}
	}
	proc.Children = make(map[ProcId]bool)
}

// Kill marks every thread of proc Exited, matching spec §5's "kill sets
// every thread of the process to Exited" — threads parked in sync-
// primitive wait queues are left referenced there (spec §9 known
// limitation) with Killed set so the scheduler's Wake skips them instead
// of dispatching a corpse.
func (m *Manager) Kill(proc ProcId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.procs[proc]; !ok {
		return
	}
	for _, tid := range m.threadsOf[proc] {
		t := m.threads[tid]
		if t.State == Exited {
			continue
		}
		t.Killed = true
		m.exitLocked(tid, 128+int64(9)) // SIGKILL-equivalent exit code
	}
}

// Sbrk implements sbrk(delta) (spec §4.3): grows or shrinks the process's
// heap by mapping/unmapping the pages crossed between the old and new
// break with U_WRV, failing if the new break would fall below
// heap_bottom. Returns the old break.
func (m *Manager) Sbrk(tid ThreadId, delta int64) (oldBrk int64, errno kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[tid]
	if !ok {
		return 0, kerr.EGENERIC
	}
	proc := m.procs[t.Proc]

	newBrk := int64(proc.ProgramBrk) + delta
	if newBrk < int64(proc.HeapBottom) {
		return 0, kerr.EGENERIC
	}

	meta := pagetable.Sv39
	old := proc.ProgramBrk
	flags, _ := pagetable.ParseFlags("U_WRV")
	if delta > 0 {
		vpnStart := meta.Ceil(old)
		vpnEnd := meta.Ceil(uint64(newBrk))
		if vpnEnd > vpnStart {
			proc.AS.Map(vpnStart, vpnEnd, nil, 0, flags)
		}
	} else if delta < 0 {
		vpnStart := meta.Ceil(uint64(newBrk))
		vpnEnd := meta.Ceil(old)
		if vpnEnd > vpnStart {
			proc.AS.Unmap(vpnStart, vpnEnd)
		}
	}
	proc.ProgramBrk = uint64(newBrk)
	return int64(old), kerr.OK
}
