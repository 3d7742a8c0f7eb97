package proc

import (
	"config"
	"kerr"
	"pagetable"
	"trapctx"
)

// threadStackVPNs returns the [bottom, top) VPN range for the idx'th
// thread's stack, stacked downward from the fixed 2-page main-thread
// stack just below the portal page — each additional thread gets its own
// 2-page region further down, so thread stacks never collide (new;
// `original_source` ch8 gives each kernel-stack/trap-context a dense
// per-thread slot, the idiom this generalizes to user stacks).
func threadStackVPNs(idx int) (bottom, top uint64) {
	top = uint64(config.PortalVPN) - uint64(idx)*config.UserStackPages
	bottom = top - config.UserStackPages
	return
}

// ThreadCreate implements thread_create(entry, arg) (spec §6 Thread
// group): a new thread in the calling thread's process, with its own
// mapped user stack and a register file seeded with entry and arg (a0).
func (m *Manager) ThreadCreate(tid ThreadId, entry, arg uint64) (ThreadId, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[tid]
	if !ok {
		return 0, kerr.EGENERIC
	}
	proc := m.procs[t.Proc]

	// threadsOf shrinks when WaitTid reaps a joined thread, so its length
	// is not a safe stack-slot index: a later create could reuse a VPN
	// range a still-live thread's stack occupies. NextThreadStackSlot only
	// ever grows for the lifetime of proc's address space.
	idx := proc.NextThreadStackSlot
	proc.NextThreadStackSlot++
	bottom, top := threadStackVPNs(idx)
	flags, _ := pagetable.ParseFlags("U_WRV")
	proc.AS.Map(bottom, top, nil, 0, flags)

	local := trapctx.NewUserLocal(entry)
	local.SetSP(top << uint(pagetable.Sv39.PageBits))
	local.Regs[trapctx.RegA0] = arg
	ctx := trapctx.ForeignContext{Local: local, Satp: trapctx.Satp(uint64(proc.AS.RootPPN()))}

	child := m.newThread(proc.Id, ctx, false)
	return child.Id, kerr.OK
}

// Gettid returns the calling thread's own id (spec §6: gettid()).
func (m *Manager) Gettid(tid ThreadId) ThreadId { return tid }

// WaitTid implements waittid(tid) (spec §3: "a thread is destroyed when
// Exited and joined via waittid"). If target hasn't exited yet, it
// returns (0, EGENERIC), which the caller retries; once Exited, its
// record is removed (joined) and its exit code returned.
// Joining the calling thread's own id, or a tid from a different process,
// is rejected with EGENERIC.
func (m *Manager) WaitTid(tid ThreadId, target ThreadId) (code int64, errno kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()

	caller, ok := m.threads[tid]
	if !ok {
		return 0, kerr.EGENERIC
	}
	victim, ok := m.threads[target]
	if !ok || victim.Proc != caller.Proc || target == tid {
		return 0, kerr.EGENERIC
	}
	if victim.State != Exited {
		return 0, kerr.EGENERIC
	}

	out := int64(victim.ExitCode)
	list := m.threadsOf[caller.Proc]
	for i, id := range list {
		if id == target {
			m.threadsOf[caller.Proc] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(m.threads, target)
	return out, kerr.OK
}
