package proc

import (
	"kerr"
	"usync"
)

// MutexCreate installs a fresh mutex in the calling process's handle table
// and returns its id (spec §6: mutex_create(blocking); this kernel only
// implements the blocking form).
func (m *Manager) MutexCreate(tid ThreadId) (int, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok {
		return 0, kerr.EGENERIC
	}
	return proc.installMutex(usync.NewMutex()), kerr.OK
}

// MutexLock implements mutex_lock(id) (spec §4.4): on immediate
// acquisition it returns OK; otherwise the caller is enqueued and the
// dispatcher must transition tid to Blocked (spec: "the dispatcher calls
// make_current_blocked instead of make_current_suspend").
func (m *Manager) MutexLock(tid ThreadId, id int) (blocked bool, errno kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Mutexes) || proc.Mutexes[id] == nil {
		return false, kerr.EGENERIC
	}
	acquired := proc.Mutexes[id].Lock(usync.ThreadID(tid))
	if acquired {
		return false, kerr.OK
	}
	m.blockLocked(tid)
	return true, kerr.OK
}

// MutexUnlock implements mutex_unlock(id): releases the mutex and, if a
// waiter was transferred ownership, wakes it.
func (m *Manager) MutexUnlock(tid ThreadId, id int) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Mutexes) || proc.Mutexes[id] == nil {
		return kerr.EGENERIC
	}
	woken, hasWoken, ok := proc.Mutexes[id].Unlock(usync.ThreadID(tid))
	if !ok {
		return kerr.EGENERIC
	}
	if hasWoken {
		m.wakeLocked(ThreadId(woken))
	}
	return kerr.OK
}

// SemaphoreCreate installs a counting semaphore initialised to n (spec §6:
// semaphore_create(n)).
func (m *Manager) SemaphoreCreate(tid ThreadId, n int64) (int, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok {
		return 0, kerr.EGENERIC
	}
	return proc.installSemaphore(usync.NewSemaphore(n)), kerr.OK
}

// SemaphoreDown implements semaphore_down(id) (spec §4.4).
func (m *Manager) SemaphoreDown(tid ThreadId, id int) (blocked bool, errno kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Semaphores) || proc.Semaphores[id] == nil {
		return false, kerr.EGENERIC
	}
	acquired := proc.Semaphores[id].Down(usync.ThreadID(tid))
	if acquired {
		return false, kerr.OK
	}
	m.blockLocked(tid)
	return true, kerr.OK
}

// SemaphoreUp implements semaphore_up(id), waking a waiter if one was
// parked.
func (m *Manager) SemaphoreUp(tid ThreadId, id int) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Semaphores) || proc.Semaphores[id] == nil {
		return kerr.EGENERIC
	}
	woken, hasWoken := proc.Semaphores[id].Up()
	if hasWoken {
		m.wakeLocked(ThreadId(woken))
	}
	return kerr.OK
}

// CondvarCreate installs a fresh condition variable (spec §6:
// condvar_create()).
func (m *Manager) CondvarCreate(tid ThreadId) (int, kerr.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok {
		return 0, kerr.EGENERIC
	}
	return proc.installCondvar(usync.NewCondvar()), kerr.OK
}

// CondvarWait implements condvar_wait(cid, mid) (spec §4.4): the caller is
// enqueued on the condvar and mutex mid is unlocked; if that unlock itself
// wakes another waiter, it is woken too (that waiter is handed ownership of
// mid directly by usync.Mutex.Unlock, so it needs no further continuation).
// The caller always blocks, and is marked to re-acquire mid the moment it is
// next dispatched: kernel.Run synthesizes the mutex_lock continuation in its
// trap-return path (spec §4.4) by checking Thread.PendingRelock.
func (m *Manager) CondvarWait(tid ThreadId, cid, mid int) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[tid]
	if !ok {
		return kerr.EGENERIC
	}
	proc := m.procs[t.Proc]
	if cid < 0 || cid >= len(proc.Condvars) || proc.Condvars[cid] == nil {
		return kerr.EGENERIC
	}
	if mid < 0 || mid >= len(proc.Mutexes) || proc.Mutexes[mid] == nil {
		return kerr.EGENERIC
	}
	woken, hasWoken, unlockOK := proc.Condvars[cid].Wait(usync.ThreadID(tid), proc.Mutexes[mid])
	if !unlockOK {
		return kerr.EGENERIC
	}
	if hasWoken {
		m.wakeLocked(ThreadId(woken))
	}
	t.PendingRelock = mid
	m.blockLocked(tid)
	return kerr.OK
}

// CondvarSignal implements condvar_signal(id): wakes one waiter, if any.
func (m *Manager) CondvarSignal(tid ThreadId, id int) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Condvars) || proc.Condvars[id] == nil {
		return kerr.EGENERIC
	}
	if woken, ok := proc.Condvars[id].Signal(); ok {
		m.wakeLocked(ThreadId(woken))
	}
	return kerr.OK
}

// CondvarBroadcast wakes every waiter on id.
func (m *Manager) CondvarBroadcast(tid ThreadId, id int) kerr.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.procForThread(tid)
	if !ok || id < 0 || id >= len(proc.Condvars) || proc.Condvars[id] == nil {
		return kerr.EGENERIC
	}
	for _, woken := range proc.Condvars[id].Broadcast() {
		m.wakeLocked(ThreadId(woken))
	}
	return kerr.OK
}

// ResolvePendingRelock synthesizes the mutex_lock continuation a woken
// condvar waiter needs before it may resume in user code (spec §4.4). The
// scheduler must call this on every thread right after Dispatch picks it,
// before its context is actually run: if tid has no pending relock this is
// a no-op; otherwise it attempts to acquire the recorded mutex now. If the
// mutex is still held elsewhere, tid is re-parked on it (blocked reports
// true) and the scheduler must not run tid this round — it goes back to
// Dispatch once the mutex is released.
func (m *Manager) ResolvePendingRelock(tid ThreadId) (blocked bool) {
	m.mu.Lock()
	t, ok := m.threads[tid]
	if !ok || t.PendingRelock < 0 {
		m.mu.Unlock()
		return false
	}
	mid := t.PendingRelock
	t.PendingRelock = -1
	m.mu.Unlock()

	blocked, errno := m.MutexLock(tid, mid)
	return errno == kerr.OK && blocked
}

func (m *Manager) procForThread(tid ThreadId) (*Process, bool) {
	t, ok := m.threads[tid]
	if !ok {
		return nil, false
	}
	return m.procs[t.Proc], true
}

// blockLocked / wakeLocked are Block/Wake's internals, callable while m.mu
// is already held (sync_ops.go methods hold it across both the usync call
// and the resulting state transition, spec §5(iv): no concurrent mutation
// is possible under the single-hart model).
func (m *Manager) blockLocked(tid ThreadId) {
	t, ok := m.threads[tid]
	if !ok {
		return
	}
	t.State = Blocked
	for i, r := range m.ready {
		if r == tid {
			m.ready = append(m.ready[:i], m.ready[i+1:]...)
			break
		}
	}
	if m.hasCurrent && m.current == tid {
		m.hasCurrent = false
	}
}

func (m *Manager) wakeLocked(tid ThreadId) {
	m.requeueReady(tid)
}
