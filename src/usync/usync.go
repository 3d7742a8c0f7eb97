// Package usync implements the kernel's process-local synchronization
// primitives: mutex, counting semaphore, condition variable (spec §3,
// §4.4). Each lives per-process, addressed by a small integer slot index
// in a sparse vector the caller (package proc) maintains; this package
// only implements the primitives' internal state machines.
//
// Thread identities are passed in as a package-local ThreadID rather than
// proc.ThreadId, so this package has no dependency on the process manager
// — the scheduler bridges the two (spec §4.4: "the main scheduler loop
// bridges 'blocked' results to state transitions").
package usync

// ThreadID is an opaque thread identifier, numerically identical to
// proc.ThreadId.
type ThreadID uint64

// fifo is a strictly-ordered wait queue, head woken first.
type fifo struct {
	q []ThreadID
}

func (f *fifo) push(t ThreadID) { f.q = append(f.q, t) }

func (f *fifo) pop() (ThreadID, bool) {
	if len(f.q) == 0 {
		return 0, false
	}
	t := f.q[0]
	f.q = f.q[1:]
	return t, true
}

func (f *fifo) popAll() []ThreadID {
	out := f.q
	f.q = nil
	return out
}

func (f *fifo) len() int { return len(f.q) }

// Mutex is a non-reentrant lock with FIFO wakeup order (spec §3, §4.4).
type Mutex struct {
	owner   ThreadID
	hasOwn  bool
	waiters fifo
}

// NewMutex returns an unowned mutex.
func NewMutex() *Mutex { return &Mutex{} }

// Lock attempts to acquire the mutex for tid. acquired is true if it
// succeeded immediately; otherwise tid has been enqueued and the caller
// (the scheduler) must transition tid to Blocked.
func (m *Mutex) Lock(tid ThreadID) (acquired bool) {
	if !m.hasOwn {
		m.owner, m.hasOwn = tid, true
		return true
	}
	m.waiters.push(tid)
	return false
}

// Unlock releases the mutex held by tid. If the wait queue is non-empty,
// ownership transfers directly to the dequeued head, which the caller
// must requeue as Ready; otherwise the mutex becomes unowned. ok is false
// if tid does not hold the mutex (a usage error the syscall handler turns
// into kerr.EGENERIC).
func (m *Mutex) Unlock(tid ThreadID) (woken ThreadID, hasWoken bool, ok bool) {
	if !m.hasOwn || m.owner != tid {
		return 0, false, false
	}
	next, any := m.waiters.pop()
	if any {
		m.owner = next
		return next, true, true
	}
	m.hasOwn = false
	return 0, false, true
}

// Holder reports the current owner, if any — used by tests checking the
// mutual-exclusion invariant (spec §8 property 11).
func (m *Mutex) Holder() (ThreadID, bool) { return m.owner, m.hasOwn }

// Semaphore is a counting semaphore (spec §3, §4.4).
type Semaphore struct {
	count   int64
	waiters fifo
}

// NewSemaphore returns a semaphore initialised to n.
func NewSemaphore(n int64) *Semaphore { return &Semaphore{count: n} }

// Down decrements the count; if it stays non-negative the caller may
// proceed immediately, otherwise tid is enqueued and the caller must
// block.
func (s *Semaphore) Down(tid ThreadID) (acquired bool) {
	s.count--
	if s.count >= 0 {
		return true
	}
	s.waiters.push(tid)
	return false
}

// Up increments the count and, if a waiter was parked on it, dequeues and
// returns it for requeueing as Ready.
func (s *Semaphore) Up() (woken ThreadID, hasWoken bool) {
	s.count++
	if s.count <= 0 {
		return s.waiters.pop()
	}
	return 0, false
}

// Count returns the current counter value (may be negative while threads
// are waiting).
func (s *Semaphore) Count() int64 { return s.count }

// Condvar is a condition variable holding only a wait FIFO (spec §3,
// §4.4).
type Condvar struct {
	waiters fifo
}

// NewCondvar returns an empty condition variable.
func NewCondvar() *Condvar { return &Condvar{} }

// Wait enqueues tid, then unlocks m. If that unlock itself wakes another
// thread, that thread is returned so the caller requeues it as Ready too.
// The caller always transitions tid to Blocked. Wait does not re-acquire m
// for tid: this package has no notion of trap return, so the scheduler
// layer (proc.Manager.CondvarWait / kernel.Run) is the one that records the
// pending re-lock and replays it once tid is dispatched again (spec §4.4).
func (c *Condvar) Wait(tid ThreadID, m *Mutex) (wokenByUnlock ThreadID, hasWoken bool, unlockOK bool) {
	c.waiters.push(tid)
	return m.Unlock(tid)
}

// Signal dequeues one waiter for requeueing.
func (c *Condvar) Signal() (ThreadID, bool) { return c.waiters.pop() }

// Broadcast dequeues every waiter.
func (c *Condvar) Broadcast() []ThreadID { return c.waiters.popAll() }

// WaiterCount reports how many threads are parked, used by tests.
func (c *Condvar) WaiterCount() int { return c.waiters.len() }
