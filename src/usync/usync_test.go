package usync

import "testing"

func TestMutexLockUnlockUncontended(t *testing.T) {
	m := NewMutex()
	if ok := m.Lock(1); !ok {
		t.Fatal("expected uncontended Lock to succeed immediately")
	}
	if owner, has := m.Holder(); !has || owner != 1 {
		t.Fatalf("Holder() = %d,%v want 1,true", owner, has)
	}

	woken, hasWoken, ok := m.Unlock(1)
	if !ok || hasWoken {
		t.Fatalf("Unlock() = %v,%v,%v want true,false,true", woken, hasWoken, ok)
	}
	if _, has := m.Holder(); has {
		t.Fatal("expected the mutex to be unowned after Unlock with no waiters")
	}
}

func TestMutexUnlockByNonOwnerFails(t *testing.T) {
	m := NewMutex()
	m.Lock(1)
	if _, _, ok := m.Unlock(2); ok {
		t.Fatal("expected Unlock by a non-owner to fail")
	}
}

func TestMutexTransfersOwnershipFIFO(t *testing.T) {
	m := NewMutex()
	m.Lock(1)
	if acquired := m.Lock(2); acquired {
		t.Fatal("expected the second Lock to block")
	}
	if acquired := m.Lock(3); acquired {
		t.Fatal("expected the third Lock to block")
	}

	woken, hasWoken, ok := m.Unlock(1)
	if !ok || !hasWoken || woken != 2 {
		t.Fatalf("Unlock() = %v,%v,%v want 2,true,true", woken, hasWoken, ok)
	}
	if owner, _ := m.Holder(); owner != 2 {
		t.Fatalf("Holder() = %d, want 2 (FIFO order)", owner)
	}

	woken, hasWoken, ok = m.Unlock(2)
	if !ok || !hasWoken || woken != 3 {
		t.Fatalf("Unlock() = %v,%v,%v want 3,true,true", woken, hasWoken, ok)
	}
}

func TestSemaphoreDownUpBalance(t *testing.T) {
	s := NewSemaphore(1)
	if ok := s.Down(1); !ok {
		t.Fatal("expected Down on a semaphore initialised to 1 to succeed")
	}
	if ok := s.Down(2); ok {
		t.Fatal("expected the second Down to block")
	}

	woken, hasWoken := s.Up()
	if !hasWoken || woken != 2 {
		t.Fatalf("Up() = %d,%v want 2,true", woken, hasWoken)
	}
}

func TestSemaphoreUpWithNoWaitersJustIncrements(t *testing.T) {
	s := NewSemaphore(0)
	if _, hasWoken := s.Up(); hasWoken {
		t.Fatal("expected Up with no waiters to not report a wakeup")
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
}

func TestCondvarWaitUnlocksAndSignalWakesFIFO(t *testing.T) {
	m := NewMutex()
	m.Lock(1)

	c := NewCondvar()
	_, hasWoken, unlockOK := c.Wait(1, m)
	if !unlockOK || hasWoken {
		t.Fatalf("Wait() = _,%v,%v want false,true (no other waiters to transfer to)", hasWoken, unlockOK)
	}
	if c.WaiterCount() != 1 {
		t.Fatalf("WaiterCount() = %d, want 1", c.WaiterCount())
	}

	woken, ok := c.Signal()
	if !ok || woken != 1 {
		t.Fatalf("Signal() = %d,%v want 1,true", woken, ok)
	}

	// Signal only makes the waiter Ready; this package has no notion of
	// trap return, so it never re-acquires m itself (proc.Manager /
	// kernel.Run do that via a synthetic mutex_lock continuation). Mirror
	// that continuation here and confirm it leaves the woken thread holding
	// the mutex, the invariant a real condvar_wait caller depends on.
	if _, has := m.Holder(); has {
		t.Fatal("expected m to be unowned immediately after Signal, before the relock continuation runs")
	}
	if acquired := m.Lock(woken); !acquired {
		t.Fatal("expected the relock continuation to acquire the uncontended mutex immediately")
	}
	if owner, has := m.Holder(); !has || owner != woken {
		t.Fatalf("Holder() = %d,%v want %d,true after the relock continuation", owner, has, woken)
	}
}

func TestCondvarBroadcastDrainsAllWaiters(t *testing.T) {
	c := NewCondvar()
	m := NewMutex()
	m.Lock(1)
	c.Wait(1, m)
	m.Lock(2)
	c.Wait(2, m)

	woken := c.Broadcast()
	if len(woken) != 2 {
		t.Fatalf("Broadcast() returned %d waiters, want 2", len(woken))
	}
	if c.WaiterCount() != 0 {
		t.Fatalf("WaiterCount() = %d after Broadcast, want 0", c.WaiterCount())
	}
}
