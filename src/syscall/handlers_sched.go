package syscall

import (
	"config"
	"kerr"
	"proc"
)

// sysSchedYield implements sched_yield() (spec §4.3): returns the calling
// thread to the back of the ready queue without blocking it.
func (h *Handlers) sysSchedYield(tid proc.ThreadId) int64 {
	h.M.Yield(tid)
	return int64(kerr.OK)
}

// sysSetPriority implements set_priority(priority) (spec §3 invariant:
// priority >= 2); rejecting a lower value keeps the stride scheduler's
// BIG_STRIDE/priority step from underflowing toward an unbounded stride
// advance.
func (h *Handlers) sysSetPriority(tid proc.ThreadId, priority uint64) int64 {
	if priority < config.MinPriority {
		return int64(kerr.EGENERIC)
	}
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	p.Priority = priority
	return int64(priority)
}
