package syscall

import (
	"kerr"
	"pagetable"
	"proc"
)

// sysTrace implements trace(request, id, data) (spec §6 Trace/debug
// group): request 0/1 peek/poke a single byte of the calling process's own
// memory at the address carried in id (bypassing the R/W permission check,
// since this is a debugging backdoor rather than ordinary I/O); request 2
// returns the number of times syscall id has been dispatched so far,
// kernel-wide, since boot.
func (h *Handlers) sysTrace(tid proc.ThreadId, request int, id, data uint64) int64 {
	switch request {
	case TraceReadByte:
		p, ok := h.process(tid)
		if !ok {
			return int64(kerr.EGENERIC)
		}
		frame, off, ok := p.AS.Translate(id, pagetable.V)
		if !ok {
			return int64(kerr.EGENERIC)
		}
		return int64(frame[off])

	case TraceWriteByte:
		p, ok := h.process(tid)
		if !ok {
			return int64(kerr.EGENERIC)
		}
		frame, off, ok := p.AS.Translate(id, pagetable.V)
		if !ok {
			return int64(kerr.EGENERIC)
		}
		frame[off] = byte(data)
		return int64(kerr.OK)

	case TraceCount:
		if id > uint64(Trace) {
			return int64(kerr.EGENERIC)
		}
		return int64(h.counts.Get(ID(id)))
	}
	return int64(kerr.EGENERIC)
}
