package syscall

import (
	"encoding/binary"

	"kerr"
	"proc"
	"signal"
)

// actionRecordSize is this kernel's wire layout for a sigaction struct:
// disposition, handler entry, and mask as three little-endian uint64s —
// a kernel-private ABI, not one borrowed from any real ISA.
const actionRecordSize = 24

func decodeAction(b []byte) signal.Action {
	return signal.Action{
		Disposition:  signal.Disposition(binary.LittleEndian.Uint64(b[0:8])),
		HandlerEntry: binary.LittleEndian.Uint64(b[8:16]),
		Mask:         uint32(binary.LittleEndian.Uint64(b[16:24])),
	}
}

func encodeAction(a signal.Action) [actionRecordSize]byte {
	var b [actionRecordSize]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(a.Disposition))
	binary.LittleEndian.PutUint64(b[8:16], a.HandlerEntry)
	binary.LittleEndian.PutUint64(b[16:24], uint64(a.Mask))
	return b
}

// sysKill implements kill(pid, sig) (spec §4.5): marks sig pending on the
// target process; delivery happens the next time one of that process's
// threads returns from a syscall.
func (h *Handlers) sysKill(tid proc.ThreadId, pid int64, sig uint32) int64 {
	target, ok := h.M.Process(proc.ProcId(pid))
	if !ok {
		return int64(kerr.EGENERIC)
	}
	target.Sig.Kill(sig)
	return int64(kerr.OK)
}

// sysSigaction implements sigaction(sig, *newact, *oldact) (spec §6):
// installs newact (if newActPtr != 0) and writes the previous disposition
// to oldActPtr (if non-zero).
func (h *Handlers) sysSigaction(tid proc.ThreadId, sig uint32, newActPtr, oldActPtr uint64) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	var newAct *signal.Action
	if newActPtr != 0 {
		raw, ok := p.AS.ReadBytes(newActPtr, actionRecordSize)
		if !ok {
			return int64(kerr.EGENERIC)
		}
		act := decodeAction(raw)
		newAct = &act
	}
	old, ok := p.Sig.SigAction(sig, newAct)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	if oldActPtr != 0 {
		enc := encodeAction(old)
		if !p.AS.WriteBytes(oldActPtr, enc[:]) {
			return int64(kerr.EGENERIC)
		}
	}
	return int64(kerr.OK)
}

// sysSigprocmask implements sigprocmask(mask), returning the previous mask.
func (h *Handlers) sysSigprocmask(tid proc.ThreadId, mask uint32) int64 {
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	return int64(p.Sig.SigProcMask(mask))
}

// sysSigreturn implements sigreturn() (spec §4.5): restores the context
// saved when the handler was dispatched. It mutates the thread's register
// file directly and is special-cased by Dispatch, which never applies the
// generic a0/sepc update on top of a restored context.
func (h *Handlers) sysSigreturn(tid proc.ThreadId) {
	p, ok := h.process(tid)
	if !ok {
		return
	}
	t, ok := h.M.Thread(tid)
	if !ok {
		return
	}
	saved, ok := p.Sig.SigReturn()
	if !ok {
		return
	}
	t.Ctx.Local = *saved
}
