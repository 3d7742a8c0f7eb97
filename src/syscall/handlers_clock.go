package syscall

import (
	"encoding/binary"

	"kerr"
	"proc"
)

// sysClockGettime implements clock_gettime(CLOCK_MONOTONIC, *timespec)
// (spec §6): mtime ticks at 12.5 MHz, so one tick is 80 ns
// (mtime*10000/125); the result is split into a {sec, nsec} pair written
// at timespecPtr as two little-endian uint64s. Any clock id other than
// CLOCK_MONOTONIC is rejected — this kernel has no wall clock.
func (h *Handlers) sysClockGettime(tid proc.ThreadId, clockID int, timespecPtr uint64) int64 {
	if clockID != ClockMonotonic {
		return int64(kerr.EGENERIC)
	}
	p, ok := h.process(tid)
	if !ok {
		return int64(kerr.EGENERIC)
	}
	ns := h.M.FW.Mtime() * 10000 / 125
	sec := ns / 1_000_000_000
	nsec := ns % 1_000_000_000

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], sec)
	binary.LittleEndian.PutUint64(buf[8:16], nsec)
	if !p.AS.WriteBytes(timespecPtr, buf[:]) {
		return int64(kerr.EGENERIC)
	}
	return int64(kerr.OK)
}
