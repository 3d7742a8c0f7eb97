// Package sbi models the firmware Supervisor Binary Interface the kernel
// consumes (spec §6): character I/O, the next-timer register, and shutdown.
// It is an external collaborator — on real hardware these are `ecall`s into
// OpenSBI; here they are expressed as an interface so the kernel core can be
// driven under `go test` against a fake, and a thin real implementation can
// be swapped in by the boot-time cmd/kernel wiring.
package sbi

// Firmware is the SBI surface the kernel relies on.
type Firmware interface {
	// PutChar writes one byte to the console.
	PutChar(c byte)
	// GetChar reads one byte from the console, or returns ok=false if
	// none is pending ("no char", encoded as -1 in the real SBI call).
	GetChar() (c byte, ok bool)
	// SetTimer arms the next S-mode timer interrupt for the given
	// absolute mtime value.
	SetTimer(mtimeAbsolute uint64)
	// Shutdown powers the machine off. failure indicates an abnormal
	// kernel-panic shutdown versus a clean one.
	Shutdown(failure bool)
	// Mtime returns the current value of the mtime counter, used to
	// compute CLOCK_MONOTONIC and to arm relative timers.
	Mtime() uint64
}

// Console adapts a Firmware into an io.Writer-shaped byte sink for klog and
// for the console file-descriptor placeholder, without importing io here to
// keep this package dependency-free; callers wrap PutChar directly.
type Console struct {
	FW Firmware
}

// Write implements io.Writer over PutChar so klog and the console fd
// placeholder can share one code path.
func (c Console) Write(p []byte) (int, error) {
	for _, b := range p {
		c.FW.PutChar(b)
	}
	return len(p), nil
}
