// Package trapctx implements the trap/context engine (spec §4.1): the
// boundary between S-mode kernel and U-mode user. Two context shapes are
// distinguished — a local context shared by kernel and user under one page
// table, and a foreign context that additionally carries a satp to install
// before resuming — plus the single cross-address-space portal mechanism
// that makes switching page tables mid-execution safe.
package trapctx

// NumGPRegs is the count of saved general-purpose registers: x1..x31 (x0 is
// hardwired to zero and never saved/restored).
const NumGPRegs = 31

// Reg names the saved general-purpose registers by their RISC-V ABI index
// within the 31-register file (Regs[RegA0] is x10, etc.), used by the
// syscall dispatcher to read the syscall id and arguments and to write the
// return value.
const (
	RegRA = iota
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
)

// SstatusSPP is the bit of sstatus recording the privilege mode trapped
// from: 0 for U-mode, 1 for S-mode. SstatusSPIE/SstatusSIE model the
// previous/current interrupt-enable bits the engine must save and mask
// per spec §5 ("S-mode interrupts are masked in sstatus.SIE" while the
// kernel runs).
const (
	SstatusSPP  = 1 << 8
	SstatusSPIE = 1 << 5
	SstatusSIE  = 1 << 1
)

// LocalContext holds only the user register file plus sepc/sstatus — used
// where kernel and user share one page table.
type LocalContext struct {
	Regs    [NumGPRegs]uint64
	Sepc    uint64
	Sstatus uint64
}

// NewUserLocal builds the initial context for a freshly loaded user
// program: sepc at entry, sstatus with SPP=0 (return to U-mode) and SPIE=1
// (interrupts re-enabled once back in U-mode).
func NewUserLocal(entry uint64) LocalContext {
	return LocalContext{Sepc: entry, Sstatus: SstatusSPIE}
}

// MoveNext advances sepc by 4, used when a syscall completes and the user
// should resume past the `ecall` instruction (spec §4.1).
func (c *LocalContext) MoveNext() { c.Sepc += 4 }

// A0 / SetA0 read and write the syscall return-value register.
func (c *LocalContext) A0() uint64     { return c.Regs[RegA0] }
func (c *LocalContext) SetA0(v uint64) { c.Regs[RegA0] = v }

// SyscallID reads a7, the register holding the syscall number.
func (c *LocalContext) SyscallID() uint64 { return c.Regs[RegA7] }

// SyscallArg reads argument i (0..5) from a0..a5.
func (c *LocalContext) SyscallArg(i int) uint64 { return c.Regs[RegA0+i] }

// SetSP sets the stack pointer (x2), used when seeding a new thread's
// initial user stack.
func (c *LocalContext) SetSP(v uint64) { c.Regs[RegSP] = v }

// ForeignContext additionally carries the satp value to install before
// resuming user — used once per-process page tables exist (i.e. for every
// thread from chapter 4 onward, which this core specification assumes
// throughout).
type ForeignContext struct {
	Local LocalContext
	Satp  uint64
}

// Satp builds the satp CSR value for Sv39 (mode field 8) pointing at the
// given root page-table PPN.
func Satp(rootPPN uint64) uint64 {
	const modeSv39 = 8
	return modeSv39<<60 | rootPPN
}
