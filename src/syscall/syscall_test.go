package syscall

import (
	"testing"

	"github.com/stretchr/testify/require"

	"blockdev"
	"fs"
	"mem"
	"proc"
	"sbi"
	"testelf"
	"trapctx"
	"vm"
)

func setup(t *testing.T) (*Handlers, *proc.Manager, proc.ThreadId) {
	t.Helper()
	alloc := mem.NewAllocator(0, 4096)
	kernelAS := vm.New(alloc)
	portal := trapctx.NewPortal(alloc, kernelAS)
	dev := blockdev.NewMemDevice(256)
	fsys := fs.Format(dev)
	m := proc.New(alloc, kernelAS, portal, sbi.NewFake(nil), fsys)

	image := testelf.Build(0x1000, 0x1000, []byte{0, 0, 0, 0}, 0x1000)
	_, tid, ok := m.LoadInitProcess(image, 16)
	require.True(t, ok)

	return NewHandlers(m, fsys), m, tid
}

func setArgs(th *proc.Thread, id ID, args ...uint64) {
	th.Ctx.Local.Regs[trapctx.RegA7] = uint64(id)
	for i, a := range args {
		th.Ctx.Local.Regs[trapctx.RegA0+i] = a
	}
}

func TestDispatchGetpidWritesA0AndAdvancesSepc(t *testing.T) {
	h, m, tid := setup(t)
	th, ok := m.Thread(tid)
	require.True(t, ok)

	sepcBefore := th.Ctx.Local.Sepc
	setArgs(th, ProcGetpid)

	ok = h.Dispatch(tid)
	require.True(t, ok)
	require.Equal(t, uint64(0), th.Ctx.Local.A0())
	require.Equal(t, sepcBefore+4, th.Ctx.Local.Sepc)
}

func TestDispatchUnknownSyscallReturnsUnsupported(t *testing.T) {
	h, m, tid := setup(t)
	th, ok := m.Thread(tid)
	require.True(t, ok)

	setArgs(th, ID(999999))
	h.Dispatch(tid)
	require.Equal(t, int64(-2), int64(int32(th.Ctx.Local.A0())))
}

func TestTraceCountTracksInvocations(t *testing.T) {
	h, m, tid := setup(t)
	th, _ := m.Thread(tid)

	setArgs(th, ProcGetpid)
	h.Dispatch(tid)
	setArgs(th, ProcGetpid)
	h.Dispatch(tid)

	setArgs(th, Trace, uint64(TraceCount), uint64(ProcGetpid))
	h.Dispatch(tid)
	require.Equal(t, uint64(2), th.Ctx.Local.A0())
}

func TestTraceReadWriteByteBypassesPermissions(t *testing.T) {
	h, m, tid := setup(t)
	th, _ := m.Thread(tid)

	setArgs(th, Trace, uint64(TraceWriteByte), 0x1000, 0x42)
	h.Dispatch(tid)

	setArgs(th, Trace, uint64(TraceReadByte), 0x1000)
	h.Dispatch(tid)
	require.Equal(t, uint64(0x42), th.Ctx.Local.A0())
}
