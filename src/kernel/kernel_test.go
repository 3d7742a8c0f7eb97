package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"blockdev"
	"proc"
	"sbi"
	"syscall"
	"testelf"
	"trapctx"
)

func TestBootMountsFreshFilesystem(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	k := Boot(sbi.NewFake(nil), nil, dev, 16, 512)

	require.NotNil(t, k.FS)
	require.NotNil(t, k.Procs)
	require.NotNil(t, k.Syscalls)
}

func TestLoadInitRejectsGarbage(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	k := Boot(sbi.NewFake(nil), nil, dev, 16, 512)

	_, _, ok := k.LoadInit([]byte("not an elf"), 16)
	require.False(t, ok)
}

func TestLoadInitAcceptsMinimalELF(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	k := Boot(sbi.NewFake(nil), nil, dev, 16, 512)

	image := testelf.Build(0x1000, 0x1000, []byte{0, 0, 0, 0}, 0x1000)
	pid, tid, ok := k.LoadInit(image, 16)
	require.True(t, ok)
	require.Equal(t, proc.ProcId(0), pid)

	th, ok := k.Procs.Thread(tid)
	require.True(t, ok)
	require.Equal(t, proc.Ready, th.State)
}

// TestRunDispatchesExitAndStops drives one scripted trap — the init
// thread immediately calling exit(7) — through the full portal/dispatch
// path and checks Run stops once the ready queue drains.
func TestRunDispatchesExitAndStops(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fw := sbi.NewFake(nil)
	cpu := &trapctx.Scripted{Steps: []trapctx.Step{
		{
			Before: func(regs *[trapctx.NumGPRegs]uint64) {
				regs[trapctx.RegA7] = uint64(syscall.ProcExit)
				regs[trapctx.RegA0] = 7
			},
			Cause: trapctx.CauseUserEnvCall,
		},
	}}
	k := Boot(fw, cpu, dev, 16, 512)

	image := testelf.Build(0x1000, 0x1000, []byte{0, 0, 0, 0}, 0x1000)
	pid, _, ok := k.LoadInit(image, 16)
	require.True(t, ok)

	k.Run()

	p, ok := k.Procs.Process(pid)
	require.True(t, ok)
	require.True(t, p.Exited)
	require.Equal(t, 7, p.ExitCode)
}

// TestRunKillsThreadOnFault checks a non-syscall trap cause terminates the
// thread instead of looping forever on it.
func TestRunKillsThreadOnFault(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fw := sbi.NewFake(nil)
	cpu := &trapctx.Scripted{Steps: []trapctx.Step{
		{Cause: trapctx.CauseStoreFault, Stval: 0xdeadbeef},
	}}
	k := Boot(fw, cpu, dev, 16, 512)

	image := testelf.Build(0x1000, 0x1000, []byte{0, 0, 0, 0}, 0x1000)
	pid, _, ok := k.LoadInit(image, 16)
	require.True(t, ok)

	k.Run()

	p, ok := k.Procs.Process(pid)
	require.True(t, ok)
	require.True(t, p.Exited)
}
