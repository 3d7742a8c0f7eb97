// Command kernel is the boot-time wiring point (spec §5, §6): once linked
// against a real assembly CPU backend and OpenSBI, kernel_main would use
// exactly this sequence — blockdev.NewMemDeviceFromBytes over the disk
// image, kernel.Boot, kernel.LoadInit, kernel.Run — to bring the machine
// up. The CPU backend itself, the handful of instructions that swap satp,
// load the user register file, and sret, is an external collaborator (spec
// §1) this repository doesn't provide; see trapctx.CPU for the interface
// it must satisfy. This binary stops short of Run and reports that
// explicitly, rather than linking in a fake CPU that would silently do
// nothing on real hardware.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"blockdev"
	"kernel"
	"kerr"
	"ustr"
)

var (
	diskPath    string
	initPath    string
	imageFrames int
	heapFrames  int
	priority    uint64
)

func main() {
	root := &cobra.Command{
		Use:   "kernel",
		Short: "Boot the kernel against a disk image and an initial program",
		RunE:  run,
	}
	root.Flags().StringVar(&diskPath, "disk", "disk.img", "disk image path, built by mkdiskimg")
	root.Flags().StringVar(&initPath, "init", "/init", "path of the initial program within the disk image")
	root.Flags().IntVar(&imageFrames, "image-frames", 256, "physical frames reserved for the identity-mapped kernel image")
	root.Flags().IntVar(&heapFrames, "heap-frames", 4096, "physical frames available to the kernel heap allocator")
	root.Flags().Uint64Var(&priority, "init-priority", 16, "stride-scheduling priority of the initial process")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(diskPath)
	if err != nil {
		return fmt.Errorf("read disk image: %w", err)
	}
	dev := blockdev.NewMemDeviceFromBytes(raw)

	fw := &stdioFirmware{start: time.Now()}
	k := kernel.Boot(fw, nil, dev, imageFrames, heapFrames)
	k.Log.Info("booted: %d image frames, %d heap frames", imageFrames, heapFrames)

	image, errno := readInit(k)
	if errno != kerr.OK {
		return fmt.Errorf("read %s from disk image: errno %d", initPath, errno)
	}

	pid, tid, ok := k.LoadInit(image, priority)
	if !ok {
		return fmt.Errorf("load %s: rejected as a valid Sv39 ELF executable", initPath)
	}
	k.Log.Info("loaded %s as pid %d, tid %d", initPath, pid, tid)

	return fmt.Errorf("no CPU backend linked in: rebuild with a real trapctx.CPU implementation to enter k.Run")
}

// readInit reads the initial program's whole contents out of the mounted
// file system. The fs package is a single-level namespace (spec §4.6), so
// a leading slash in --init is stripped rather than resolved.
func readInit(k *kernel.Kernel) ([]byte, kerr.Errno) {
	name := strings.TrimPrefix(initPath, "/")
	ino, errno := k.FS.Open(ustr.New(name), 0)
	if errno != kerr.OK {
		return nil, errno
	}
	buf := make([]byte, ino.Size())
	ino.ReadAt(0, buf)
	return buf, kerr.OK
}

// stdioFirmware is a minimal real sbi.Firmware backed by the host's own
// stdio and clock, standing in for OpenSBI when this binary runs as an
// ordinary host process rather than under QEMU or real hardware.
type stdioFirmware struct {
	start time.Time
}

func (f *stdioFirmware) PutChar(c byte) { os.Stdout.Write([]byte{c}) }

func (f *stdioFirmware) GetChar() (byte, bool) {
	var b [1]byte
	n, err := os.Stdin.Read(b[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return b[0], true
}

func (f *stdioFirmware) SetTimer(mtimeAbsolute uint64) {}

func (f *stdioFirmware) Shutdown(failure bool) {
	if failure {
		os.Exit(1)
	}
	os.Exit(0)
}

func (f *stdioFirmware) Mtime() uint64 { return uint64(time.Since(f.start).Microseconds()) }
