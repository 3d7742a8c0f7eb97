package sbi

// Fake is an in-memory Firmware used by host tests: console output is
// buffered instead of written to a real UART, mtime is a plain counter
// moved by Advance and jumped to the deadline by SetTimer (as if the timer
// had already fired), and Shutdown just records that it was called instead
// of powering anything off.
type Fake struct {
	Out          []byte
	in           []byte
	inPos        int
	mtime        uint64
	ShutdownCall *bool
	Failed       bool
}

// NewFake builds a Fake firmware with the console input queue preloaded.
func NewFake(stdin []byte) *Fake {
	called := false
	return &Fake{in: stdin, ShutdownCall: &called}
}

func (f *Fake) PutChar(c byte) { f.Out = append(f.Out, c) }

func (f *Fake) GetChar() (byte, bool) {
	if f.inPos >= len(f.in) {
		return 0, false
	}
	c := f.in[f.inPos]
	f.inPos++
	return c, true
}

func (f *Fake) SetTimer(mtimeAbsolute uint64) { f.mtime = mtimeAbsolute }

func (f *Fake) Shutdown(failure bool) {
	*f.ShutdownCall = true
	f.Failed = failure
}

func (f *Fake) Mtime() uint64 { return f.mtime }

// Advance moves the fake clock forward, as if delta ticks of mtime elapsed.
func (f *Fake) Advance(delta uint64) { f.mtime += delta }
