package fs

import (
	"fdtable"
	"sbi"
)

// Open flags, passed from the syscall layer (spec §6 IO group).
const (
	ORdonly = 0x0
	OWronly = 0x1
	ORdwr   = 0x2
	OCreat  = 0x40
	OTrunc  = 0x200
)

// File is an open regular-file handle: a shared inode plus a private
// offset cursor (spec §3 — "file offset is per-open-file, not per-inode").
type File struct {
	ino      *Inode
	readable bool
	writable bool
	off      uint32
}

func (f *File) Readable() bool { return f.readable }
func (f *File) Writable() bool { return f.writable }

func (f *File) Read(buf []byte) (int, bool) {
	if !f.readable {
		return 0, false
	}
	n := f.ino.ReadAt(f.off, buf)
	f.off += uint32(n)
	return n, true
}

func (f *File) Write(buf []byte) (int, bool) {
	if !f.writable {
		return 0, false
	}
	n, ok := f.ino.WriteAt(f.off, buf)
	f.off += uint32(n)
	return n, ok
}

func (f *File) Close() {}

// Size returns the underlying inode's current byte length, used by fstat.
func (f *File) Size() uint32 { return f.ino.Size() }

// Clone returns a handle sharing the same inode but with its own offset
// cursor reset to this handle's current offset — matching biscuit's
// per-open-file-description fork semantics (spec §3).
func (f *File) Clone() fdtable.Handle {
	clone := *f
	return &clone
}

// PipeReader is the read end of a Pipe.
type PipeReader struct {
	p *Pipe
}

func (r *PipeReader) Readable() bool { return true }
func (r *PipeReader) Writable() bool { return false }

func (r *PipeReader) Read(buf []byte) (int, bool) {
	n, eof := r.p.Read(buf)
	return n, !eof
}

func (r *PipeReader) Write(buf []byte) (int, bool) { return 0, false }

func (r *PipeReader) Close() { r.p.CloseReader() }

func (r *PipeReader) Clone() fdtable.Handle {
	r.p.AddReader()
	return &PipeReader{p: r.p}
}

// PipeWriter is the write end of a Pipe.
type PipeWriter struct {
	p *Pipe
}

func (w *PipeWriter) Readable() bool { return false }
func (w *PipeWriter) Writable() bool { return true }

func (w *PipeWriter) Read(buf []byte) (int, bool) { return 0, false }

func (w *PipeWriter) Write(buf []byte) (int, bool) {
	if w.p.ReaderClosed() {
		return 0, false
	}
	return w.p.Write(buf), true
}

func (w *PipeWriter) Close() { w.p.CloseWriter() }

func (w *PipeWriter) Clone() fdtable.Handle {
	w.p.AddWriter()
	return &PipeWriter{p: w.p}
}

// NewPipePair returns the (read, write) handle pair of a fresh pipe (spec §6 IO
// group: pipe()).
func NewPipePair() (*PipeReader, *PipeWriter) {
	p := NewPipe()
	return &PipeReader{p: p}, &PipeWriter{p: p}
}

// Console is the stdin/stdout/stderr placeholder handle backed by the SBI
// firmware console (spec §3: "fds 0/1/2 are a console placeholder, not
// backed by the file system").
type Console struct {
	fw sbi.Firmware
}

// NewConsole wraps fw as a readable and writable stdio handle.
func NewConsole(fw sbi.Firmware) *Console { return &Console{fw: fw} }

func (c *Console) Readable() bool { return true }
func (c *Console) Writable() bool { return true }

func (c *Console) Read(buf []byte) (int, bool) {
	n := 0
	for n < len(buf) {
		ch, ok := c.fw.GetChar()
		if !ok {
			break
		}
		buf[n] = ch
		n++
	}
	return n, true
}

func (c *Console) Write(buf []byte) (int, bool) {
	for _, b := range buf {
		c.fw.PutChar(b)
	}
	return len(buf), true
}

func (c *Console) Close() {}

func (c *Console) Clone() fdtable.Handle { return &Console{fw: c.fw} }
