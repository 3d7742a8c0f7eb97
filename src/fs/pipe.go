package fs

import "config"

// Pipe is a fixed-capacity ring buffer connecting a write end to a read
// end (spec §3, §4.6), adapted from biscuit's circbuf: head and tail are
// monotonically increasing byte counts, wrapped into the backing array
// only at access time, so Full/Empty never need a separate "is it exactly
// one lap ahead" flag.
//
// EOF is detected by reference count rather than a weak pointer (Go has
// none): WriterClosed becomes true once every write-end handle referencing
// this pipe has called CloseWriter, at which point readers drain the
// remaining buffered bytes and then see Read return (0, true).
type Pipe struct {
	buf          [config.PipeCapacity]byte
	head, tail   int
	readers      int
	writers      int
	readerClosed bool
}

// NewPipe returns an empty pipe with one reader and one writer reference,
// matching the fd pair a pipe() syscall hands back.
func NewPipe() *Pipe {
	return &Pipe{readers: 1, writers: 1}
}

func (p *Pipe) used() int { return p.head - p.tail }
func (p *Pipe) free() int { return config.PipeCapacity - p.used() }

// Full reports whether the buffer cannot accept more bytes.
func (p *Pipe) Full() bool { return p.used() == config.PipeCapacity }

// Empty reports whether the buffer holds no bytes.
func (p *Pipe) Empty() bool { return p.used() == 0 }

// AddReader / AddWriter bump the reference count when an fd is duped or a
// thread forks with the pipe open (spec §4.6).
func (p *Pipe) AddReader() { p.readers++ }
func (p *Pipe) AddWriter() { p.writers++ }

// CloseReader drops one reader reference.
func (p *Pipe) CloseReader() { p.readers-- }

// CloseWriter drops one writer reference; once it reaches zero, Read
// returns EOF after draining whatever remains buffered.
func (p *Pipe) CloseWriter() { p.writers-- }

// WriterClosed reports whether every writer reference has been released.
func (p *Pipe) WriterClosed() bool { return p.writers == 0 }

// ReaderClosed reports whether every reader reference has been released
// (a writer gets EGENERIC/SIGPIPE-equivalent treatment at the syscall
// layer when this is true; spec leaves signal delivery for that case as
// future work, so only the flag is tracked here).
func (p *Pipe) ReaderClosed() bool { return p.readers == 0 }

// Write copies as much of data as fits into the remaining capacity,
// returning the number of bytes actually written. The caller (syscall
// layer) decides whether to block and retry when the return is short.
func (p *Pipe) Write(data []byte) int {
	n := len(data)
	if f := p.free(); n > f {
		n = f
	}
	for i := 0; i < n; i++ {
		p.buf[(p.head+i)%config.PipeCapacity] = data[i]
	}
	p.head += n
	return n
}

// Read copies up to len(buf) buffered bytes out, returning the count read
// and whether the pipe is at EOF (empty and every writer closed).
func (p *Pipe) Read(buf []byte) (int, bool) {
	n := len(buf)
	if u := p.used(); n > u {
		n = u
	}
	for i := 0; i < n; i++ {
		buf[i] = p.buf[(p.tail+i)%config.PipeCapacity]
	}
	p.tail += n
	eof := p.Empty() && p.WriterClosed()
	return n, eof
}
