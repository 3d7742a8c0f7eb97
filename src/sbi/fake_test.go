package sbi

import "testing"

func TestFakeConsoleRoundTrip(t *testing.T) {
	f := NewFake([]byte("hi"))
	f.PutChar('a')
	f.PutChar('b')
	if string(f.Out) != "ab" {
		t.Fatalf("Out = %q, want %q", f.Out, "ab")
	}

	c1, ok := f.GetChar()
	if !ok || c1 != 'h' {
		t.Fatalf("GetChar() = %q,%v want 'h',true", c1, ok)
	}
	c2, ok := f.GetChar()
	if !ok || c2 != 'i' {
		t.Fatalf("GetChar() = %q,%v want 'i',true", c2, ok)
	}
	if _, ok := f.GetChar(); ok {
		t.Fatal("expected GetChar to report no more input")
	}
}

func TestFakeTimerAndShutdown(t *testing.T) {
	f := NewFake(nil)
	f.SetTimer(100)
	if f.Mtime() != 100 {
		t.Fatalf("Mtime() = %d, want 100", f.Mtime())
	}
	f.Advance(50)
	if f.Mtime() != 150 {
		t.Fatalf("Mtime() = %d, want 150", f.Mtime())
	}

	f.Shutdown(true)
	if !*f.ShutdownCall || !f.Failed {
		t.Fatal("expected Shutdown to record a failed shutdown")
	}
}

func TestConsoleWriteUsesPutChar(t *testing.T) {
	f := NewFake(nil)
	c := Console{FW: f}
	n, err := c.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d,%v want 5,nil", n, err)
	}
	if string(f.Out) != "hello" {
		t.Fatalf("Out = %q, want %q", f.Out, "hello")
	}
}
