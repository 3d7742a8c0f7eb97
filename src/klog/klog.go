// Package klog is the kernel's console logger. There is no file descriptor
// to write to until the file system is up and no host stderr to fall back
// on, so every log line goes straight through the SBI console (spec §6),
// the same division of labor biscuit's kernel keeps between its console
// device and its panic path.
package klog

import (
	"fmt"
	"runtime"

	"sbi"
)

// Logger writes leveled lines to a console sink and can escalate an
// invariant violation into a full kernel shutdown (spec §7, "Kernel
// invariant violation ... abort the whole kernel via panic").
type Logger struct {
	out    sbi.Console
	Silent bool // set by tests that don't want console noise
}

// New builds a Logger backed by the given firmware's console.
func New(fw sbi.Firmware) *Logger {
	return &Logger{out: sbi.Console{FW: fw}}
}

func (l *Logger) writef(level, format string, args ...any) {
	if l.Silent {
		return
	}
	fmt.Fprintf(l.out, "["+level+"] "+format+"\n", args...)
}

// Info logs an informational line.
func (l *Logger) Info(format string, args ...any) { l.writef("info", format, args...) }

// Warn logs a warning line.
func (l *Logger) Warn(format string, args ...any) { l.writef("warn", format, args...) }

// Panicf prints the invariant-violation message, dumps the call stack, and
// shuts the machine down with failure=true. It never returns.
func (l *Logger) Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "[panic] %s\n", msg)
	dumpStack(l.out)
	l.out.FW.Shutdown(true)
	panic(msg) // unreachable on real hardware; keeps host tests honest
}

// dumpStack prints the Go call stack, mirroring biscuit's caller.Callerdump
// used at kernel panic sites.
func dumpStack(w interface{ Write([]byte) (int, error) }) {
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			return
		}
		fn := runtime.FuncForPC(pc)
		name := "?"
		if fn != nil {
			name = fn.Name()
		}
		fmt.Fprintf(w, "  %s\n      %s:%d\n", name, file, line)
	}
}
