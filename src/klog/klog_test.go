package klog

import (
	"strings"
	"testing"

	"sbi"
)

func TestInfoAndWarnFormatLines(t *testing.T) {
	fw := sbi.NewFake(nil)
	l := New(fw)

	l.Info("booting %d frames", 4)
	l.Warn("low memory: %d left", 1)

	got := string(fw.Out)
	if !strings.Contains(got, "[info] booting 4 frames\n") {
		t.Fatalf("missing info line in %q", got)
	}
	if !strings.Contains(got, "[warn] low memory: 1 left\n") {
		t.Fatalf("missing warn line in %q", got)
	}
}

func TestSilentSuppressesOutput(t *testing.T) {
	fw := sbi.NewFake(nil)
	l := New(fw)
	l.Silent = true

	l.Info("should not appear")
	l.Warn("should not appear either")

	if len(fw.Out) != 0 {
		t.Fatalf("expected no output while Silent, got %q", fw.Out)
	}
}

func TestPanicfShutsDownAndPanics(t *testing.T) {
	fw := sbi.NewFake(nil)
	l := New(fw)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Panicf to panic")
		}
		if !*fw.ShutdownCall || !fw.Failed {
			t.Fatal("expected Panicf to shut the firmware down with failure=true")
		}
		if !strings.Contains(string(fw.Out), "[panic] invariant broken: 42") {
			t.Fatalf("missing panic message in console output: %q", fw.Out)
		}
	}()

	l.Panicf("invariant broken: %d", 42)
}
