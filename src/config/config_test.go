package config

import "testing"

func TestPortalVPNIsTopOfSv39VASpace(t *testing.T) {
	want := uint64(1<<(VAddrBits-PageBits)) - 1
	if PortalVPN != want {
		t.Fatalf("PortalVPN = %#x, want %#x", PortalVPN, want)
	}
}

func TestMinPriorityIsAtLeastTwo(t *testing.T) {
	if MinPriority < 2 {
		t.Fatalf("MinPriority = %d, want >= 2", MinPriority)
	}
}

func TestBigStrideIsPowerOfTwo(t *testing.T) {
	if BigStride&(BigStride-1) != 0 {
		t.Fatalf("BigStride = %d, want a power of two", BigStride)
	}
}
