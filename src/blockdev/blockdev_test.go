package blockdev

import (
	"bytes"
	"testing"

	"config"
)

func TestMemDeviceReadWriteRoundTrip(t *testing.T) {
	d := NewMemDevice(4)
	want := bytes.Repeat([]byte{0xab}, config.BlockSize)
	d.WriteBlock(2, want)

	got := make([]byte, config.BlockSize)
	d.ReadBlock(2, got)
	if !bytes.Equal(got, want) {
		t.Fatal("ReadBlock did not return what WriteBlock wrote")
	}
}

func TestMemDeviceOutOfRangePanics(t *testing.T) {
	d := NewMemDevice(2)
	defer func() {
		if recover() == nil {
			t.Fatal("expected ReadBlock of an out-of-range id to panic")
		}
	}()
	d.ReadBlock(5, make([]byte, config.BlockSize))
}

func TestBytesAndFromBytesRoundTrip(t *testing.T) {
	d := NewMemDevice(3)
	d.WriteBlock(0, bytes.Repeat([]byte{1}, config.BlockSize))
	d.WriteBlock(1, bytes.Repeat([]byte{2}, config.BlockSize))
	d.WriteBlock(2, bytes.Repeat([]byte{3}, config.BlockSize))

	raw := d.Bytes()
	rebuilt := NewMemDeviceFromBytes(raw)
	if rebuilt.NumBlocks() != d.NumBlocks() {
		t.Fatalf("NumBlocks() = %d, want %d", rebuilt.NumBlocks(), d.NumBlocks())
	}
	for i := uint64(0); i < 3; i++ {
		want := make([]byte, config.BlockSize)
		got := make([]byte, config.BlockSize)
		d.ReadBlock(i, want)
		rebuilt.ReadBlock(i, got)
		if !bytes.Equal(want, got) {
			t.Fatalf("block %d mismatch after round trip", i)
		}
	}
}

func TestCacheReadWriteAndEviction(t *testing.T) {
	dev := NewMemDevice(8)
	c := NewCache(dev, 2)

	c.Write(0, bytes.Repeat([]byte{0xaa}, config.BlockSize))
	c.Write(1, bytes.Repeat([]byte{0xbb}, config.BlockSize))
	// Evicts block 0 (LRU), which must be written back since it's dirty.
	c.Write(2, bytes.Repeat([]byte{0xcc}, config.BlockSize))

	onDisk := make([]byte, config.BlockSize)
	dev.ReadBlock(0, onDisk)
	if onDisk[0] != 0xaa {
		t.Fatalf("evicted dirty block not written back: got %#x, want 0xaa", onDisk[0])
	}

	got := make([]byte, config.BlockSize)
	c.Read(1, got)
	if got[0] != 0xbb {
		t.Fatalf("Read(1) = %#x, want 0xbb", got[0])
	}
}

func TestCacheSyncAllFlushesDirtyBlocks(t *testing.T) {
	dev := NewMemDevice(4)
	c := NewCache(dev, 4)
	c.Write(3, bytes.Repeat([]byte{0x42}, config.BlockSize))

	onDiskBefore := make([]byte, config.BlockSize)
	dev.ReadBlock(3, onDiskBefore)
	if onDiskBefore[0] == 0x42 {
		t.Fatal("expected a write to stay cache-only before SyncAll")
	}

	c.SyncAll()
	onDiskAfter := make([]byte, config.BlockSize)
	dev.ReadBlock(3, onDiskAfter)
	if onDiskAfter[0] != 0x42 {
		t.Fatal("expected SyncAll to flush the dirty block to the device")
	}
}
