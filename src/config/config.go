// Package config collects the compile-time constants the rest of the
// kernel is parameterised over. A freestanding kernel has no config file to
// parse at boot — this table plays the role biscuit's limits package plays:
// named constants in one place instead of magic numbers scattered through
// the tree.
package config

const (
	// PageBits is the Sv39 page offset width: 4 KiB pages.
	PageBits = 12
	PageSize = 1 << PageBits

	// VAddrBits is the Sv39 virtual address width.
	VAddrBits = 39
	// LevelBits is the index width of each of the three page-table levels.
	LevelBits = 9
	// Levels is the number of page-table levels in Sv39.
	Levels = 3
	// PPNBits is the width of the physical page number carried in a PTE.
	PPNBits = 44

	// PortalVPN is the fixed virtual page number shared identically by
	// the kernel space and every user space (spec §4.1).
	PortalVPN = (1 << (VAddrBits - PageBits)) - 1

	// UserStackPages is the size, in pages, of the fixed user stack
	// mapped at the top of the user address space below the portal.
	UserStackPages = 2

	// BigStride is the stride scheduler's per-process accumulator
	// modulus (spec §4.3, §8 property 10, §9 overflow note).
	BigStride uint64 = 1 << 20

	// QuantumTicks is added to the current mtime to arm the next S-mode
	// timer interrupt (spec §4.3). 12_500 ticks on a 12.5 MHz mtime is
	// 1 ms.
	QuantumTicks uint64 = 12_500

	// MtimeHz is the platform's mtime frequency, used to convert mtime
	// deltas into CLOCK_MONOTONIC nanoseconds via *10000/125.
	MtimeHz = 12_500_000

	// BlockSize is the byte-addressable block device's block size.
	BlockSize = 512

	// BlockCacheSize is the number of blocks the pinned LRU cache holds
	// (spec §4.6).
	BlockCacheSize = 16

	// PipeCapacity is the fixed ring-buffer size of a pipe (spec §3).
	PipeCapacity = 32

	// DirentNameMax mirrors ustr.NameMax; duplicated here as the on-disk
	// record layout constant rather than importing ustr, since this
	// package must stay leaf-level (no kernel package depends on it for
	// anything but constants).
	DirentNameMax = 27
	// DirentSize is sizeof(name[27] + inode_index uint32), rounded so
	// several entries pack evenly into one 512-byte block.
	DirentSize = 32

	// MinPriority is the lowest legal process scheduling priority
	// (spec §3 invariant: priority >= 2).
	MinPriority = 2

	// InodeDirect is the number of direct block pointers an inode holds.
	InodeDirect = 28
)
